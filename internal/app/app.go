// internal/app/app.go

// Package app initializes the service graph in dependency order and
// registers everything in the DI container the API layer reads from.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/omasuaku/workcode-agent/internal/auth"
	"github.com/omasuaku/workcode-agent/internal/config"
	"github.com/omasuaku/workcode-agent/internal/di"
	"github.com/omasuaku/workcode-agent/internal/logging"
	"github.com/omasuaku/workcode-agent/internal/services"
	"github.com/omasuaku/workcode-agent/internal/store"
)

// InitServices wires all services, bottom-up, into the global
// container. Call once at startup, after config.Load.
func InitServices(ctx context.Context) error {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	container := di.GetContainer()
	logger := logging.L()

	// Structural lookups over the labor code YAML.
	workCodeService := services.NewWorkCodeService(cfg.WorkCodeFile)
	container.Register("workcode", workCodeService)

	// Vector retrieval: store plus embeddings.
	vectorStore, err := store.Open(cfg.VectorDB)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	container.Register("store", vectorStore)

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; /health stays available but chat and retrieval will fail until a key is configured")
	}

	embeddingService, err := services.NewEmbeddingService(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding service: %w", err)
	}
	container.Register("embedding", embeddingService)

	retrievalService := services.NewRetrievalService(embeddingService, vectorStore)
	container.Register("retrieval", retrievalService)

	// Model access and the agent on top.
	llmService, err := services.NewLLMService("google", cfg.GeminiAPIKey, cfg.LLMModel)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	container.Register("llm", llmService)

	agentService := services.NewAgentService(llmService, retrievalService, workCodeService)
	container.Register("agent", agentService)

	// App Check verification, unless explicitly disabled.
	if cfg.AppCheckDisabled {
		logger.Warn("App Check verification is DISABLED; do not run this in production")
	} else {
		container.Register("appcheck", auth.NewVerifier(cfg.FirebaseProjectNumber, cfg.FirebaseAppID))
	}

	logger.Info("services initialized",
		zap.Strings("services", container.GetNames()),
		zap.String("provider", llmService.ProviderName()))

	return nil
}

// HealthCheck verifies the critical services are registered.
func HealthCheck() error {
	container := di.GetContainer()
	for _, name := range []string{"workcode", "retrieval", "llm", "agent"} {
		if container.Get(name) == nil {
			return fmt.Errorf("critical service not registered: %s", name)
		}
	}
	return nil
}

// Cleanup releases resources held by the container.
func Cleanup() {
	container := di.GetContainer()
	if vs, ok := container.Get("store").(*store.VectorStore); ok && vs != nil {
		if err := vs.Close(); err != nil {
			logging.L().Warn("failed to close vector store", zap.Error(err))
		}
	}
}
