// internal/services/llm_service.go
package services

import (
	"context"
	"fmt"

	"github.com/omasuaku/workcode-agent/internal/llm"
	// Register the google provider.
	_ "github.com/omasuaku/workcode-agent/internal/llm/providers/google"
)

// LLMService owns the configured model provider and fills in
// per-request defaults.
type LLMService struct {
	provider llm.Provider
	model    string
}

// NewLLMService resolves the named provider from the registry.
func NewLLMService(providerName, apiKey, model string) (*LLMService, error) {
	provider, err := llm.GetProvider(providerName, map[string]string{
		"api_key":       apiKey,
		"default_model": model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider %q: %w", providerName, err)
	}
	return &LLMService{provider: provider, model: model}, nil
}

// ProviderName reports the active provider for logs.
func (s *LLMService) ProviderName() string {
	return s.provider.Name()
}

// StreamChat forwards to the provider, defaulting the model.
func (s *LLMService) StreamChat(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	if req.Model == "" {
		req.Model = s.model
	}
	return s.provider.StreamChat(ctx, req)
}
