// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/omasuaku/workcode-agent/internal/api"
	"github.com/omasuaku/workcode-agent/internal/app"
	"github.com/omasuaku/workcode-agent/internal/config"
	"github.com/omasuaku/workcode-agent/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if _, err := logging.Init(cfg.DebugMode); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logging.Sync()
	logger := logging.L()

	logger.Info("starting workcode-agent server",
		zap.String("port", cfg.Port),
		zap.String("model", cfg.LLMModel),
		zap.Bool("app_check_disabled", cfg.AppCheckDisabled))

	ctx := context.Background()
	if err := app.InitServices(ctx); err != nil {
		logger.Fatal("failed to initialize services", zap.Error(err))
	}
	defer app.Cleanup()

	if err := app.HealthCheck(); err != nil {
		logger.Fatal("service health check failed", zap.Error(err))
	}

	router, err := api.SetupRouter()
	if err != nil {
		logger.Fatal("failed to set up router", zap.Error(err))
	}

	runServer(router, cfg.Port)
}

// runServer starts the HTTP server and drains it on SIGINT/SIGTERM.
func runServer(router *gin.Engine, port string) {
	logger := logging.L()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()
	logger.Info("server listening", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("forced server shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
