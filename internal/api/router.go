// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/omasuaku/workcode-agent/internal/auth"
	"github.com/omasuaku/workcode-agent/internal/config"
	"github.com/omasuaku/workcode-agent/internal/di"
	"github.com/omasuaku/workcode-agent/internal/services"
)

// SetupRouter builds the gin engine from the initialized service
// container.
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	agentService, ok := container.Get("agent").(*services.AgentService)
	if !ok {
		return nil, fmt.Errorf("agent service not initialized")
	}

	verifier, _ := container.Get("appcheck").(*auth.Verifier)
	if verifier == nil && !cfg.AppCheckDisabled {
		return nil, fmt.Errorf("App Check verifier not initialized")
	}

	handler := NewHandler(agentService)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", handler.HealthCheck)

	appCheck := AppCheckMiddleware(verifier, cfg.AppCheckDisabled)

	agent := r.Group("/agent", appCheck)
	{
		agent.POST("/chat/stream", ChatRateLimit(), handler.ChatStream)
	}

	r.GET("/ws/chat", appCheck, handler.ChatWebSocket)

	return r, nil
}
