// internal/api/handlers.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/omasuaku/workcode-agent/internal/llm"
	"github.com/omasuaku/workcode-agent/internal/logging"
	"github.com/omasuaku/workcode-agent/internal/services"
)

// Handler holds the services the HTTP layer dispatches to.
type Handler struct {
	Agent *services.AgentService
}

// NewHandler creates the API handler.
func NewHandler(agent *services.AgentService) *Handler {
	return &Handler{Agent: agent}
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ChatMessage is one turn of the client conversation.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is the body of POST /agent/chat/stream.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`
}

// toLLMMessages maps client roles onto the provider's user/model
// vocabulary. System turns are folded into user turns; the real
// system prompt is owned by the agent.
func toLLMMessages(messages []ChatMessage) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		role := llm.RoleUser
		if m.Role == "assistant" {
			role = llm.RoleModel
		}
		out[i] = llm.Message{Role: role, Text: m.Content}
	}
	return out
}

// writeSSE writes one SSE frame and flushes it.
func writeSSE(c *gin.Context, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, payload)
	c.Writer.Flush()
}

// eventPayload maps an agent event to its SSE data object.
func eventPayload(ev services.AgentEvent) (string, interface{}) {
	switch ev.Type {
	case services.EventToken:
		return ev.Type, gin.H{"token": ev.Token}
	case services.EventToolCall:
		return ev.Type, gin.H{"tool": ev.Tool, "args": ev.Args}
	case services.EventToolResult:
		return ev.Type, gin.H{"tool": ev.Tool, "result": ev.Result}
	case services.EventError:
		return ev.Type, gin.H{"error": ev.Error}
	case services.EventDone:
		return ev.Type, gin.H{"status": "done"}
	default:
		return ev.Type, gin.H{}
	}
}

// ChatStream runs the agent and streams its events as SSE.
//
// Events:
//   - event: token        data: {"token": "..."}
//   - event: tool_call    data: {"tool": "...", "args": {...}}
//   - event: tool_result  data: {"tool": "...", "result": "..."}
//   - event: done         data: {"status": "done"}
//   - event: error        data: {"error": "..."}
func (h *Handler) ChatStream(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	started := time.Now()

	events, err := h.Agent.Chat(ctx, toLLMMessages(req.Messages))
	if err != nil {
		writeSSE(c, services.EventError, gin.H{"error": err.Error()})
		return
	}

	for ev := range events {
		select {
		case <-ctx.Done():
			logging.L().Info("chat stream client disconnected",
				zap.Duration("elapsed", time.Since(started)))
			return
		default:
		}

		event, payload := eventPayload(ev)
		writeSSE(c, event, payload)
	}

	logging.L().Info("chat stream completed",
		zap.Int("messages", len(req.Messages)),
		zap.Duration("elapsed", time.Since(started)))
}
