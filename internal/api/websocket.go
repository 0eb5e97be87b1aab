// internal/api/websocket.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/omasuaku/workcode-agent/internal/logging"
	"github.com/omasuaku/workcode-agent/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// App Check is the access gate; origins are not restricted.
		return true
	},
}

// wsEvent is one frame sent to the WebSocket client. The shape
// mirrors the SSE events so both transports share client code.
type wsEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ChatWebSocket serves one chat exchange over a WebSocket: the client
// sends a single ChatRequest frame, the server streams agent events
// back and closes.
func (h *Handler) ChatWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))

	var req ChatRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(wsEvent{Event: services.EventError, Data: gin.H{"error": "invalid request frame"}})
		return
	}
	if len(req.Messages) == 0 {
		conn.WriteJSON(wsEvent{Event: services.EventError, Data: gin.H{"error": "messages must not be empty"}})
		return
	}

	ctx := c.Request.Context()
	events, err := h.Agent.Chat(ctx, toLLMMessages(req.Messages))
	if err != nil {
		conn.WriteJSON(wsEvent{Event: services.EventError, Data: gin.H{"error": err.Error()}})
		return
	}

	for ev := range events {
		event, payload := eventPayload(ev)
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(wsEvent{Event: event, Data: payload}); err != nil {
			logging.L().Info("websocket client went away", zap.Error(err))
			return
		}
	}
}
