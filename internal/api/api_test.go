// internal/api/api_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omasuaku/workcode-agent/internal/auth"
	"github.com/omasuaku/workcode-agent/internal/llm"
	"github.com/omasuaku/workcode-agent/internal/services"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fixedStreamer answers every model turn with the same events.
type fixedStreamer struct {
	events []llm.StreamEvent
}

func (s *fixedStreamer) StreamChat(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	ch := make(chan llm.StreamEvent, len(s.events)+1)
	for _, ev := range s.events {
		ch <- ev
	}
	ch <- llm.StreamEvent{Done: true, FinishReason: "STOP"}
	close(ch)
	return ch, nil
}

func newTestHandler(t *testing.T, events []llm.StreamEvent) *Handler {
	t.Helper()

	yamlPath := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("titles: []\narticles: []\n"), 0o644))

	workCode := services.NewWorkCodeService(yamlPath)
	agent := services.NewAgentService(&fixedStreamer{events: events}, nil, workCode)
	return NewHandler(agent)
}

func newTestRouter(h *Handler, appCheck gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(corsMiddleware())
	r.GET("/health", h.HealthCheck)
	r.POST("/agent/chat/stream", appCheck, h.ChatStream)
	return r
}

func passthrough() gin.HandlerFunc {
	return AppCheckMiddleware(nil, true)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(newTestHandler(t, nil), passthrough())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestChatStreamEmitsSSE(t *testing.T) {
	h := newTestHandler(t, []llm.StreamEvent{
		{Text: "Bonjour"},
		{Text: " !"},
	})
	r := newTestRouter(h, passthrough())

	body := `{"messages":[{"role":"user","content":"Salut"}]}`
	req := httptest.NewRequest(http.MethodPost, "/agent/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))

	out := w.Body.String()
	assert.Contains(t, out, "event: token\ndata: {\"token\":\"Bonjour\"}\n\n")
	assert.Contains(t, out, "event: token\ndata: {\"token\":\" !\"}\n\n")
	assert.Contains(t, out, "event: done\ndata: {\"status\":\"done\"}\n\n")
}

func TestChatStreamRejectsBadBody(t *testing.T) {
	r := newTestRouter(newTestHandler(t, nil), passthrough())

	for name, body := range map[string]string{
		"empty messages": `{"messages":[]}`,
		"missing body":   ``,
		"bad role":       `{"messages":[{"role":"robot","content":"hi"}]}`,
		"no content":     `{"messages":[{"role":"user"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/agent/chat/stream", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAppCheckMiddlewareMissingToken(t *testing.T) {
	verifier := auth.NewVerifier("123456", "")
	r := newTestRouter(newTestHandler(t, nil), AppCheckMiddleware(verifier, false))

	body := `{"messages":[{"role":"user","content":"Salut"}]}`
	req := httptest.NewRequest(http.MethodPost, "/agent/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Missing App Check token")
}

func TestAppCheckMiddlewareInvalidToken(t *testing.T) {
	verifier := auth.NewVerifier("123456", "")
	r := newTestRouter(newTestHandler(t, nil), AppCheckMiddleware(verifier, false))

	body := `{"messages":[{"role":"user","content":"Salut"}]}`
	req := httptest.NewRequest(http.MethodPost, "/agent/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(AppCheckHeader, "not-a-jwt")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid App Check token")
}

func TestAppCheckMiddlewareDisabled(t *testing.T) {
	r := newTestRouter(newTestHandler(t, nil), AppCheckMiddleware(nil, true))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(newTestHandler(t, nil), passthrough())

	req := httptest.NewRequest(http.MethodOptions, "/agent/chat/stream", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), AppCheckHeader)
}

func TestChatRateLimitHeaders(t *testing.T) {
	r := newTestRouter(newTestHandler(t, nil), passthrough())
	r.POST("/limited", ChatRateLimit(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/limited", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "30", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
}
