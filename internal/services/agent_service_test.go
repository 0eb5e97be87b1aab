// internal/services/agent_service_test.go
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omasuaku/workcode-agent/internal/llm"
)

const agentTestYAML = `titles:
  - title_1:
      name: Dispositions générales
      chapters:
        - chapter_1:
            name: Du champ d'application
            articles: [1, 2]
articles:
  - article_1: "Le présent code est applicable à tous les travailleurs."
  - article_2: "Les dispositions du présent code sont d'ordre public."
`

func writeAgentTestYAML(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(path, []byte(agentTestYAML), 0o644))
	return path
}

// scriptedStreamer replays one prepared event stream per model turn.
type scriptedStreamer struct {
	turns    [][]llm.StreamEvent
	requests []llm.ChatRequest
}

func (s *scriptedStreamer) StreamChat(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	s.requests = append(s.requests, req)

	turn := len(s.requests) - 1
	if turn >= len(s.turns) {
		return nil, fmt.Errorf("unexpected model turn %d", turn)
	}

	ch := make(chan llm.StreamEvent, len(s.turns[turn])+1)
	for _, ev := range s.turns[turn] {
		ch <- ev
	}
	ch <- llm.StreamEvent{Done: true, FinishReason: "STOP"}
	close(ch)
	return ch, nil
}

func collectEvents(t *testing.T, events <-chan AgentEvent) []AgentEvent {
	t.Helper()
	var out []AgentEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func newTestAgent(t *testing.T, streamer ChatStreamer) *AgentService {
	t.Helper()
	workCode := NewWorkCodeService(writeAgentTestYAML(t))
	return NewAgentService(streamer, nil, workCode)
}

func TestAgentPlainAnswer(t *testing.T) {
	streamer := &scriptedStreamer{turns: [][]llm.StreamEvent{
		{{Text: "Bonjour, "}, {Text: "je peux vous aider."}},
	}}
	agent := newTestAgent(t, streamer)

	events, err := agent.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Text: "Bonjour"},
	})
	require.NoError(t, err)

	got := collectEvents(t, events)
	require.Len(t, got, 3)
	assert.Equal(t, AgentEvent{Type: EventToken, Token: "Bonjour, "}, got[0])
	assert.Equal(t, AgentEvent{Type: EventToken, Token: "je peux vous aider."}, got[1])
	assert.Equal(t, EventDone, got[2].Type)

	require.Len(t, streamer.requests, 1)
	req := streamer.requests[0]
	assert.Contains(t, req.SystemPrompt, "code du travail de la RDC")
	require.Len(t, req.Tools, 3)
	assert.Equal(t, "retrieve_context", req.Tools[0].Name)
	assert.Equal(t, "work_code_structure", req.Tools[1].Name)
	assert.Equal(t, "get_article_by_number", req.Tools[2].Name)
}

func TestAgentToolRoundTrip(t *testing.T) {
	streamer := &scriptedStreamer{turns: [][]llm.StreamEvent{
		{{FunctionCalls: []llm.FunctionCall{{
			Name: "get_article_by_number",
			Args: map[string]interface{}{"article_number": float64(1)},
		}}}},
		{{Text: "L'article 1 dispose que le code s'applique à tous."}},
	}}
	agent := newTestAgent(t, streamer)

	events, err := agent.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Text: "Que dit l'article 1 ?"},
	})
	require.NoError(t, err)

	got := collectEvents(t, events)
	require.Len(t, got, 4)

	assert.Equal(t, EventToolCall, got[0].Type)
	assert.Equal(t, "get_article_by_number", got[0].Tool)

	assert.Equal(t, EventToolResult, got[1].Type)
	assert.Contains(t, got[1].Result, "Article 1")
	assert.Contains(t, got[1].Result, "Le présent code est applicable à tous les travailleurs.")

	assert.Equal(t, EventToken, got[2].Type)
	assert.Equal(t, EventDone, got[3].Type)

	// Second turn carries the call and its response back to the model.
	require.Len(t, streamer.requests, 2)
	second := streamer.requests[1].Messages
	require.Len(t, second, 3)
	require.NotNil(t, second[1].FunctionCall)
	assert.Equal(t, "get_article_by_number", second[1].FunctionCall.Name)
	require.NotNil(t, second[2].FunctionResponse)
	assert.Equal(t, "get_article_by_number", second[2].FunctionResponse.Name)
}

func TestAgentStructureTool(t *testing.T) {
	streamer := &scriptedStreamer{turns: [][]llm.StreamEvent{
		{{FunctionCalls: []llm.FunctionCall{{Name: "work_code_structure"}}}},
		{{Text: "Voici la structure."}},
	}}
	agent := newTestAgent(t, streamer)

	events, err := agent.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Text: "Quelle est la structure du code ?"},
	})
	require.NoError(t, err)

	got := collectEvents(t, events)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, EventToolResult, got[1].Type)
	assert.Contains(t, got[1].Result, "Titre 1 : Dispositions générales.")
}

func TestAgentUnknownTool(t *testing.T) {
	streamer := &scriptedStreamer{turns: [][]llm.StreamEvent{
		{{FunctionCalls: []llm.FunctionCall{{Name: "no_such_tool"}}}},
		{{Text: "Désolé."}},
	}}
	agent := newTestAgent(t, streamer)

	events, err := agent.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Text: "?"},
	})
	require.NoError(t, err)

	got := collectEvents(t, events)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, EventToolResult, got[1].Type)
	assert.Contains(t, got[1].Result, "Tool error")
}

func TestAgentEmptyConversation(t *testing.T) {
	agent := newTestAgent(t, &scriptedStreamer{})
	_, err := agent.Chat(context.Background(), nil)
	assert.Error(t, err)
}

func TestAgentInvalidArticleArgument(t *testing.T) {
	streamer := &scriptedStreamer{turns: [][]llm.StreamEvent{
		{{FunctionCalls: []llm.FunctionCall{{
			Name: "get_article_by_number",
			Args: map[string]interface{}{"article_number": "beaucoup"},
		}}}},
		{{Text: "Je n'ai pas trouvé."}},
	}}
	agent := newTestAgent(t, streamer)

	events, err := agent.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Text: "?"},
	})
	require.NoError(t, err)

	got := collectEvents(t, events)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, "Invalid article_number: expected a positive integer.", got[1].Result)
}
