// internal/services/agent_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/omasuaku/workcode-agent/internal/llm"
	"github.com/omasuaku/workcode-agent/internal/logging"
)

// Event types emitted on the agent stream.
const (
	EventToken      = "token"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventDone       = "done"
	EventError      = "error"
)

// AgentEvent is one item on the agent's output stream.
type AgentEvent struct {
	Type   string                 `json:"type"`
	Token  string                 `json:"token,omitempty"`
	Tool   string                 `json:"tool,omitempty"`
	Args   map[string]interface{} `json:"args,omitempty"`
	Result string                 `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// systemPrompt instructs the model in French; it answers labor-law
// questions using the registered tools and cites articles.
const systemPrompt = "Tu es un assistant qui répond aux questions sur le travail. " +
	"Utilise les outils pour aider à répondre aux questions des utilisateurs." +
	"Si tu ne sais pas répondre à une question, demande à l'utilisateur de reformuler sa question." +
	"Tu maîtrises le code du travail de la RDC." +
	"Fournis les articles pour appuyer ta réponse."

// ChatStreamer is the slice of LLMService the agent needs; tests
// substitute a scripted implementation.
type ChatStreamer interface {
	StreamChat(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error)
}

// Tool pairs a declaration with its implementation.
type Tool struct {
	Decl llm.ToolDecl
	Run  func(ctx context.Context, args map[string]interface{}) (string, error)
}

// AgentService runs the tool-calling loop: stream a model turn, run
// any requested tools, feed the results back, repeat until the model
// answers in plain text.
type AgentService struct {
	llm   ChatStreamer
	tools []Tool

	// maxToolRounds bounds the tool loop so a confused model cannot
	// spin forever.
	maxToolRounds int
}

// NewAgentService assembles the agent over the three domain tools.
func NewAgentService(llmService ChatStreamer, retrieval *RetrievalService, workCode *WorkCodeService) *AgentService {
	tools := []Tool{
		{
			Decl: llm.ToolDecl{
				Name:        "retrieve_context",
				Description: "Retrieve information to help answer a query.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"query": map[string]interface{}{
							"type":        "string",
							"description": "The user question to search the labor code for.",
						},
					},
					"required": []string{"query"},
				},
			},
			Run: func(ctx context.Context, args map[string]interface{}) (string, error) {
				query, _ := args["query"].(string)
				if strings.TrimSpace(query) == "" {
					return "", fmt.Errorf("retrieve_context requires a non-empty query")
				}
				return retrieval.RetrieveContext(ctx, query)
			},
		},
		{
			Decl: llm.ToolDecl{
				Name:        "work_code_structure",
				Description: "Get the structure of the work code",
			},
			Run: func(ctx context.Context, args map[string]interface{}) (string, error) {
				return workCode.Structure()
			},
		},
		{
			Decl: llm.ToolDecl{
				Name: "get_article_by_number",
				Description: "Retrieve a Code du Travail article by its number, including its full text and " +
					"structural context (title/chapter/section) from data.yaml.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"article_number": map[string]interface{}{
							"type":        "integer",
							"description": "The article number to look up.",
						},
					},
					"required": []string{"article_number"},
				},
			},
			Run: func(ctx context.Context, args map[string]interface{}) (string, error) {
				number, ok := asInt(args["article_number"])
				if !ok {
					// The tool reports invalid input in its response text
					// rather than erroring, matching the lookup contract.
					number = 0
				}
				return workCode.ArticleByNumber(number)
			},
		},
	}

	return &AgentService{
		llm:           llmService,
		tools:         tools,
		maxToolRounds: 8,
	}
}

// asInt converts JSON-decoded numeric arguments.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func (s *AgentService) toolByName(name string) *Tool {
	for i := range s.tools {
		if s.tools[i].Decl.Name == name {
			return &s.tools[i]
		}
	}
	return nil
}

func (s *AgentService) toolDecls() []llm.ToolDecl {
	decls := make([]llm.ToolDecl, len(s.tools))
	for i, t := range s.tools {
		decls[i] = t.Decl
	}
	return decls
}

// Chat runs the agent over the conversation history and streams
// events. The channel closes after a done or error event. Cancelling
// the context aborts the run.
func (s *AgentService) Chat(ctx context.Context, messages []llm.Message) (<-chan AgentEvent, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("conversation must contain at least one message")
	}

	out := make(chan AgentEvent, 16)
	go func() {
		defer close(out)
		s.run(ctx, messages, out)
	}()
	return out, nil
}

func (s *AgentService) run(ctx context.Context, messages []llm.Message, out chan<- AgentEvent) {
	logger := logging.L()

	conversation := make([]llm.Message, len(messages))
	copy(conversation, messages)

	emit := func(ev AgentEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for round := 0; round <= s.maxToolRounds; round++ {
		events, err := s.llm.StreamChat(ctx, llm.ChatRequest{
			Messages:     conversation,
			SystemPrompt: systemPrompt,
			Tools:        s.toolDecls(),
		})
		if err != nil {
			emit(AgentEvent{Type: EventError, Error: err.Error()})
			return
		}

		var (
			text  strings.Builder
			calls []llm.FunctionCall
		)
		for ev := range events {
			if ev.Err != nil {
				emit(AgentEvent{Type: EventError, Error: ev.Err.Error()})
				return
			}
			if ev.Text != "" {
				text.WriteString(ev.Text)
				if !emit(AgentEvent{Type: EventToken, Token: ev.Text}) {
					return
				}
			}
			calls = append(calls, ev.FunctionCalls...)
		}

		if len(calls) == 0 {
			emit(AgentEvent{Type: EventDone})
			return
		}

		if answer := text.String(); answer != "" {
			conversation = append(conversation, llm.Message{Role: llm.RoleModel, Text: answer})
		}

		for _, call := range calls {
			call := call
			conversation = append(conversation, llm.Message{Role: llm.RoleModel, FunctionCall: &call})

			if !emit(AgentEvent{Type: EventToolCall, Tool: call.Name, Args: call.Args}) {
				return
			}

			result, err := s.runTool(ctx, call)
			if err != nil {
				logger.Warn("tool execution failed",
					zap.String("tool", call.Name),
					zap.Error(err))
				result = fmt.Sprintf("Tool error: %v", err)
			}

			if !emit(AgentEvent{Type: EventToolResult, Tool: call.Name, Result: result}) {
				return
			}

			conversation = append(conversation, llm.Message{
				Role: llm.RoleUser,
				FunctionResponse: &llm.FunctionResponse{
					Name:     call.Name,
					Response: map[string]interface{}{"result": result},
				},
			})
		}
	}

	emit(AgentEvent{Type: EventError, Error: "agent exceeded maximum tool rounds"})
}

func (s *AgentService) runTool(ctx context.Context, call llm.FunctionCall) (string, error) {
	tool := s.toolByName(call.Name)
	if tool == nil {
		return "", fmt.Errorf("unknown tool %q", call.Name)
	}
	return tool.Run(ctx, call.Args)
}
