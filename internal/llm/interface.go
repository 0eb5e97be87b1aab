// internal/llm/interface.go
package llm

import (
	"context"
	"errors"
)

var ErrUnknownProvider = errors.New("unknown LLM provider")

// Message roles on the wire.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

// Message is one turn of the conversation. Exactly one of Text,
// FunctionCall or FunctionResponse should be set.
type Message struct {
	Role             string            `json:"role"`
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
}

// ToolDecl describes a callable tool to the model. Parameters is a
// JSON-schema object.
type ToolDecl struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// ChatRequest is the normalized request shape all providers accept.
type ChatRequest struct {
	Messages     []Message  `json:"messages"`
	SystemPrompt string     `json:"system_prompt,omitempty"`
	Tools        []ToolDecl `json:"tools,omitempty"`
	Model        string     `json:"model,omitempty"`
	Temperature  float32    `json:"temperature,omitempty"`
	MaxTokens    int        `json:"max_tokens,omitempty"`
}

// StreamEvent is one chunk of a streamed model turn. Text carries an
// incremental delta; FunctionCalls carries tool invocations as they
// appear in the stream. The final event has Done set together with the
// finish reason and token usage.
type StreamEvent struct {
	Text          string         `json:"text,omitempty"`
	FunctionCalls []FunctionCall `json:"function_calls,omitempty"`
	FinishReason  string         `json:"finish_reason,omitempty"`
	ModelName     string         `json:"model_name,omitempty"`
	TokensUsed    int            `json:"tokens_used,omitempty"`
	Done          bool           `json:"done"`
	Err           error          `json:"-"`
}

// Provider is the interface every LLM backend implements.
type Provider interface {
	// Initialize the provider with its configuration map.
	Initialize(config map[string]string) error

	// Name of the provider for logs and event metadata.
	Name() string

	// StreamChat runs one model turn and streams the response. The
	// channel is closed after the Done event. Cancelling the context
	// stops the stream.
	StreamChat(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error)
}

// ProviderFactory builds an uninitialized provider.
type ProviderFactory func() Provider

var providers = make(map[string]ProviderFactory)

// Register a provider factory. Called from provider package init().
func Register(name string, factory ProviderFactory) {
	providers[name] = factory
}

// GetProvider creates and initializes the named provider.
func GetProvider(name string, config map[string]string) (Provider, error) {
	factory, exists := providers[name]
	if !exists {
		return nil, ErrUnknownProvider
	}

	provider := factory()
	if err := provider.Initialize(config); err != nil {
		return nil, err
	}
	return provider, nil
}

// ListProviders returns all registered provider names.
func ListProviders() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}
