// internal/llm/providers/google/google.go
package google

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/omasuaku/workcode-agent/internal/llm"
)

func init() {
	llm.Register("google", func() llm.Provider {
		return &Provider{
			baseURL: "https://generativelanguage.googleapis.com/v1beta",
		}
	})
}

// Provider speaks the Generative Language REST API directly, including
// function calling for the agent tools.
type Provider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
}

func (p *Provider) Initialize(config map[string]string) error {
	// An empty key is allowed at startup; StreamChat rejects requests
	// until one is configured.
	p.apiKey = config["api_key"]
	p.client = &http.Client{}

	if model, exists := config["default_model"]; exists && model != "" {
		p.defaultModel = model
	} else {
		p.defaultModel = "gemini-2.5-flash-lite"
	}

	if baseURL, exists := config["base_url"]; exists && baseURL != "" {
		p.baseURL = baseURL
	}

	return nil
}

func (p *Provider) Name() string {
	return "google gemini"
}

// buildRequestBody translates the normalized chat request into the
// Gemini wire format.
func (p *Provider) buildRequestBody(req llm.ChatRequest) map[string]interface{} {
	contents := make([]map[string]interface{}, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var part map[string]interface{}
		switch {
		case msg.FunctionCall != nil:
			part = map[string]interface{}{
				"functionCall": map[string]interface{}{
					"name": msg.FunctionCall.Name,
					"args": msg.FunctionCall.Args,
				},
			}
		case msg.FunctionResponse != nil:
			part = map[string]interface{}{
				"functionResponse": map[string]interface{}{
					"name":     msg.FunctionResponse.Name,
					"response": msg.FunctionResponse.Response,
				},
			}
		default:
			part = map[string]interface{}{"text": msg.Text}
		}

		role := msg.Role
		if role == "" {
			role = llm.RoleUser
		}
		contents = append(contents, map[string]interface{}{
			"role":  role,
			"parts": []map[string]interface{}{part},
		})
	}

	requestBody := map[string]interface{}{
		"contents": contents,
		"generationConfig": map[string]interface{}{
			"temperature": req.Temperature,
		},
	}

	if req.SystemPrompt != "" {
		requestBody["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]string{{"text": req.SystemPrompt}},
		}
	}

	if req.MaxTokens > 0 {
		requestBody["generationConfig"].(map[string]interface{})["maxOutputTokens"] = req.MaxTokens
	}

	if len(req.Tools) > 0 {
		decls := make([]map[string]interface{}, 0, len(req.Tools))
		for _, tool := range req.Tools {
			decl := map[string]interface{}{
				"name":        tool.Name,
				"description": tool.Description,
			}
			if tool.Parameters != nil {
				decl["parameters"] = tool.Parameters
			}
			decls = append(decls, decl)
		}
		requestBody["tools"] = []map[string]interface{}{
			{"functionDeclarations": decls},
		}
	}

	return requestBody
}

// streamChunk mirrors the per-chunk JSON of :streamGenerateContent.
type streamChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text         string `json:"text"`
				FunctionCall *struct {
					Name string                 `json:"name"`
					Args map[string]interface{} `json:"args"`
				} `json:"functionCall"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// StreamChat implements a streamed model turn over SSE
// (alt=sse on :streamGenerateContent).
func (p *Provider) StreamChat(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	if p.apiKey == "" {
		return nil, errors.New("google api key not configured")
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	jsonData, err := json.Marshal(p.buildRequestBody(req))
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", p.baseURL, model, p.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		var errorResp map[string]interface{}
		if err := json.Unmarshal(body, &errorResp); err == nil {
			if errorObj, ok := errorResp["error"].(map[string]interface{}); ok {
				return nil, fmt.Errorf("google gemini API error (%d): %v",
					httpResp.StatusCode, errorObj["message"])
			}
		}
		return nil, fmt.Errorf("google gemini API error (%d): %s", httpResp.StatusCode, string(body))
	}

	respChan := make(chan llm.StreamEvent)

	go func() {
		defer httpResp.Body.Close()
		defer close(respChan)

		reader := bufio.NewReader(httpResp.Body)
		finishReason := ""
		totalTokens := 0

		// send never blocks past context cancellation, so an abandoned
		// consumer cannot strand this goroutine.
		send := func(ev llm.StreamEvent) bool {
			select {
			case respChan <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line, err := reader.ReadBytes('\n')
			if err != nil {
				if err != io.EOF {
					send(llm.StreamEvent{Err: err, Done: true, ModelName: model})
					return
				}
				send(llm.StreamEvent{
					FinishReason: finishReason,
					ModelName:    model,
					TokensUsed:   totalTokens,
					Done:         true,
				})
				return
			}

			payload := strings.TrimSpace(string(line))
			if payload == "" || !strings.HasPrefix(payload, "data:") {
				continue
			}
			payload = strings.TrimSpace(strings.TrimPrefix(payload, "data:"))
			if payload == "" || payload == "[DONE]" {
				continue
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				continue
			}

			if chunk.UsageMetadata.TotalTokenCount > 0 {
				totalTokens = chunk.UsageMetadata.TotalTokenCount
			}

			if len(chunk.Candidates) == 0 {
				continue
			}

			candidate := chunk.Candidates[0]
			event := llm.StreamEvent{ModelName: model}
			for _, part := range candidate.Content.Parts {
				if part.FunctionCall != nil {
					event.FunctionCalls = append(event.FunctionCalls, llm.FunctionCall{
						Name: part.FunctionCall.Name,
						Args: part.FunctionCall.Args,
					})
				} else if part.Text != "" {
					event.Text += part.Text
				}
			}

			if candidate.FinishReason != "" {
				finishReason = candidate.FinishReason
			}

			if event.Text != "" || len(event.FunctionCalls) > 0 {
				if !send(event) {
					return
				}
			}
		}
	}()

	return respChan, nil
}
