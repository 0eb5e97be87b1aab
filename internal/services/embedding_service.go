// internal/services/embedding_service.go
package services

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// EmbeddingService generates embeddings through the Gemini API. Query
// and document embeddings use the retrieval-specific task types so
// questions and corpus chunks land in compatible spaces.
type EmbeddingService struct {
	client *genai.Client
	model  string
}

// NewEmbeddingService creates an embedding client for the given model.
// An empty API key is tolerated so the server can boot degraded; the
// embed calls themselves fail until a key is configured.
func NewEmbeddingService(ctx context.Context, apiKey, model string) (*EmbeddingService, error) {
	if model == "" {
		model = "gemini-embedding-001"
	}
	if apiKey == "" {
		return &EmbeddingService{model: model}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	return &EmbeddingService{client: client, model: model}, nil
}

// EmbedQuery embeds a user question for similarity search.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embed(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds corpus chunks for indexing.
func (s *EmbeddingService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return s.embed(ctx, texts, "RETRIEVAL_DOCUMENT")
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	if s.client == nil {
		return nil, fmt.Errorf("embedding API key not configured")
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := s.client.Models.EmbedContent(ctx,
		s.model,
		contents,
		&genai.EmbedContentConfig{TaskType: task},
	)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}
