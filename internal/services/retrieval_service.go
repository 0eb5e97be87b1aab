// internal/services/retrieval_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/omasuaku/workcode-agent/internal/store"
)

// QueryEmbedder embeds one question for similarity search.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// RetrievalService answers the retrieve_context tool: embed the query,
// find the nearest chunks, and serialize them for the model.
type RetrievalService struct {
	Embedder QueryEmbedder
	Store    *store.VectorStore

	// TopK is how many chunks get returned per query.
	TopK int
}

// NewRetrievalService creates a retrieval service returning the two
// best chunks per query.
func NewRetrievalService(embedder QueryEmbedder, vs *store.VectorStore) *RetrievalService {
	return &RetrievalService{Embedder: embedder, Store: vs, TopK: 2}
}

// RetrieveContext returns the matched chunks formatted as one block:
//
//	Source: map[...]
//	Content: ...
//
// with a blank line between chunks.
func (s *RetrievalService) RetrieveContext(ctx context.Context, query string) (string, error) {
	vector, err := s.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.Store.Search(ctx, vector, s.TopK)
	if err != nil {
		return "", fmt.Errorf("failed to search vector store: %w", err)
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("Source: %v\nContent: %s", r.Metadata, r.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}
