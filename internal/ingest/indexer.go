// internal/ingest/indexer.go
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/omasuaku/workcode-agent/internal/logging"
	"github.com/omasuaku/workcode-agent/internal/store"
)

// Embedder produces document embeddings for a batch of texts.
// Implemented by services.EmbeddingService.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer drives the full pipeline: extract, split, embed, store.
type Indexer struct {
	Splitter *Splitter
	Embedder Embedder
	Store    *store.VectorStore

	// BatchSize caps how many chunks are embedded per API call.
	BatchSize int
}

// IndexPDF ingests the PDF at path, replacing the store's contents.
func (ix *Indexer) IndexPDF(ctx context.Context, path string) (int, error) {
	logger := logging.L()

	text, err := ExtractPDFText(ctx, path)
	if err != nil {
		return 0, err
	}
	logger.Info("extracted text from PDF",
		zap.String("path", path),
		zap.Int("chars", len(text)))

	pieces := ix.Splitter.Split(text)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("no text chunks produced from %s", path)
	}
	logger.Info("split document", zap.Int("chunks", len(pieces)))

	if err := ix.Store.Clear(ctx); err != nil {
		return 0, fmt.Errorf("failed to clear existing index: %w", err)
	}

	sourceName := filepath.Base(path)
	batchSize := ix.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	total := 0
	for start := 0; start < len(pieces); start += batchSize {
		end := start + batchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		batch := pieces[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}

		vectors, err := ix.Embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("failed to embed batch starting at chunk %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return total, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(vectors), len(batch))
		}

		chunks := make([]store.Chunk, len(batch))
		for i, p := range batch {
			chunks[i] = store.Chunk{
				Content: p.Text,
				Metadata: map[string]string{
					"source":      sourceName,
					"start_index": strconv.Itoa(p.StartIndex),
				},
				Embedding: vectors[i],
			}
		}

		if err := ix.Store.Add(ctx, chunks); err != nil {
			return total, fmt.Errorf("failed to store batch starting at chunk %d: %w", start, err)
		}

		total += len(batch)
		logger.Info("indexed batch", zap.Int("done", total), zap.Int("total", len(pieces)))
	}

	return total, nil
}
