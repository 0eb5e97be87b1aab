// internal/store/vector_store.go

// Package store provides the persistent vector index backing the
// retrieval tool. Chunks of the source document are kept in a single
// SQLite file together with their embeddings; similarity search is a
// cosine scan over all rows, which is plenty for a corpus of a few
// thousand chunks.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Chunk is one indexed piece of the source document.
type Chunk struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Embedding []float32         `json:"-"`
}

// SearchResult pairs a chunk with its cosine similarity to the query.
type SearchResult struct {
	Chunk
	Score float64 `json:"score"`
}

// VectorStore persists chunks and answers nearest-neighbour queries.
// Safe for concurrent use; writes happen only during ingestion.
type VectorStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id        TEXT PRIMARY KEY,
	content   TEXT NOT NULL,
	metadata  TEXT NOT NULL DEFAULT '{}',
	embedding BLOB NOT NULL
);
`

// Open opens (creating if needed) the vector store at path.
func Open(path string) (*VectorStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize vector store schema: %w", err)
	}

	return &VectorStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

// Count returns the number of indexed chunks.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// Add stores chunks in one transaction. Chunks without an ID get a
// fresh UUID.
func (s *VectorStore) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO chunks (id, content, metadata, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		id := chunk.ID
		if id == "" {
			id = uuid.NewString()
		}

		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to serialize chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, id, chunk.Content, string(metadata), encodeVector(chunk.Embedding)); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Clear removes all chunks. Used by full re-ingestion.
func (s *VectorStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks`)
	return err
}

// Search returns the k chunks most similar to the query vector,
// ordered by descending cosine similarity.
func (s *VectorStore) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = 2
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, content, metadata, embedding FROM chunks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			id, content, metadataJSON string
			blob                      []byte
		)
		if err := rows.Scan(&id, &content, &metadataJSON, &blob); err != nil {
			return nil, err
		}

		embedding, err := decodeVector(blob)
		if err != nil {
			// Skip undecodable rows instead of failing the query.
			continue
		}

		score := cosineSimilarity(query, embedding)

		var metadata map[string]string
		_ = json.Unmarshal([]byte(metadataJSON), &metadata)

		results = append(results, SearchResult{
			Chunk: Chunk{ID: id, Content: content, Metadata: metadata, Embedding: embedding},
			Score: score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Partial selection sort: corpus sizes here never justify a heap.
	if k > len(results) {
		k = len(results)
	}
	for i := 0; i < k; i++ {
		best := i
		for j := i + 1; j < len(results); j++ {
			if results[j].Score > results[best].Score {
				best = j
			}
		}
		results[i], results[best] = results[best], results[i]
	}

	return results[:k], nil
}

// encodeVector serializes an embedding as little-endian float32.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector is the inverse of encodeVector.
func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}

// cosineSimilarity between two vectors; zero when lengths differ or
// either vector has no magnitude.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
