// cmd/ingest/main.go

// ingest builds the retrieval index: it downloads or opens the labor
// code PDF, splits it into overlapping chunks, embeds them and writes
// the result into the SQLite vector store the server queries.
package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/omasuaku/workcode-agent/internal/config"
	"github.com/omasuaku/workcode-agent/internal/ingest"
	"github.com/omasuaku/workcode-agent/internal/logging"
	"github.com/omasuaku/workcode-agent/internal/services"
	"github.com/omasuaku/workcode-agent/internal/store"
)

func main() {
	var (
		source  = flag.String("source", "", "PDF to index: local path or http(s) URL")
		dbPath  = flag.String("db", "", "vector store path (defaults to VECTOR_DB from the environment)")
		chunk   = flag.Int("chunk", 1000, "chunk size in characters")
		overlap = flag.Int("overlap", 200, "overlap between consecutive chunks")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if _, err := logging.Init(cfg.DebugMode); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logging.Sync()
	logger := logging.L()

	if *source == "" {
		logger.Fatal("missing -source: pass the labor code PDF path or URL")
	}
	if *dbPath == "" {
		*dbPath = cfg.VectorDB
	}

	ctx := context.Background()

	path, err := ingest.FetchSource(ctx, *source, os.TempDir())
	if err != nil {
		logger.Fatal("failed to fetch source document", zap.Error(err))
	}

	vectorStore, err := store.Open(*dbPath)
	if err != nil {
		logger.Fatal("failed to open vector store", zap.Error(err))
	}
	defer vectorStore.Close()

	embedder, err := services.NewEmbeddingService(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		logger.Fatal("failed to initialize embeddings", zap.Error(err))
	}

	indexer := &ingest.Indexer{
		Splitter: ingest.NewSplitter(*chunk, *overlap),
		Embedder: embedder,
		Store:    vectorStore,
	}

	total, err := indexer.IndexPDF(ctx, path)
	if err != nil {
		logger.Fatal("ingestion failed", zap.Int("indexed", total), zap.Error(err))
	}

	logger.Info("ingestion complete",
		zap.String("db", *dbPath),
		zap.Int("chunks", total))
}
