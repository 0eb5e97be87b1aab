// internal/services/workcode_service.go

// Package services wires the domain layers together: document lookup,
// embeddings, retrieval, LLM access and the agent loop on top.
package services

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/omasuaku/workcode-agent/internal/errors"
	"github.com/omasuaku/workcode-agent/internal/logging"
	"github.com/omasuaku/workcode-agent/internal/workcode"
)

// WorkCodeService serves the structural tools over the labor code
// YAML file. The parsed document is cached and reloaded only when the
// file's modification time or size changes, so editing data.yaml in
// place takes effect without a restart.
type WorkCodeService struct {
	path string

	mu      sync.RWMutex
	doc     *workcode.Document
	modTime time.Time
	size    int64
}

// NewWorkCodeService creates a service reading from path. The file is
// loaded lazily on first use.
func NewWorkCodeService(path string) *WorkCodeService {
	return &WorkCodeService{path: path}
}

// document returns the cached document, reloading when the file on
// disk changed.
func (s *WorkCodeService) document() (*workcode.Document, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, apperrors.NewLoadError(fmt.Sprintf("failed to stat work code source %s", s.path), err)
	}

	s.mu.RLock()
	doc := s.doc
	fresh := doc != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size
	s.mu.RUnlock()
	if fresh {
		return doc, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have reloaded while we waited.
	if s.doc != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.doc, nil
	}

	doc, err = workcode.Load(s.path)
	if err != nil {
		return nil, err
	}

	s.doc = doc
	s.modTime = info.ModTime()
	s.size = info.Size()

	logging.L().Info("loaded work code document",
		zap.String("path", s.path),
		zap.Int("titles", len(doc.Titles)),
		zap.Int("articles", len(doc.Articles)))

	return doc, nil
}

// Structure returns the natural-language outline of the code, one
// block per title, ready to hand to the model.
func (s *WorkCodeService) Structure() (string, error) {
	doc, err := s.document()
	if err != nil {
		return "", err
	}
	return strings.Join(workcode.RenderOutline(doc), "\n"), nil
}

// ArticleByNumber returns the text and structural context of one
// article. Lookup failures come back as the response string, not as
// an error, so the model can relay them.
func (s *WorkCodeService) ArticleByNumber(number int) (string, error) {
	doc, err := s.document()
	if err != nil {
		return "", err
	}
	return workcode.ArticleByNumber(doc, number), nil
}
