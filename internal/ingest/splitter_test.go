// internal/ingest/splitter_test.go
package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertExactOffsets checks that every piece is a substring of the
// source at its reported start index and that starts strictly advance.
func assertExactOffsets(t *testing.T, text string, pieces []Piece) {
	t.Helper()
	for i, p := range pieces {
		require.Equal(t, p.Text, text[p.StartIndex:p.StartIndex+len(p.Text)],
			"chunk %d is not a substring of the source at its start index", i)
		if i > 0 {
			assert.Greater(t, p.StartIndex, pieces[i-1].StartIndex,
				"start index did not advance at chunk %d", i)
		}
	}
}

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(1000, 200)
	pieces := s.Split("Article 1\n\nLe présent code régit les relations de travail.")
	require.Len(t, pieces, 1)
	assert.Equal(t, 0, pieces[0].StartIndex)
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(100, 20)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Une phrase sur le droit du travail congolais.\n\n")
	}
	text := b.String()

	pieces := s.Split(text)
	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		assert.LessOrEqual(t, len(p.Text), 100)
		assert.NotEmpty(t, strings.TrimSpace(p.Text))
	}
	assertExactOffsets(t, text, pieces)
}

func TestSplitStartIndexesAdvance(t *testing.T) {
	t.Run("space separated", func(t *testing.T) {
		s := NewSplitter(80, 10)
		text := strings.Repeat("chapitre premier des obligations. ", 20)

		pieces := s.Split(text)
		require.Greater(t, len(pieces), 1)
		assertExactOffsets(t, text, pieces)
	})

	t.Run("paragraph separated", func(t *testing.T) {
		s := NewSplitter(80, 10)
		text := strings.Repeat("Une disposition du code du travail.\n\n", 20)

		pieces := s.Split(text)
		require.Greater(t, len(pieces), 1)
		assertExactOffsets(t, text, pieces)
	})

	t.Run("line separated", func(t *testing.T) {
		s := NewSplitter(60, 10)
		text := strings.Repeat("Article suivant du même chapitre.\n", 15)

		pieces := s.Split(text)
		require.Greater(t, len(pieces), 1)
		assertExactOffsets(t, text, pieces)
	})
}

func TestSplitPreservesParagraphBreaks(t *testing.T) {
	s := NewSplitter(80, 10)

	// Two paragraphs fit in one chunk; the break between them must
	// survive in the chunk text.
	text := strings.Repeat("Une disposition du code du travail.\n\n", 6)
	pieces := s.Split(text)
	require.NotEmpty(t, pieces)
	assert.Contains(t, pieces[0].Text, "\n\n")
	assertExactOffsets(t, text, pieces)
}

func TestSplitOverlapCarriesTail(t *testing.T) {
	s := NewSplitter(40, 15)

	text := strings.Repeat("un deux trois quatre cinq six sept huit ", 10)
	pieces := s.Split(text)
	require.Greater(t, len(pieces), 1)
	assertExactOffsets(t, text, pieces)

	// Consecutive chunks may share up to ChunkOverlap bytes.
	for i := 1; i < len(pieces); i++ {
		prevEnd := pieces[i-1].StartIndex + len(pieces[i-1].Text)
		assert.LessOrEqual(t, prevEnd-pieces[i].StartIndex, 15,
			"overlap exceeds the configured maximum at chunk %d", i)
	}
}

func TestSplitNoSeparators(t *testing.T) {
	s := NewSplitter(50, 10)

	text := strings.Repeat("x", 175)
	pieces := s.Split(text)
	require.NotEmpty(t, pieces)
	for _, p := range pieces {
		assert.LessOrEqual(t, len(p.Text), 50)
	}
	assertExactOffsets(t, text, pieces)
}

func TestSplitEmpty(t *testing.T) {
	s := NewSplitter(1000, 200)
	assert.Empty(t, s.Split(""))
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	assert.Equal(t, 1000, s.ChunkSize)
	assert.Equal(t, 200, s.ChunkOverlap)
}
