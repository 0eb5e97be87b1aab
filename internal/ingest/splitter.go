// internal/ingest/splitter.go

// Package ingest turns the source PDF into embedded chunks in the
// vector store. It runs offline, from cmd/ingest, never at serve time.
package ingest

import "strings"

// Splitter cuts long text into overlapping chunks. It tries the
// separators in order, preferring paragraph breaks over line breaks
// over spaces, and only falls back to a hard character cut when a
// single run of text has no separator at all.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// Piece is one chunk of the source text together with the byte offset
// at which it starts in the original document.
type Piece struct {
	Text       string
	StartIndex int
}

// NewSplitter returns a splitter with the given chunk size and
// overlap, using paragraph/line/space separators.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
		Separators:   []string{"\n\n", "\n", " ", ""},
	}
}

// fragment is a half-open byte range into the source text.
type fragment struct {
	start int
	end   int
}

// Split cuts text into chunks of at most ChunkSize bytes with up to
// ChunkOverlap bytes of overlap between consecutive chunks. Every
// chunk is a (trimmed) substring of the source, so separators inside
// a chunk are preserved and StartIndex is always exact.
func (s *Splitter) Split(text string) []Piece {
	return s.merge(text, s.splitRecursive(text, 0, s.Separators))
}

// splitRecursive breaks text into fragments no larger than ChunkSize,
// splitting on the first separator present and recursing into
// oversized parts with the remaining separators. offset is the byte
// position of text within the original source; fragments carry
// source-relative ranges.
func (s *Splitter) splitRecursive(text string, offset int, separators []string) []fragment {
	if len(text) == 0 {
		return nil
	}
	if len(text) <= s.ChunkSize {
		return []fragment{{start: offset, end: offset + len(text)}}
	}

	separator := ""
	rest := separators
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var frags []fragment
	if separator == "" {
		// No separator left: hard cut.
		for start := 0; start < len(text); start += s.ChunkSize {
			end := start + s.ChunkSize
			if end > len(text) {
				end = len(text)
			}
			frags = append(frags, fragment{start: offset + start, end: offset + end})
		}
		return frags
	}

	pos := 0
	for _, part := range strings.Split(text, separator) {
		if part != "" {
			if len(part) <= s.ChunkSize {
				frags = append(frags, fragment{start: offset + pos, end: offset + pos + len(part)})
			} else {
				frags = append(frags, s.splitRecursive(part, offset+pos, rest)...)
			}
		}
		pos += len(part) + len(separator)
	}
	return frags
}

// merge packs consecutive fragments into chunks close to ChunkSize.
// A chunk spans from its first fragment's start to its last
// fragment's end in the source, so whatever separated the fragments
// stays in the chunk text. The next chunk restarts at the earliest
// fragment within ChunkOverlap bytes of the previous chunk's end.
func (s *Splitter) merge(text string, frags []fragment) []Piece {
	var pieces []Piece

	i := 0
	for i < len(frags) {
		start := frags[i].start
		j := i
		for j+1 < len(frags) && frags[j+1].end-start <= s.ChunkSize {
			j++
		}
		end := frags[j].end

		raw := text[start:end]
		chunk := strings.TrimSpace(raw)
		if chunk != "" {
			pieces = append(pieces, Piece{
				Text:       chunk,
				StartIndex: start + strings.Index(raw, chunk),
			})
		}

		if j+1 >= len(frags) {
			break
		}

		// Overlap carry, always advancing past i so merging terminates.
		next := j + 1
		for k := i + 1; k <= j; k++ {
			if end-frags[k].start <= s.ChunkOverlap {
				next = k
				break
			}
		}
		i = next
	}

	return pieces
}
