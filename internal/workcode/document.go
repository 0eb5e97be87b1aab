// internal/workcode/document.go

// Package workcode implements the hierarchical index over the Code du
// travail outline: a static YAML document describing titles, chapters,
// sections and their article numbers, plus a flat mapping from article
// number to full article text.
//
// The outline and the text mapping are maintained independently in the
// source file: an article number listed in the outline is not
// guaranteed to have a text entry, and vice versa.
package workcode

import (
	"strconv"
	"strings"
)

// Document is the parsed configuration source. It is immutable after
// Load; lookups never mutate it, so a single instance may be shared
// across goroutines.
type Document struct {
	Titles []Title

	// Articles maps article number to full (trimmed) article text.
	// When the source lists the same number twice, the first entry wins.
	Articles map[int]string
}

// Title is a top-level outline container. Chapters take precedence over
// direct articles: when both are populated, rendering and lookup only
// consider the chapters... except that lookup checks a title's direct
// articles before descending into chapters (stored pre-order).
type Title struct {
	Index    string // numeric suffix of the storage key ("title_3" -> "3")
	Name     string
	Chapters []Chapter
	Articles []string // raw scalar values as they appear in the source
}

// Chapter is a mid-level container. Sections take precedence over
// direct articles for rendering.
type Chapter struct {
	Index    string
	Name     string
	Sections []Section
	Articles []string
}

// Section is the leaf container level.
type Section struct {
	Index    string
	Name     string
	Articles []string
}

// unnamed is the placeholder shown for containers without a name.
const unnamed = "(sans nom)"

// displayName returns the container name or the placeholder.
func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return unnamed
	}
	return strings.TrimSpace(name)
}

// FormatArticleNumbers joins article numbers for LLM-friendly output:
// ["1","2","3"] -> "1, 2, 3".
func FormatArticleNumbers(articles []string) string {
	return strings.Join(articles, ", ")
}

// asInt parses an outline article entry as an integer. Entries that do
// not parse are excluded from range computations but still count toward
// a container's raw article count.
func asInt(value string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return n, true
}

// minMaxInt returns the smallest and largest parseable values in the
// list, and false when none parse.
func minMaxInt(values []string) (int, int, bool) {
	found := false
	var lo, hi int
	for _, v := range values {
		n, ok := asInt(v)
		if !ok {
			continue
		}
		if !found {
			lo, hi = n, n
			found = true
			continue
		}
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	return lo, hi, found
}

// containsNumber reports whether the list holds an entry parsing to n.
func containsNumber(values []string, n int) bool {
	for _, v := range values {
		if parsed, ok := asInt(v); ok && parsed == n {
			return true
		}
	}
	return false
}

// collectSectionArticles concatenates all sections' article lists,
// preserving stored order.
func collectSectionArticles(sections []Section) []string {
	var articles []string
	for _, s := range sections {
		articles = append(articles, s.Articles...)
	}
	return articles
}
