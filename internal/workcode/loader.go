// internal/workcode/loader.go
package workcode

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/omasuaku/workcode-agent/internal/errors"
)

// Load reads and parses the configuration source. It fails with a load
// error only when the file is unreadable or the top level is not a
// mapping; malformed nested entries are skipped silently.
//
// Load re-parses on every call and has no internal cache. Reloads are
// idempotent, so callers may memoize the result (see services.WorkCodeService).
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewLoadError(fmt.Sprintf("failed to read work code source %s", path), err)
	}
	return Parse(data)
}

// Parse builds a Document from raw YAML.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, apperrors.NewLoadError("work code source is not valid YAML", err)
	}

	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, apperrors.NewLoadError("work code source is not a top-level mapping", nil)
	}

	doc := &Document{Articles: make(map[int]string)}

	top := root.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]
		switch key.Value {
		case "titles":
			doc.Titles = parseTitles(value)
		case "articles":
			doc.Articles = parseArticleTexts(value)
		}
	}

	return doc, nil
}

// singleKeyEntry unwraps the source's single-key-mapping convention
// ({"title_3": {...}}). Entries that are not well-formed single-key
// mappings report ok=false and are skipped by callers.
func singleKeyEntry(node *yaml.Node) (key string, payload *yaml.Node, ok bool) {
	if node == nil || node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return "", nil, false
	}
	return node.Content[0].Value, node.Content[1], true
}

// suffixNumber extracts the display index from a storage key:
// "chapter_12" -> "12". Keys without a separator yield the whole key.
func suffixNumber(key string) string {
	if i := strings.LastIndex(key, "_"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// mappingValue returns the scalar value for a key inside a mapping
// payload, or "" when absent.
func mappingValue(payload *yaml.Node, key string) string {
	if payload == nil || payload.Kind != yaml.MappingNode {
		return ""
	}
	for i := 0; i+1 < len(payload.Content); i += 2 {
		if payload.Content[i].Value == key && payload.Content[i+1].Kind == yaml.ScalarNode {
			return payload.Content[i+1].Value
		}
	}
	return ""
}

// mappingSequence returns the sequence node for a key inside a mapping
// payload, or nil when absent or not a sequence.
func mappingSequence(payload *yaml.Node, key string) *yaml.Node {
	if payload == nil || payload.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(payload.Content); i += 2 {
		if payload.Content[i].Value == key && payload.Content[i+1].Kind == yaml.SequenceNode {
			return payload.Content[i+1]
		}
	}
	return nil
}

// parseArticleList extracts raw article numbers from a sequence node.
// Non-scalar entries are filtered here so traversal never has to
// key-sniff (the dynamic source occasionally carries junk rows).
func parseArticleList(seq *yaml.Node) []string {
	if seq == nil {
		return nil
	}
	var out []string
	for _, item := range seq.Content {
		if item.Kind == yaml.ScalarNode {
			out = append(out, item.Value)
		}
	}
	return out
}

func parseTitles(seq *yaml.Node) []Title {
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil
	}
	var titles []Title
	for _, item := range seq.Content {
		key, payload, ok := singleKeyEntry(item)
		if !ok {
			continue
		}
		titles = append(titles, Title{
			Index:    suffixNumber(key),
			Name:     strings.TrimSpace(mappingValue(payload, "name")),
			Chapters: parseChapters(mappingSequence(payload, "chapters")),
			Articles: parseArticleList(mappingSequence(payload, "articles")),
		})
	}
	return titles
}

func parseChapters(seq *yaml.Node) []Chapter {
	if seq == nil {
		return nil
	}
	var chapters []Chapter
	for _, item := range seq.Content {
		key, payload, ok := singleKeyEntry(item)
		if !ok {
			continue
		}
		chapters = append(chapters, Chapter{
			Index:    suffixNumber(key),
			Name:     strings.TrimSpace(mappingValue(payload, "name")),
			Sections: parseSections(mappingSequence(payload, "sections")),
			Articles: parseArticleList(mappingSequence(payload, "articles")),
		})
	}
	return chapters
}

func parseSections(seq *yaml.Node) []Section {
	if seq == nil {
		return nil
	}
	var sections []Section
	for _, item := range seq.Content {
		key, payload, ok := singleKeyEntry(item)
		if !ok {
			continue
		}
		sections = append(sections, Section{
			Index:    suffixNumber(key),
			Name:     strings.TrimSpace(mappingValue(payload, "name")),
			Articles: parseArticleList(mappingSequence(payload, "articles")),
		})
	}
	return sections
}

// parseArticleTexts builds the flat article-number -> text mapping from
// the source's `articles` list of {"article_<n>": "..."} entries. The
// first entry for a number wins.
func parseArticleTexts(seq *yaml.Node) map[int]string {
	texts := make(map[int]string)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return texts
	}
	for _, item := range seq.Content {
		key, payload, ok := singleKeyEntry(item)
		if !ok {
			continue
		}
		n, ok := asInt(suffixNumber(key))
		if !ok {
			continue
		}
		if payload.Kind != yaml.ScalarNode {
			continue
		}
		if _, exists := texts[n]; exists {
			continue
		}
		texts[n] = strings.TrimSpace(payload.Value)
	}
	return texts
}
