// internal/workcode/lookup.go
package workcode

import (
	"fmt"
	"strings"
)

// containerRef names a located outline container level.
type containerRef struct {
	Index string
	Name  string
}

// location is the structural context found for an article number. A
// zero location (all levels nil) means the number appears in no outline
// container; the article text is still returned in that case.
type location struct {
	Title   *containerRef
	Chapter *containerRef
	Section *containerRef

	// Articles is the raw article list of the container that matched.
	Articles []string
}

// ArticleByNumber retrieves an article by number, returning its full
// text and structural context as a single LLM-friendly string.
//
// It always returns a string, never an error: invalid input and missing
// data become descriptive messages the agent can surface directly.
func ArticleByNumber(doc *Document, n int) string {
	if n <= 0 {
		return "Invalid article_number: expected a positive integer."
	}

	text := doc.Articles[n]
	if text == "" {
		return fmt.Sprintf("Article %d not found in data.yaml.", n)
	}

	loc := findArticleLocation(doc, n)

	parts := []string{
		fmt.Sprintf("Article %d", n),
		"",
		"Texte :",
		text,
		"",
		"Contexte (structure) :",
	}

	if loc.Title != nil {
		parts = append(parts, fmt.Sprintf("- Titre %s : %s", loc.Title.Index, loc.Title.Name))
	}
	if loc.Chapter != nil {
		parts = append(parts, fmt.Sprintf("- Chapitre %s : %s", loc.Chapter.Index, loc.Chapter.Name))
	}
	if loc.Section != nil {
		parts = append(parts, fmt.Sprintf("- Section %s : %s", loc.Section.Index, loc.Section.Name))
	}

	if len(loc.Articles) > 0 {
		// Count is the raw list length; the range only covers values
		// that parse as integers. The two are independent statistics.
		lo, hi, _ := minMaxInt(loc.Articles)
		parts = append(parts, fmt.Sprintf(
			"- Le même bloc contient %d article(s) (plage %d à %d) : %s.",
			len(loc.Articles), lo, hi, FormatArticleNumbers(loc.Articles)))
	}

	return strings.Join(parts, "\n")
}

// findArticleLocation walks the outline in pre-order (titles in stored
// order, then each title's direct articles, then its chapters' direct
// articles, then their sections) and returns the first container whose
// article list holds n. The search stops on the first match; duplicate
// placements elsewhere in the outline are ignored.
func findArticleLocation(doc *Document, n int) location {
	for ti := range doc.Titles {
		title := &doc.Titles[ti]
		titleRef := &containerRef{Index: title.Index, Name: displayName(title.Name)}

		// Some titles hold articles directly.
		if containsNumber(title.Articles, n) {
			return location{Title: titleRef, Articles: title.Articles}
		}

		for ci := range title.Chapters {
			chapter := &title.Chapters[ci]
			chapterRef := &containerRef{Index: chapter.Index, Name: displayName(chapter.Name)}

			if containsNumber(chapter.Articles, n) {
				return location{Title: titleRef, Chapter: chapterRef, Articles: chapter.Articles}
			}

			for si := range chapter.Sections {
				section := &chapter.Sections[si]
				if containsNumber(section.Articles, n) {
					return location{
						Title:    titleRef,
						Chapter:  chapterRef,
						Section:  &containerRef{Index: section.Index, Name: displayName(section.Name)},
						Articles: section.Articles,
					}
				}
			}
		}
	}

	return location{}
}
