// internal/workcode/outline.go
package workcode

import "fmt"

// RenderOutline builds a rich natural-language outline of the work code
// for an LLM. Output is one line per container plus a blank separator
// line after each title block:
//
//   - titles, with chapter count or direct article count,
//   - chapters, with article count and the explicit article numbers,
//   - sections when present, with the same detail.
//
// Chapters take precedence over a title's direct articles, sections
// over a chapter's. A document without titles yields the single literal
// "(Aucune structure trouvée)" line, never an empty slice.
//
// RenderOutline is a pure function of its input: identical documents
// produce identical output.
func RenderOutline(doc *Document) []string {
	var outline []string

	for _, title := range doc.Titles {
		titleName := displayName(title.Name)

		switch {
		case len(title.Chapters) > 0:
			outline = append(outline, fmt.Sprintf(
				"Titre %s : %s. Ce titre contient %d chapitre(s), qui sont :",
				title.Index, titleName, len(title.Chapters)))
		case len(title.Articles) > 0:
			outline = append(outline, fmt.Sprintf(
				"Titre %s : %s. Ce titre ne contient pas de chapitres et contient directement %d article(s) : %s.",
				title.Index, titleName, len(title.Articles), FormatArticleNumbers(title.Articles)))
			outline = append(outline, "")
			continue
		default:
			outline = append(outline, fmt.Sprintf(
				"Titre %s : %s. Ce titre ne contient ni chapitres ni articles listés.",
				title.Index, titleName))
			outline = append(outline, "")
			continue
		}

		for _, chapter := range title.Chapters {
			outline = append(outline, renderChapter(chapter)...)
		}

		outline = append(outline, "")
	}

	if len(outline) == 0 {
		return []string{"(Aucune structure trouvée)"}
	}
	return outline
}

func renderChapter(chapter Chapter) []string {
	var lines []string
	chapterName := displayName(chapter.Name)

	switch {
	case len(chapter.Sections) > 0:
		sectionArticles := collectSectionArticles(chapter.Sections)
		lines = append(lines, fmt.Sprintf(
			"- Chapitre %s : %s. Ce chapitre contient %d section(s). Au total, ces sections contiennent %d article(s) : %s.",
			chapter.Index, chapterName, len(chapter.Sections),
			len(sectionArticles), FormatArticleNumbers(sectionArticles)))

		lines = append(lines, "  Les sections sont :")
		for _, section := range chapter.Sections {
			lines = append(lines, fmt.Sprintf(
				"  - Section %s : %s. Cette section contient %d article(s) : %s.",
				section.Index, displayName(section.Name),
				len(section.Articles), FormatArticleNumbers(section.Articles)))
		}
	case len(chapter.Articles) > 0:
		lines = append(lines, fmt.Sprintf(
			"- Chapitre %s : %s. Ce chapitre contient %d article(s) : %s.",
			chapter.Index, chapterName, len(chapter.Articles), FormatArticleNumbers(chapter.Articles)))
	default:
		lines = append(lines, fmt.Sprintf(
			"- Chapitre %s : %s. Ce chapitre ne contient ni sections ni articles listés.",
			chapter.Index, chapterName))
	}

	return lines
}
