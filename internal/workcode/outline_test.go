// internal/workcode/outline_test.go
package workcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOutlineDirectArticles(t *testing.T) {
	doc := &Document{
		Titles: []Title{{
			Index:    "1",
			Name:     "Conditions de travail",
			Articles: []string{"40", "41", "42"},
		}},
		Articles: map[int]string{},
	}

	lines := RenderOutline(doc)

	require.Len(t, lines, 2)
	assert.Equal(t,
		"Titre 1 : Conditions de travail. Ce titre ne contient pas de chapitres et contient directement 3 article(s) : 40, 41, 42.",
		lines[0])
	assert.Equal(t, "", lines[1], "title blocks end with a blank separator line")
}

func TestRenderOutlineChaptersAndSections(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	lines := RenderOutline(doc)

	assert.Equal(t,
		"Titre 1 : Dispositions générales. Ce titre contient 2 chapitre(s), qui sont :",
		lines[0])
	assert.Equal(t,
		"- Chapitre 1 : Champ d'application. Ce chapitre contient 3 article(s) : 1, 2, 3.",
		lines[1])
	assert.Equal(t,
		"- Chapitre 2 : Contrat de travail. Ce chapitre contient 2 section(s). Au total, ces sections contiennent 3 article(s) : 40, 41, 45.",
		lines[2])
	assert.Equal(t, "  Les sections sont :", lines[3])
	assert.Equal(t,
		"  - Section 1 : Formation du contrat. Cette section contient 2 article(s) : 40, 41.",
		lines[4])
	assert.Equal(t,
		"  - Section 2 : Suspension. Cette section contient 1 article(s) : 45.",
		lines[5])
	assert.Equal(t, "", lines[6])

	assert.Contains(t, lines,
		"Titre 2 : Conditions de travail. Ce titre ne contient pas de chapitres et contient directement 3 article(s) : 60, 61, 62.")
	assert.Contains(t, lines,
		"Titre 3 : (sans nom). Ce titre ne contient ni chapitres ni articles listés.")
}

func TestRenderOutlineChapterPrecedence(t *testing.T) {
	// A title holding both chapters and direct articles only reports
	// the chapter branch.
	doc := &Document{
		Titles: []Title{{
			Index:    "4",
			Name:     "Mixte",
			Chapters: []Chapter{{Index: "1", Name: "Unique", Articles: []string{"9"}}},
			Articles: []string{"1", "2"},
		}},
		Articles: map[int]string{},
	}

	lines := RenderOutline(doc)

	assert.Equal(t, "Titre 4 : Mixte. Ce titre contient 1 chapitre(s), qui sont :", lines[0])
	for _, line := range lines {
		assert.NotContains(t, line, "directement")
	}
}

func TestRenderOutlineEmptyChapter(t *testing.T) {
	doc := &Document{
		Titles: []Title{{
			Index:    "1",
			Name:     "Titre",
			Chapters: []Chapter{{Index: "3", Name: ""}},
		}},
		Articles: map[int]string{},
	}

	lines := RenderOutline(doc)
	assert.Contains(t, lines,
		"- Chapitre 3 : (sans nom). Ce chapitre ne contient ni sections ni articles listés.")
}

func TestRenderOutlineEmptyDocument(t *testing.T) {
	doc := &Document{Articles: map[int]string{}}

	lines := RenderOutline(doc)

	assert.Equal(t, []string{"(Aucune structure trouvée)"}, lines,
		"an empty outline is reported, never an empty slice")
}

func TestRenderOutlineIdempotent(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	first := RenderOutline(doc)
	second := RenderOutline(doc)

	assert.Equal(t, first, second)
}
