// internal/services/workcode_service_test.go
package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/omasuaku/workcode-agent/internal/errors"
)

func TestWorkCodeServiceStructure(t *testing.T) {
	svc := NewWorkCodeService(writeAgentTestYAML(t))

	outline, err := svc.Structure()
	require.NoError(t, err)
	assert.Contains(t, outline, "Titre 1 : Dispositions générales. Ce titre contient 1 chapitre(s), qui sont :")
	assert.Contains(t, outline, "- Chapitre 1 : Du champ d'application.")
}

func TestWorkCodeServiceArticleLookup(t *testing.T) {
	svc := NewWorkCodeService(writeAgentTestYAML(t))

	response, err := svc.ArticleByNumber(2)
	require.NoError(t, err)
	assert.Contains(t, response, "Article 2")
	assert.Contains(t, response, "Les dispositions du présent code sont d'ordre public.")

	response, err = svc.ArticleByNumber(99)
	require.NoError(t, err)
	assert.Equal(t, "Article 99 not found in data.yaml.", response)
}

func TestWorkCodeServiceMissingFile(t *testing.T) {
	svc := NewWorkCodeService(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := svc.Structure()
	require.Error(t, err)
	assert.True(t, apperrors.IsLoadError(err))
}

func TestWorkCodeServiceReloadsOnChange(t *testing.T) {
	path := writeAgentTestYAML(t)
	svc := NewWorkCodeService(path)

	_, err := svc.ArticleByNumber(1)
	require.NoError(t, err)

	updated := agentTestYAML + `  - article_3: "Nul ne peut renoncer aux droits du présent code."
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	// Force a distinct mtime on coarse-grained filesystems.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	response, err := svc.ArticleByNumber(3)
	require.NoError(t, err)
	assert.Contains(t, response, "Nul ne peut renoncer aux droits du présent code.")
}
