package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscover_FindsDocsAndAssets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "# Forside\n")
	writeFile(t, root, "api/sag.md", "---\ntitle: Sag\n---\nbody\n")
	writeFile(t, root, "api/images/model.png", "png-bytes")
	writeFile(t, root, "notes.txt", "not published")

	tree, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, tree.Documents, 2)
	require.Len(t, tree.Assets, 1)
	require.Equal(t, "api/images/model.png", tree.Assets[0].RelativePath)
}

func TestDiscover_SkipsHiddenAndEditorFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "api/sag.md", "# Sag\n")
	writeFile(t, root, ".git/config.md", "# not docs\n")
	writeFile(t, root, "api/.draft.md", "# hidden\n")
	writeFile(t, root, "api/sag.md.swp", "swap")
	writeFile(t, root, "api/#sag.md#", "emacs")

	tree, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, tree.Documents, 1)
	require.Empty(t, tree.Assets)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestSectionsAndLookup(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "# Forside\n")
	writeFile(t, root, "api/sag.md", "# Sag\n")
	writeFile(t, root, "api/aktor.md", "# Aktør\n")
	writeFile(t, root, "compliance/index.md", "# GDPR\n")

	tree, err := Discover(root)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"api", "compliance"}, tree.Sections())

	doc := tree.ByRelativePath("api/sag.md")
	require.NotNil(t, doc)
	require.Equal(t, "api", doc.Section)
	require.Nil(t, tree.ByRelativePath("api/missing.md"))
}
