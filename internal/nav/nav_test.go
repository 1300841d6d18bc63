package nav

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odadocs/odadoc/internal/config"
	"github.com/odadocs/odadoc/internal/docs"
)

func discoverFixture(t *testing.T, files map[string]string) *docs.Tree {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	tree, err := docs.Discover(root)
	require.NoError(t, err)
	return tree
}

func TestBuild_ResolvesTitlesAndURLs(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"index.md":   "---\ntitle: Forside\n---\nvelkommen\n",
		"api/sag.md": "# Sager\n",
	})

	sections, problems := Build([]config.NavSection{
		{Section: "Start", Pages: []string{"index.md", "api/sag.md"}},
	}, tree)

	require.Empty(t, problems)
	require.Len(t, sections, 1)
	require.Equal(t, "Start", sections[0].Label)
	require.Equal(t, []Item{
		{Title: "Forside", URL: "/", RelativePath: "index.md"},
		{Title: "Sager", URL: "/api/sag/", RelativePath: "api/sag.md"},
	}, sections[0].Items)
}

func TestBuild_ReportsMissingAndOrphanPages(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"index.md":       "# Forside\n",
		"api/stemme.md":  "# Stemme\n",
		"api/dokument.md": "# Dokument\n",
	})

	_, problems := Build([]config.NavSection{
		{Section: "Start", Pages: []string{"index.md", "api/missing.md"}},
		{Section: "API", Pages: []string{"api/stemme.md"}},
	}, tree)

	kinds := map[string][]string{}
	for _, p := range problems {
		kinds[p.Kind] = append(kinds[p.Kind], p.Page)
	}
	require.Equal(t, []string{"api/missing.md"}, kinds["missing-page"])
	require.Equal(t, []string{"api/dokument.md"}, kinds["orphan-page"])
}

func TestFallback_GroupsByTopLevelDirectory(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"index.md":          "# Forside\n",
		"api/sag.md":        "# Sag\n",
		"api/aktoer.md":     "# Aktør\n",
		"compliance/gdpr.md": "# GDPR\n",
	})

	sections := Fallback(tree)
	labels := make([]string, 0, len(sections))
	for _, s := range sections {
		labels = append(labels, s.Label)
	}
	require.ElementsMatch(t, []string{"Overview", "api", "compliance"}, labels)
}
