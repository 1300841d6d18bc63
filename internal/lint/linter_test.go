package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

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

func issuesForRule(result *Result, rule string) []Issue {
	var out []Issue
	for _, issue := range result.Issues {
		if issue.Rule == rule {
			out = append(out, issue)
		}
	}
	return out
}

func TestRun_CleanTree(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"index.md":   "---\ntitle: Forside\n---\n# Forside\n\nSe [Sag](api/sag.md).\n",
		"api/sag.md": "---\ntitle: Sag\n---\n# Sag\n",
	})

	result := NewLinter().Run(tree)
	require.Empty(t, result.Issues)
	require.Equal(t, 2, result.FilesTotal)
}

func TestFilenameRule(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"api/Sag Og Aktør.md": "---\ntitle: x\n---\nbody\n",
	})

	issues := issuesForRule(NewLinter().Run(tree), "filename-conventions")
	require.Len(t, issues, 2) // uppercase + spaces
	for _, issue := range issues {
		require.Equal(t, SeverityError, issue.Severity)
	}
}

func TestFrontmatterTitleRule(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"a.md": "# Uden frontmatter\n",
		"b.md": "---\nweight: 2\n---\n# Uden titel\n",
		"c.md": "---\ntitle: Med titel\n---\nok\n",
	})

	issues := issuesForRule(NewLinter().Run(tree), "frontmatter-title")
	require.Len(t, issues, 2)
}

func TestEncodingRule(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"damaged.md": "---\ntitle: x\n---\nAkt�r og M�de\n",
	})

	issues := issuesForRule(NewLinter().Run(tree), "encoding-artifacts")
	require.NotEmpty(t, issues)
	require.Equal(t, SeverityError, issues[0].Severity)
}

func TestCodeSamplesRule_LineIncludesFrontmatterOffset(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"api/sag.md": "---\ntitle: Sag\n---\n\n```bash\ncurl \"https://oda.ft.dk/api/Sag?$top=1\"\n```\n",
	})

	issues := issuesForRule(NewLinter().Run(tree), "code-samples")
	require.Len(t, issues, 1)
	require.Equal(t, 6, issues[0].Line)
}

func TestRelativeLinks_BrokenTarget(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"index.md": "---\ntitle: x\n---\nSe [Aktør](api/aktoer.md).\n",
	})

	issues := issuesForRule(NewLinter().Run(tree), "relative-links")
	require.Len(t, issues, 1)
	require.Contains(t, issues[0].Message, "api/aktoer.md")
	require.Equal(t, SeverityError, issues[0].Severity)
}

func TestRelativeLinks_ValidTargetsAndAssets(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"index.md":        "---\ntitle: x\n---\n[Sag](api/sag.md) ![d](api/model.png)\n",
		"api/sag.md":      "---\ntitle: Sag\n---\n# Sag\n## Felter\n",
		"api/model.png":   "png",
		"api/aktoer.md":   "---\ntitle: Aktør\n---\n[tilbage](../index.md) [felter](sag.md#felter)\n",
	})

	issues := issuesForRule(NewLinter().Run(tree), "relative-links")
	require.Empty(t, issues)
}

func TestRelativeLinks_MissingAnchor(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"index.md":   "---\ntitle: x\n---\n[felter](api/sag.md#felter-mangler)\n",
		"api/sag.md": "---\ntitle: Sag\n---\n# Sag\n## Felter\n",
	})

	issues := issuesForRule(NewLinter().Run(tree), "relative-links")
	require.Len(t, issues, 1)
	require.Equal(t, SeverityWarning, issues[0].Severity)
	require.Contains(t, issues[0].Message, "felter-mangler")
}

func TestRelativeLinks_EscapingTreeIsError(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"index.md": "---\ntitle: x\n---\n[op](../secrets.md)\n",
	})

	issues := issuesForRule(NewLinter().Run(tree), "relative-links")
	require.Len(t, issues, 1)
	require.Contains(t, issues[0].Message, "escapes")
}

func TestRelativeLinks_ExternalIgnored(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"index.md": "---\ntitle: x\n---\n[api](https://oda.ft.dk/) [mail](mailto:folketinget@ft.dk)\n",
	})

	issues := issuesForRule(NewLinter().Run(tree), "relative-links")
	require.Empty(t, issues)
}
