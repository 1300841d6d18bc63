package lint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFix_RepairsEncodingDamage(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"damaged.md": "---\ntitle: Akt�r\n---\n# Akt�r\n",
		"clean.md":   "---\ntitle: Sag\n---\n# Sag\n",
	})

	var out bytes.Buffer
	fixer := NewFixer(&out)
	result, err := fixer.Fix(tree, Options{Yes: true})
	require.NoError(t, err)
	require.Equal(t, 1, result.Applied)
	require.Len(t, result.Planned, 1)
	require.Equal(t, "damaged.md", result.Planned[0].RelativePath)

	fixed, err := os.ReadFile(filepath.Join(tree.Root, "damaged.md"))
	require.NoError(t, err)
	require.Contains(t, string(fixed), "Aktør")
	require.NotContains(t, string(fixed), "�")
}

func TestFix_AddsTitleFromHeading(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"api/afstemning.md": "---\nweight: 3\n---\n# Afstemninger i salen\n",
	})

	var out bytes.Buffer
	result, err := NewFixer(&out).Fix(tree, Options{Yes: true})
	require.NoError(t, err)
	require.Equal(t, 1, result.Applied)

	fixed, err := os.ReadFile(filepath.Join(tree.Root, "api/afstemning.md"))
	require.NoError(t, err)
	require.Contains(t, string(fixed), "title: Afstemninger i salen")
	require.Contains(t, string(fixed), "weight: 3")
}

func TestFix_DryRunWritesNothing(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"damaged.md": "---\ntitle: x\n---\nM�de\n",
	})
	before, err := os.ReadFile(filepath.Join(tree.Root, "damaged.md"))
	require.NoError(t, err)

	var out bytes.Buffer
	result, err := NewFixer(&out).Fix(tree, Options{DryRun: true})
	require.NoError(t, err)
	require.Zero(t, result.Applied)
	require.Equal(t, 1, result.Skipped)
	require.Contains(t, out.String(), "Dry run")

	after, err := os.ReadFile(filepath.Join(tree.Root, "damaged.md"))
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestFix_DeclinedConfirmation(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"damaged.md": "---\ntitle: x\n---\nM�de\n",
	})

	var out bytes.Buffer
	fixer := NewFixer(&out)
	fixer.Confirm = func(string) bool { return false }

	result, err := fixer.Fix(tree, Options{})
	require.NoError(t, err)
	require.Zero(t, result.Applied)
	require.Contains(t, out.String(), "Aborted")
}

func TestFix_NothingToFix(t *testing.T) {
	tree := discoverFixture(t, map[string]string{
		"clean.md": "---\ntitle: Sag\n---\n# Sag\n",
	})

	var out bytes.Buffer
	result, err := NewFixer(&out).Fix(tree, Options{Yes: true})
	require.NoError(t, err)
	require.Empty(t, result.Planned)
	require.Contains(t, out.String(), "Nothing to fix")
}

func TestFormat_TextAndJSON(t *testing.T) {
	result := &Result{
		FilesTotal: 2,
		Issues: []Issue{
			{FilePath: "a.md", Severity: SeverityError, Rule: "relative-links", Message: "Broken relative link: x.md", Line: 3},
			{FilePath: "a.md", Severity: SeverityWarning, Rule: "frontmatter-title", Message: "Frontmatter has no title"},
		},
	}

	var text bytes.Buffer
	require.NoError(t, Format(&text, result, Options{Format: "text"}))
	require.Contains(t, text.String(), "ERROR:3 [relative-links]")
	require.Contains(t, text.String(), "1 error(s), 1 warning(s)")

	var quiet bytes.Buffer
	require.NoError(t, Format(&quiet, result, Options{Format: "text", Quiet: true}))
	require.NotContains(t, quiet.String(), "frontmatter-title")

	var jsonOut bytes.Buffer
	require.NoError(t, Format(&jsonOut, result, Options{Format: "json"}))
	require.Contains(t, jsonOut.String(), `"rule": "relative-links"`)
	require.Contains(t, jsonOut.String(), `"severity": "ERROR"`)
}
