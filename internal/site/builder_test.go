package site

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/odadocs/odadoc/internal/config"
)

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

func testConfig(docsDir, outDir string) *config.Config {
	return &config.Config{
		Site: config.SiteConfig{
			Title:    "Folketingets Åbne Data",
			BaseURL:  "https://docs.example.com",
			Language: "da",
		},
		Docs:   config.DocsConfig{Dir: docsDir},
		Output: config.OutputConfig{Directory: outDir, Clean: true},
		Nav: []config.NavSection{
			{Section: "Introduktion", Pages: []string{"index.md"}},
			{Section: "Entiteter", Pages: []string{"entiteter/sag.md", "entiteter/stemme.md"}},
		},
	}
}

var docsFixture = map[string]string{
	"index.md": `---
title: Oversigt
---
# Folketingets Åbne Data

Dokumentation for API'et på [oda.ft.dk](https://oda.ft.dk/api/).
`,
	"entiteter/sag.md": `---
title: Sag
---
# Sag

## Eksempel: hent sager

En sag er en parlamentarisk proces.
`,
	"entiteter/stemme.md": `# Stemme

Den enkelte stemme i en afstemning.
`,
	"assets/style.css": "body { font-family: sans-serif; }\n",
}

func TestBuild_WritesSite(t *testing.T) {
	docsDir := writeDocs(t, docsFixture)
	outDir := filepath.Join(t.TempDir(), "site")

	b := NewBuilder(testConfig(docsDir, outDir))
	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)
	require.Equal(t, 3, report.Documents)
	require.Equal(t, 1, report.Assets)
	require.NotEmpty(t, report.BuildID)

	// Clean URLs: entiteter/sag.md renders to entiteter/sag/index.html.
	html, err := os.ReadFile(filepath.Join(outDir, "entiteter", "sag", "index.html"))
	require.NoError(t, err)
	page := string(html)
	require.Contains(t, page, "<title>Sag | Folketingets Åbne Data</title>")
	require.Contains(t, page, `lang="da"`)
	require.Contains(t, page, `id="eksempel-hent-sager"`)
	require.Contains(t, page, `<link rel="stylesheet" href="/assets/style.css">`)
	require.Contains(t, page, `href="/entiteter/stemme/"`) // nav renders sibling pages

	// Assets copied through unchanged.
	css, err := os.ReadFile(filepath.Join(outDir, "assets", "style.css"))
	require.NoError(t, err)
	require.Equal(t, docsFixture["assets/style.css"], string(css))

	// Sitemap lists every page with the configured base URL.
	sitemap, err := os.ReadFile(filepath.Join(outDir, "sitemap.xml"))
	require.NoError(t, err)
	require.Contains(t, string(sitemap), "<loc>https://docs.example.com/entiteter/sag/</loc>")

	// Report persisted alongside the site.
	persisted, err := LoadReport(outDir)
	require.NoError(t, err)
	require.Equal(t, report.BuildID, persisted.BuildID)
}

func TestBuild_GeneratesSectionIndex(t *testing.T) {
	docsDir := writeDocs(t, docsFixture)
	outDir := filepath.Join(t.TempDir(), "site")

	b := NewBuilder(testConfig(docsDir, outDir))
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	// entiteter has no index.md, so a listing page is generated.
	html, err := os.ReadFile(filepath.Join(outDir, "entiteter", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), `<a href="/entiteter/sag/">Sag</a>`)
	require.Contains(t, string(html), `<a href="/entiteter/stemme/">Stemme</a>`)
}

func TestBuild_NavProblemsAreWarnings(t *testing.T) {
	docsDir := writeDocs(t, docsFixture)
	outDir := filepath.Join(t.TempDir(), "site")

	cfg := testConfig(docsDir, outDir)
	cfg.Nav = append(cfg.Nav, config.NavSection{Section: "Væk", Pages: []string{"findes-ikke.md"}})

	report, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeWarning, report.Outcome)
	require.NotEmpty(t, report.Warnings)
	require.Contains(t, report.Warnings[0], "findes-ikke.md")
}

func TestBuild_IncrementalSkipsUnchangedPages(t *testing.T) {
	docsDir := writeDocs(t, docsFixture)
	outDir := filepath.Join(t.TempDir(), "site")

	b := NewBuilder(testConfig(docsDir, outDir)).SetIncremental(true)

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.SkippedPages)

	// Nothing changed: every source page is skipped on rebuild.
	report, err = b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.SkippedPages)

	// Edit one page: only that page renders again.
	p := filepath.Join(docsDir, "entiteter", "sag.md")
	content, err := os.ReadFile(p)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, append(content, []byte("\nNyt afsnit.\n")...), 0o600))

	report, err = b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.SkippedPages)

	html, err := os.ReadFile(filepath.Join(outDir, "entiteter", "sag", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), "Nyt afsnit.")
}

func TestBuild_CanceledContext(t *testing.T) {
	docsDir := writeDocs(t, docsFixture)
	outDir := filepath.Join(t.TempDir(), "site")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewBuilder(testConfig(docsDir, outDir)).Build(ctx)
	require.Error(t, err)
	require.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestBuild_EmptyDocsTreeFails(t *testing.T) {
	docsDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "site")

	report, err := NewBuilder(testConfig(docsDir, outDir)).Build(context.Background())
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, report.Outcome)
}

func TestBuild_PagesExposedForVerification(t *testing.T) {
	docsDir := writeDocs(t, docsFixture)
	outDir := filepath.Join(t.TempDir(), "site")

	b := NewBuilder(testConfig(docsDir, outDir))
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	pages := b.Pages()
	require.Len(t, pages, 4) // 3 documents + 1 generated section index

	var sag *RenderedPage
	for _, p := range pages {
		if p.OutputPath == "entiteter/sag/index.html" {
			sag = p
		}
	}
	require.NotNil(t, sag)
	require.Equal(t, "https://docs.example.com/entiteter/sag/", sag.URL)
	require.NotEmpty(t, sag.Fingerprint)
	require.True(t, strings.HasSuffix(sag.AbsolutePath, filepath.FromSlash("entiteter/sag/index.html")))
}

func TestBuild_ReportCarriesHeadCommit(t *testing.T) {
	docsDir := writeDocs(t, docsFixture)
	repo, err := git.PlainInit(docsDir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("index.md")
	require.NoError(t, err)
	_, err = wt.Commit("add index", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.org"},
	})
	require.NoError(t, err)

	outDir := filepath.Join(t.TempDir(), "site")
	report, err := NewBuilder(testConfig(docsDir, outDir)).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Commit, 8)

	persisted, err := LoadReport(outDir)
	require.NoError(t, err)
	require.Equal(t, report.Commit, persisted.Commit)
}
