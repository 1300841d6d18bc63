// Package site renders the documentation tree into a static HTML site
// through a staged pipeline: prepare output, discover, navigation, render,
// section indexes, assets, sitemap. Each stage is timed and reported.
package site

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odadocs/odadoc/internal/config"
	"github.com/odadocs/odadoc/internal/docmodel"
	"github.com/odadocs/odadoc/internal/docs"
	"github.com/odadocs/odadoc/internal/fingerprint"
	"github.com/odadocs/odadoc/internal/gitinfo"
	"github.com/odadocs/odadoc/internal/metrics"
	"github.com/odadocs/odadoc/internal/nav"
)

// RenderedPage describes one HTML page in the output tree.
type RenderedPage struct {
	Source       *docmodel.Document // nil for generated section indexes
	OutputPath   string             // path relative to the output dir, slash-separated
	AbsolutePath string
	URL          string // full URL when base_url is set, site-absolute path otherwise
	Title        string
	Section      string
	Fingerprint  string
	LastModified time.Time
	Skipped      bool // unchanged, not re-rendered this build
}

// Builder runs the build pipeline. A Builder is reused across rebuilds in
// serve mode; fingerprints from the previous run drive incremental skips.
type Builder struct {
	cfg         *config.Config
	outputDir   string
	recorder    metrics.Recorder
	git         *gitinfo.Resolver
	incremental bool

	mu           sync.Mutex
	fingerprints map[string]string // source relative path -> fingerprint
	lastPages    []*RenderedPage
}

// NewBuilder creates a builder for the given configuration.
func NewBuilder(cfg *config.Config) *Builder {
	git, err := gitinfo.Open(cfg.Docs.Dir)
	if err != nil {
		slog.Debug("Git metadata unavailable", "error", err)
		git = &gitinfo.Resolver{}
	}
	return &Builder{
		cfg:          cfg,
		outputDir:    cfg.Output.Directory,
		recorder:     metrics.NoopRecorder{},
		git:          git,
		fingerprints: map[string]string{},
	}
}

// SetRecorder injects a metrics recorder. Returns the builder for chaining.
func (b *Builder) SetRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	b.recorder = r
	return b
}

// SetOutputDir overrides the configured output directory.
func (b *Builder) SetOutputDir(dir string) *Builder {
	b.outputDir = dir
	return b
}

// SetIncremental enables fingerprint-based skip of unchanged pages on
// rebuilds.
func (b *Builder) SetIncremental(on bool) *Builder {
	b.incremental = on
	return b
}

// OutputDir returns the directory the site is written to.
func (b *Builder) OutputDir() string { return b.outputDir }

// Pages returns the pages of the most recent build.
func (b *Builder) Pages() []*RenderedPage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastPages
}

// Build runs the full pipeline and returns the build report. The report is
// also persisted into the output directory.
func (b *Builder) Build(ctx context.Context) (*BuildReport, error) {
	buildID := uuid.NewString()
	slog.Info("Starting site build", "build_id", buildID, "output", b.outputDir)

	report := newBuildReport(buildID)
	report.Commit = b.git.HeadCommit()
	bs := &buildState{builder: b, report: report}

	stages := []StageDef{
		{StagePrepareOutput, stagePrepareOutput},
		{StageDiscover, stageDiscover},
		{StageNavigation, stageNavigation},
		{StageRenderPages, stageRenderPages},
		{StageIndexes, stageSectionIndexes},
		{StageAssets, stageCopyAssets},
		{StageSitemap, stageSitemap},
	}

	err := runStages(ctx, bs, stages)
	report.finish()
	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(string(report.Outcome))

	if err != nil {
		slog.Error("Site build failed", "build_id", buildID, "error", err)
		return report, err
	}

	b.mu.Lock()
	b.lastPages = bs.pages
	b.mu.Unlock()

	if err := report.Persist(b.outputDir); err != nil {
		slog.Warn("Failed to persist build report", "error", err)
	}
	slog.Info("Site build completed", "build_id", buildID, "summary", report.Summary())
	return report, nil
}

func stagePrepareOutput(_ context.Context, bs *buildState) error {
	out := bs.builder.outputDir
	if bs.builder.cfg.Output.Clean && !bs.builder.incremental {
		if err := os.RemoveAll(out); err != nil {
			return fmt.Errorf("clean output dir: %w", err)
		}
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

func stageDiscover(_ context.Context, bs *buildState) error {
	tree, err := docs.Discover(bs.builder.cfg.Docs.Dir)
	if err != nil {
		return err
	}
	if len(tree.Documents) == 0 {
		return fmt.Errorf("no documents found under %s", tree.Root)
	}
	bs.tree = tree
	bs.report.Documents = len(tree.Documents)
	bs.report.Sections = tree.Sections()
	return nil
}

func stageNavigation(_ context.Context, bs *buildState) error {
	if len(bs.builder.cfg.Nav) == 0 {
		bs.navSections = nav.Fallback(bs.tree)
		return nil
	}
	sections, problems := nav.Build(bs.builder.cfg.Nav, bs.tree)
	bs.navSections = sections
	for _, p := range problems {
		bs.report.addWarning(p.String())
	}
	return nil
}

func stageRenderPages(ctx context.Context, bs *buildState) error {
	b := bs.builder
	renderer, err := bs.pageRenderer()
	if err != nil {
		return err
	}

	for _, doc := range bs.tree.Documents {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := b.renderDocument(renderer, bs, doc)
		if err != nil {
			return err
		}
		bs.pages = append(bs.pages, page)
		if page.Skipped {
			bs.report.SkippedPages++
		} else {
			bs.report.RenderedPages++
		}
	}
	return nil
}

func (b *Builder) renderDocument(renderer *Renderer, bs *buildState, doc *docmodel.Document) (*RenderedPage, error) {
	outRel := doc.OutputPath()
	outAbs := filepath.Join(b.outputDir, filepath.FromSlash(outRel))

	b.mu.Lock()
	previous := b.fingerprints[doc.RelativePath]
	b.mu.Unlock()
	changed, fp, err := fingerprint.Changed(previous, doc.Matter.Fields, doc.Matter.Body)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s: %w", doc.RelativePath, err)
	}

	lastMod := b.lastModified(doc)
	page := &RenderedPage{
		Source:       doc,
		OutputPath:   outRel,
		AbsolutePath: outAbs,
		URL:          b.pageURL(doc.URLPath()),
		Title:        doc.Title(),
		Section:      doc.Section,
		Fingerprint:  fp,
		LastModified: lastMod,
	}

	if b.incremental && !changed {
		if _, err := os.Stat(outAbs); err == nil {
			page.Skipped = true
			return page, nil
		}
	}

	editURL := b.git.EditURL(b.cfg.Site.EditBaseURL, b.cfg.Docs.Dir, doc.RelativePath)
	html, err := renderer.RenderPage(doc, bs.navSections, lastMod, editURL, page.URL)
	if err != nil {
		return nil, err
	}
	if err := writeFile(outAbs, html); err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.fingerprints[doc.RelativePath] = fp
	b.mu.Unlock()
	return page, nil
}

func stageSectionIndexes(ctx context.Context, bs *buildState) error {
	b := bs.builder
	renderer, err := bs.pageRenderer()
	if err != nil {
		return err
	}

	for _, section := range bs.tree.Sections() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if bs.tree.ByRelativePath(section+"/index.md") != nil {
			continue
		}

		var items []nav.Item
		for _, doc := range bs.tree.Documents {
			if doc.Section == section {
				items = append(items, nav.Item{Title: doc.Title(), URL: doc.URLPath(), RelativePath: doc.RelativePath})
			}
		}

		urlPath := "/" + section + "/"
		canonical := b.pageURL(urlPath)
		html, err := renderer.RenderSectionIndex(section, items, bs.navSections, canonical)
		if err != nil {
			return err
		}
		outRel := section + "/index.html"
		outAbs := filepath.Join(b.outputDir, filepath.FromSlash(outRel))
		if err := writeFile(outAbs, html); err != nil {
			return err
		}
		bs.pages = append(bs.pages, &RenderedPage{
			OutputPath:   outRel,
			AbsolutePath: outAbs,
			URL:          canonical,
			Title:        section,
			Section:      section,
		})
		bs.report.RenderedPages++
	}
	return nil
}

func stageCopyAssets(ctx context.Context, bs *buildState) error {
	for _, asset := range bs.tree.Assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(bs.builder.outputDir, filepath.FromSlash(asset.RelativePath))
		if err := copyFile(asset.Path, dst); err != nil {
			return fmt.Errorf("copy asset %s: %w", asset.RelativePath, err)
		}
	}
	bs.report.Assets = len(bs.tree.Assets)
	return nil
}

func stageSitemap(_ context.Context, bs *buildState) error {
	return writeSitemap(bs.builder.outputDir, bs.pages)
}

// stylesheetHref returns the href of the site stylesheet if the docs tree
// ships one; the layout omits the tag otherwise.
func (b *Builder) stylesheetHref(tree *docs.Tree) string {
	for _, asset := range tree.Assets {
		if asset.RelativePath == "assets/style.css" {
			return "/assets/style.css"
		}
	}
	return ""
}

func (b *Builder) pageURL(urlPath string) string {
	base := b.cfg.Site.BaseURL
	if base == "" {
		return urlPath
	}
	u, err := url.Parse(base)
	if err != nil {
		return urlPath
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + urlPath
	return u.String()
}

func (b *Builder) lastModified(doc *docmodel.Document) time.Time {
	if !b.git.Available() {
		return time.Time{}
	}
	t, err := b.git.LastModified(doc.Path)
	if err != nil {
		slog.Debug("No git history for page", "path", doc.RelativePath, "error", err)
		return time.Time{}
	}
	return t
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
