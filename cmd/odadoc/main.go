package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/odadocs/odadoc/internal/config"
	"github.com/odadocs/odadoc/internal/docs"
	"github.com/odadocs/odadoc/internal/history"
	"github.com/odadocs/odadoc/internal/lint"
	"github.com/odadocs/odadoc/internal/linkverify"
	"github.com/odadocs/odadoc/internal/metrics"
	"github.com/odadocs/odadoc/internal/odata"
	"github.com/odadocs/odadoc/internal/samples"
	"github.com/odadocs/odadoc/internal/server"
	"github.com/odadocs/odadoc/internal/site"
)

// historyDBPath is the run-event store shared by verify and serve.
const historyDBPath = ".odadoc-events.db"

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"odadoc.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output  string `short:"o" help:"Output directory (overrides output.directory)"`
		Clean   bool   `help:"Remove the output directory before building"`
		BaseURL string `name:"base-url" help:"Site base URL (overrides site.base_url)"`
	} `cmd:"" help:"Render the documentation tree to a static HTML site"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write a starter configuration file"`

	Lint struct {
		Fix    bool   `help:"Apply automatic fixes (encoding repair, missing titles)"`
		DryRun bool   `name:"dry-run" help:"Show fixes without writing files"`
		Yes    bool   `short:"y" help:"Skip the confirmation prompt before fixing"`
		Quiet  bool   `short:"q" help:"Report errors only"`
		Format string `enum:"text,json" default:"text" help:"Output format"`
	} `cmd:"" help:"Check the documentation tree against the lint rules"`

	Verify struct {
		Site     string `help:"Rendered site directory (defaults to output.directory)"`
		Entities bool   `help:"Probe the documented entity sets against the API"`
		Samples  bool   `help:"Send HEAD requests to the URLs used in code samples"`
	} `cmd:"" help:"Verify links in the rendered site"`

	Serve struct {
		Addr string `help:"Listen address (overrides serve.addr)"`
	} `cmd:"" help:"Preview server: build, serve, rebuild on change"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("odadoc"),
		kong.Description("Toolchain for the Danish Parliament open data API documentation site."))

	if kctx.Command() == "init" {
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logging.NewLogger(CLI.Verbose))

	switch kctx.Command() {
	case "build":
		if err := runBuild(cfg); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "lint":
		ok, err := runLint(cfg)
		if err != nil {
			slog.Error("Lint failed", "error", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(1)
		}
	case "verify":
		ok, err := runVerify(cfg)
		if err != nil {
			slog.Error("Verify failed", "error", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(1)
		}
	case "serve":
		if err := runServe(cfg); err != nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	default:
		kctx.Fatalf("unknown command %s", kctx.Command())
	}
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", "path", configPath, "force", force)
	return config.Init(configPath, force)
}

func runBuild(cfg *config.Config) error {
	if CLI.Build.Output != "" {
		cfg.Output.Directory = CLI.Build.Output
	}
	if CLI.Build.Clean {
		cfg.Output.Clean = true
	}
	if CLI.Build.BaseURL != "" {
		cfg.Site.BaseURL = CLI.Build.BaseURL
	}

	ctx := context.Background()
	report, err := site.NewBuilder(cfg).Build(ctx)
	if report != nil {
		recordBuildRun(ctx, report, err == nil)
	}
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("Built %s (%s)\n", cfg.Output.Directory, report.Summary())
	return nil
}

func recordBuildRun(ctx context.Context, report *site.BuildReport, succeeded bool) {
	store, err := history.NewSQLiteStore(historyDBPath)
	if err != nil {
		slog.Warn("Event store unavailable", "error", err)
		return
	}
	defer store.Close()

	summary := history.BuildSummary{
		RunID:     report.BuildID,
		Pages:     report.RenderedPages,
		Assets:    report.Assets,
		Warnings:  len(report.Warnings),
		Succeeded: succeeded,
		Duration:  report.Duration(),
	}
	if err := store.Append(ctx, report.BuildID, history.EventBuildCompleted, summary); err != nil {
		slog.Warn("Failed to record build event", "error", err)
	}
}

func runLint(cfg *config.Config) (bool, error) {
	opts := lint.Options{
		Quiet:  CLI.Lint.Quiet,
		Format: CLI.Lint.Format,
		Fix:    CLI.Lint.Fix,
		DryRun: CLI.Lint.DryRun,
		Yes:    CLI.Lint.Yes,
	}
	if opts.Format == "" {
		opts.Format = cfg.Lint.Format
	}

	tree, err := docs.Discover(cfg.Docs.Dir)
	if err != nil {
		return false, err
	}

	if opts.Fix {
		if _, err := lint.NewFixer(os.Stdout).Fix(tree, opts); err != nil {
			return false, err
		}
		// Fixes change files on disk; lint what is there now.
		if tree, err = docs.Discover(cfg.Docs.Dir); err != nil {
			return false, err
		}
	}

	result := lint.NewLinter().Run(tree)
	if err := lint.Format(os.Stdout, result, opts); err != nil {
		return false, err
	}
	return !result.HasErrors(), nil
}

func runVerify(cfg *config.Config) (bool, error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	siteDir := CLI.Verify.Site
	if siteDir == "" {
		siteDir = cfg.Output.Directory
	}

	clean := true

	pages, err := discoverRenderedPages(siteDir)
	if err != nil {
		return false, err
	}

	svc, err := linkverify.NewService(&cfg.Verify, siteDir, cfg.Site.BaseURL, metrics.NoopRecorder{})
	if err != nil {
		return false, err
	}
	defer svc.Close()

	start := time.Now()
	result, err := svc.VerifyPages(ctx, pages)
	if err != nil {
		return false, err
	}
	linkDuration := time.Since(start)
	for _, broken := range result.Broken {
		fmt.Printf("broken: %s (source %s, status %d): %s\n",
			broken.URL, broken.RenderedPath, broken.Status, broken.Error)
	}
	fmt.Printf("Checked %d links on %d pages: %d broken, %d cache hits\n",
		result.LinksChecked, result.PagesChecked, len(result.Broken), result.CacheHits)
	clean = clean && len(result.Broken) == 0

	if CLI.Verify.Entities {
		ok, err := verifyEntities(ctx, cfg)
		if err != nil {
			return false, err
		}
		clean = clean && ok
	}

	if CLI.Verify.Samples {
		ok, err := verifySamples(ctx, cfg)
		if err != nil {
			return false, err
		}
		clean = clean && ok
	}

	recordVerifyRun(ctx, result, linkDuration)
	return clean, nil
}

// discoverRenderedPages walks a rendered site and lists its HTML pages.
func discoverRenderedPages(siteDir string) ([]*linkverify.PageMetadata, error) {
	if _, err := os.Stat(siteDir); err != nil {
		return nil, fmt.Errorf("rendered site not found at %s (run build first): %w", siteDir, err)
	}
	var pages []*linkverify.PageMetadata
	err := walkHTML(siteDir, func(abs, rel string) {
		pages = append(pages, &linkverify.PageMetadata{HTMLPath: abs, RenderedPath: rel})
	})
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no HTML pages under %s", siteDir)
	}
	return pages, nil
}

func verifyEntities(ctx context.Context, cfg *config.Config) (bool, error) {
	client := odata.NewClient(cfg.Verify.APIBase)
	ok := true
	for _, entitySet := range odata.EntitySets {
		probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err := client.Probe(probeCtx, entitySet)
		cancel()
		if err != nil {
			fmt.Printf("entity set %s: %v\n", entitySet, err)
			ok = false
			continue
		}
		slog.Debug("Entity set answers", "entity_set", entitySet)
	}
	if ok {
		fmt.Printf("All %d documented entity sets answer queries\n", len(odata.EntitySets))
	}
	return ok, nil
}

func verifySamples(ctx context.Context, cfg *config.Config) (bool, error) {
	tree, err := docs.Discover(cfg.Docs.Dir)
	if err != nil {
		return false, err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	ok := true
	for _, doc := range tree.Documents {
		for _, u := range samples.URLs(doc.Matter.Body) {
			if err := samples.LiveCheck(ctx, client, u); err != nil {
				fmt.Printf("sample URL %s (in %s): %v\n", u, doc.RelativePath, err)
				ok = false
			}
		}
	}
	if ok {
		fmt.Println("All sample URLs answer")
	}
	return ok, nil
}

func recordVerifyRun(ctx context.Context, result *linkverify.Result, duration time.Duration) {
	store, err := history.NewSQLiteStore(historyDBPath)
	if err != nil {
		slog.Debug("Event store unavailable", "error", err)
		return
	}
	defer store.Close()

	runID := fmt.Sprintf("verify-%d", time.Now().Unix())
	summary := history.VerifySummary{
		RunID:        runID,
		LinksChecked: result.LinksChecked,
		LinksBroken:  len(result.Broken),
		Duration:     duration,
	}
	if err := store.Append(ctx, runID, history.EventVerifyCompleted, summary); err != nil {
		slog.Debug("Failed to record verify event", "error", err)
	}
}

func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if CLI.Serve.Addr != "" {
		cfg.Serve.Addr = CLI.Serve.Addr
	}

	tempDir, err := os.MkdirTemp("", "odadoc-preview-*")
	if err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			slog.Warn("Failed to remove preview dir", "dir", tempDir, "error", err)
		}
	}()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Serve.Metrics {
		prom := metrics.NewPrometheusRecorder(nil)
		recorder = prom
		metricsHandler = prom.Handler()
	}

	builder := site.NewBuilder(cfg).
		SetOutputDir(tempDir).
		SetIncremental(true).
		SetRecorder(recorder)

	srv := server.New(cfg, builder).SetMetricsHandler(metricsHandler)

	store, err := history.NewSQLiteStore(historyDBPath)
	if err != nil {
		slog.Warn("Event store unavailable", "error", err)
	} else {
		defer store.Close()
		srv.SetStore(store)
	}

	if cfg.Verify.Enabled && cfg.Serve.VerifyInterval != "" {
		svc, err := linkverify.NewService(&cfg.Verify, tempDir, cfg.Site.BaseURL, recorder)
		if err != nil {
			return fmt.Errorf("prepare link verification: %w", err)
		}
		defer svc.Close()

		srv.SetVerifyFunc(func(ctx context.Context) error {
			pages := verifyPagesFromBuild(builder.Pages())
			start := time.Now()
			result, err := svc.VerifyPages(ctx, pages)
			if err != nil {
				return err
			}
			if store != nil {
				summary := history.VerifySummary{
					RunID:        fmt.Sprintf("verify-%d", time.Now().Unix()),
					LinksChecked: result.LinksChecked,
					LinksBroken:  len(result.Broken),
					Duration:     time.Since(start),
				}
				if err := store.Append(ctx, summary.RunID, history.EventVerifyCompleted, summary); err != nil {
					slog.Debug("Failed to record verify event", "error", err)
				}
			}
			return nil
		})
	}

	return srv.Run(ctx)
}

func walkHTML(root string, fn func(abs, rel string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		fn(path, filepath.ToSlash(rel))
		return nil
	})
}

// verifyPagesFromBuild maps build output pages to verification metadata.
func verifyPagesFromBuild(pages []*site.RenderedPage) []*linkverify.PageMetadata {
	out := make([]*linkverify.PageMetadata, 0, len(pages))
	for _, p := range pages {
		meta := &linkverify.PageMetadata{
			HTMLPath:     p.AbsolutePath,
			RenderedPath: p.OutputPath,
			Section:      p.Section,
			Title:        p.Title,
			PageURL:      p.URL,
			ContentHash:  p.Fingerprint,
		}
		if p.Source != nil {
			meta.SourcePath = p.Source.Path
			meta.SourceRelativePath = p.Source.RelativePath
		}
		out = append(out, meta)
	}
	return out
}
