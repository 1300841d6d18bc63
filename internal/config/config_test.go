package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "odadoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "site:\n  title: Folketinget API\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Folketinget API", cfg.Site.Title)
	require.Equal(t, "docs", cfg.Docs.Dir)
	require.Equal(t, "./site", cfg.Output.Directory)
	require.True(t, cfg.Output.Clean)
	require.Equal(t, 10, cfg.Verify.MaxConcurrent)
	require.Equal(t, "https://oda.ft.dk/api/", cfg.Verify.APIBase)
	require.Equal(t, "127.0.0.1:8787", cfg.Serve.Addr)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCS_BASE_URL", "https://docs.example.dk/")
	path := writeConfig(t, "site:\n  base_url: ${DOCS_BASE_URL}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://docs.example.dk/", cfg.Site.BaseURL)
}

func TestLoad_RejectsRelativeBaseURL(t *testing.T) {
	path := writeConfig(t, "site:\n  base_url: /docs/\n")
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "base_url")
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "verify:\n  request_timeout: soon\n")
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "request_timeout")
}

func TestLoad_RejectsDuplicateNavPage(t *testing.T) {
	path := writeConfig(t, `nav:
  - section: A
    pages: [index.md]
  - section: B
    pages: [index.md]
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "index.md")
}

func TestLoad_NATSDefaultsOnlyWhenURLSet(t *testing.T) {
	cfg, err := Load(writeConfig(t, "verify:\n  nats:\n    url: nats://localhost:4222\n"))
	require.NoError(t, err)
	require.Equal(t, "odadoc.links.broken", cfg.Verify.NATS.Subject)
	require.Equal(t, "odadoc-link-cache", cfg.Verify.NATS.KVBucket)

	cfg, err = Load(writeConfig(t, "site:\n  title: x\n"))
	require.NoError(t, err)
	require.Empty(t, cfg.Verify.NATS.Subject)
}

func TestNormalizeLogLevel(t *testing.T) {
	require.Equal(t, LogLevelDebug, NormalizeLogLevel("DEBUG"))
	require.Equal(t, LogLevelWarn, NormalizeLogLevel("warning"))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel("bogus"))
	require.Equal(t, slog.LevelError, LoggingConfig{Level: "error"}.SlogLevel())
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odadoc.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	require.NoError(t, Init(path, true))

	// The starter file must load cleanly. The docs dir does not need to exist
	// for Load; only build touches the filesystem.
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Danish Parliament OData API", cfg.Site.Title)
	require.Len(t, cfg.Nav, 2)
}

func TestInit_WritesDocsSkeletonForStarterNav(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odadoc.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	for _, section := range cfg.Nav {
		for _, page := range section.Pages {
			_, err := os.Stat(filepath.Join(dir, "docs", filepath.FromSlash(page)))
			require.NoError(t, err, "starter nav references %s but init did not write it", page)
		}
	}
}

func TestInit_KeepsExistingPages(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "docs", "index.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o750))
	require.NoError(t, os.WriteFile(existing, []byte("# Min forside\n"), 0o600))

	require.NoError(t, Init(filepath.Join(dir, "odadoc.yaml"), false))

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "# Min forside\n", string(content))
}
