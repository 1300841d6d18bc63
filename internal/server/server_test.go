package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odadocs/odadoc/internal/config"
	"github.com/odadocs/odadoc/internal/history"
	"github.com/odadocs/odadoc/internal/site"
)

func builtServer(t *testing.T) *Server {
	t.Helper()
	docsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "index.md"), []byte("---\ntitle: Oversigt\n---\n# Oversigt\n"), 0o600))

	outDir := filepath.Join(t.TempDir(), "site")
	cfg := &config.Config{
		Site:   config.SiteConfig{Title: "Folketingets Åbne Data", Language: "da"},
		Docs:   config.DocsConfig{Dir: docsDir},
		Output: config.OutputConfig{Directory: outDir},
		Serve:  config.ServeConfig{Addr: "127.0.0.1:0", DebounceDelay: "10ms"},
	}

	s := New(cfg, site.NewBuilder(cfg))
	require.NoError(t, s.build(context.Background()))
	return s
}

func TestHealthz(t *testing.T) {
	s := builtServer(t)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthz_DegradedAfterFailedBuild(t *testing.T) {
	s := builtServer(t)
	s.mu.Lock()
	s.lastError = errors.New("boom")
	s.mu.Unlock()

	rec := httptest.NewRecorder()
	s.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatus(t *testing.T) {
	s := builtServer(t)

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.LastBuild)
	require.Equal(t, site.OutcomeSuccess, resp.LastBuild.Outcome)
	require.Equal(t, 1, resp.LastBuild.Documents)
}

func TestStatus_IncludesLastVerify(t *testing.T) {
	s := builtServer(t)

	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer store.Close()
	s.SetStore(store)

	summary := history.VerifySummary{RunID: "r1", LinksChecked: 12, LinksBroken: 2}
	require.NoError(t, store.Append(context.Background(), "r1", history.EventVerifyCompleted, summary))

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.LastVerify)
	require.Equal(t, 12, resp.LastVerify.LinksChecked)
	require.Equal(t, 2, resp.LastVerify.LinksBroken)
}

func TestServesBuiltSite(t *testing.T) {
	s := builtServer(t)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuildRecordsHistoryEvent(t *testing.T) {
	s := builtServer(t)

	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer store.Close()
	s.SetStore(store)

	require.NoError(t, s.build(context.Background()))

	event, err := store.LastOfType(context.Background(), history.EventBuildCompleted)
	require.NoError(t, err)
	require.NotNil(t, event)

	var summary history.BuildSummary
	require.NoError(t, history.DecodePayload(*event, &summary))
	require.True(t, summary.Succeeded)
	require.Equal(t, 1, summary.Pages)
}
