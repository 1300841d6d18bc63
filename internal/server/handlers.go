package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/odadocs/odadoc/internal/history"
	"github.com/odadocs/odadoc/internal/site"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/status", s.handleStatus)
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}
	mux.Handle("/", http.FileServer(http.Dir(s.builder.OutputDir())))
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	healthy := s.lastReport != nil && s.lastError == nil
	s.mu.Unlock()

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type buildStatus struct {
	BuildID   string            `json:"build_id"`
	Outcome   site.BuildOutcome `json:"outcome"`
	Documents int               `json:"documents"`
	Pages     int               `json:"pages"`
	Skipped   int               `json:"skipped"`
	Warnings  []string          `json:"warnings,omitempty"`
	Finished  time.Time         `json:"finished"`
}

type statusResponse struct {
	Status     string                 `json:"status"` // ok | degraded
	Uptime     string                 `json:"uptime"`
	LastBuild  *buildStatus           `json:"last_build,omitempty"`
	LastError  string                 `json:"last_error,omitempty"`
	LastVerify *history.VerifySummary `json:"last_verify,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	report := s.lastReport
	lastErr := s.lastError
	s.mu.Unlock()

	resp := statusResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	}
	if lastErr != nil {
		resp.Status = "degraded"
		resp.LastError = lastErr.Error()
	}
	if report != nil {
		resp.LastBuild = &buildStatus{
			BuildID:   report.BuildID,
			Outcome:   report.Outcome,
			Documents: report.Documents,
			Pages:     report.RenderedPages,
			Skipped:   report.SkippedPages,
			Warnings:  report.Warnings,
			Finished:  report.End,
		}
	}
	resp.LastVerify = s.lastVerifySummary(r.Context())

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) lastVerifySummary(ctx context.Context) *history.VerifySummary {
	if s.store == nil {
		return nil
	}
	event, err := s.store.LastOfType(ctx, history.EventVerifyCompleted)
	if err != nil || event == nil {
		return nil
	}
	var summary history.VerifySummary
	if err := history.DecodePayload(*event, &summary); err != nil {
		slog.Debug("Undecodable verify event", "run_id", event.RunID, "error", err)
		return nil
	}
	return &summary
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}
