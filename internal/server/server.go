// Package server is the preview server: it serves the built site, rebuilds
// on docs changes, exposes health/status/metrics endpoints and can re-verify
// links on a schedule.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/odadocs/odadoc/internal/config"
	"github.com/odadocs/odadoc/internal/history"
	"github.com/odadocs/odadoc/internal/site"
)

// VerifyFunc runs one link verification pass over the current site.
type VerifyFunc func(ctx context.Context) error

// Server serves the built site and keeps it fresh.
type Server struct {
	cfg     *config.Config
	builder *site.Builder

	store          history.Store
	metricsHandler http.Handler
	verifyFn       VerifyFunc

	startTime time.Time

	mu         sync.Mutex
	lastReport *site.BuildReport
	lastError  error
	rebuilding bool
	pending    bool
}

// New creates a preview server around a prepared builder.
func New(cfg *config.Config, builder *site.Builder) *Server {
	return &Server{cfg: cfg, builder: builder, startTime: time.Now()}
}

// SetStore injects the run-event store backing /api/status. Returns the
// server for chaining.
func (s *Server) SetStore(store history.Store) *Server {
	s.store = store
	return s
}

// SetMetricsHandler exposes the handler at /metrics.
func (s *Server) SetMetricsHandler(h http.Handler) *Server {
	s.metricsHandler = h
	return s
}

// SetVerifyFunc enables scheduled link verification.
func (s *Server) SetVerifyFunc(fn VerifyFunc) *Server {
	s.verifyFn = fn
	return s
}

// Run builds the site, then serves it until the context is canceled. Rebuilds
// are triggered by filesystem changes under the docs dir.
func (s *Server) Run(ctx context.Context) error {
	if err := s.build(ctx); err != nil {
		// Serve keeps running on a failed initial build so the author can
		// fix the docs and save again.
		slog.Error("Initial build failed", "error", err)
	}

	debounce, err := time.ParseDuration(s.cfg.Serve.DebounceDelay)
	if err != nil {
		debounce = 400 * time.Millisecond
	}
	w, err := newWatcher(s.cfg.Docs.Dir, debounce, func() { s.rebuild(ctx) })
	if err != nil {
		return fmt.Errorf("watch docs dir: %w", err)
	}
	go w.run(ctx)

	scheduler, err := s.startScheduler(ctx)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Serve.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", "addr", s.cfg.Serve.Addr, "site", s.builder.OutputDir())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			slog.Warn("Scheduler shutdown error", "error", err)
		}
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	if s.verifyFn == nil || s.cfg.Serve.VerifyInterval == "" {
		return nil, nil
	}
	interval, err := time.ParseDuration(s.cfg.Serve.VerifyInterval)
	if err != nil {
		return nil, fmt.Errorf("parse verify_interval: %w", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Info("Scheduled link verification starting")
			if err := s.verifyFn(ctx); err != nil {
				slog.Warn("Scheduled link verification failed", "error", err)
			}
		}),
		gocron.WithName("link-verification"),
	)
	if err != nil {
		scheduler.Shutdown()
		return nil, fmt.Errorf("schedule verification job: %w", err)
	}
	scheduler.Start()
	slog.Info("Scheduled periodic link verification", "interval", interval)
	return scheduler, nil
}

// build runs one build and records it in the event store.
func (s *Server) build(ctx context.Context) error {
	report, err := s.builder.Build(ctx)

	s.mu.Lock()
	s.lastReport = report
	s.lastError = err
	s.mu.Unlock()

	if s.store != nil && report != nil {
		summary := history.BuildSummary{
			RunID:     report.BuildID,
			Pages:     report.RenderedPages,
			Assets:    report.Assets,
			Warnings:  len(report.Warnings),
			Succeeded: err == nil,
			Duration:  report.Duration(),
		}
		if appendErr := s.store.Append(ctx, report.BuildID, history.EventBuildCompleted, summary); appendErr != nil {
			slog.Warn("Failed to record build event", "error", appendErr)
		}
	}
	return err
}

// rebuild coalesces overlapping change bursts: one build at a time, at most
// one queued behind it.
func (s *Server) rebuild(ctx context.Context) {
	s.mu.Lock()
	if s.rebuilding {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.rebuilding = true
	s.mu.Unlock()

	for {
		if ctx.Err() != nil {
			break
		}
		slog.Info("Change detected; rebuilding site")
		if err := s.build(ctx); err != nil {
			slog.Warn("Rebuild failed", "error", err)
		}

		s.mu.Lock()
		if !s.pending {
			s.rebuilding = false
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.rebuilding = false
	s.pending = false
	s.mu.Unlock()
}
