package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odadocs/odadoc/internal/docs"
	"github.com/odadocs/odadoc/internal/metrics"
	"github.com/odadocs/odadoc/internal/nav"
)

// StageName identifies one build stage.
type StageName string

const (
	StagePrepareOutput StageName = "prepare_output"
	StageDiscover      StageName = "discover"
	StageNavigation    StageName = "navigation"
	StageRenderPages   StageName = "render_pages"
	StageIndexes       StageName = "section_indexes"
	StageAssets        StageName = "copy_assets"
	StageSitemap       StageName = "sitemap"
	StageReport        StageName = "report"
)

// Stage is one step of the build pipeline operating on shared build state.
type Stage func(ctx context.Context, bs *buildState) error

// StageDef pairs a stage name with its function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// buildState is the mutable state threaded through the stages of one build.
type buildState struct {
	builder *Builder
	report  *BuildReport

	tree        *docs.Tree
	navSections []nav.Section
	renderer    *Renderer
	pages       []*RenderedPage
}

func (bs *buildState) pageRenderer() (*Renderer, error) {
	if bs.renderer != nil {
		return bs.renderer, nil
	}
	r, err := NewRenderer(bs.builder.cfg.Site, bs.builder.stylesheetHref(bs.tree))
	if err != nil {
		return nil, err
	}
	bs.renderer = r
	return r, nil
}

// runStages executes stages in order, recording per-stage timing, and stops
// on the first error. Cancellation between stages is reported as a canceled
// outcome rather than a stage failure.
func runStages(ctx context.Context, bs *buildState, stages []StageDef) error {
	recorder := bs.builder.recorder
	for _, st := range stages {
		select {
		case <-ctx.Done():
			recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
			bs.report.Outcome = OutcomeCanceled
			return fmt.Errorf("build canceled before stage %s: %w", st.Name, ctx.Err())
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.StageDurations[string(st.Name)] = dur
		recorder.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
				bs.report.Outcome = OutcomeCanceled
				return fmt.Errorf("stage %s canceled: %w", st.Name, err)
			}
			recorder.IncStageResult(string(st.Name), metrics.ResultFatal)
			bs.report.Errors = append(bs.report.Errors, err.Error())
			return fmt.Errorf("stage %s: %w", st.Name, err)
		}

		recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
		slog.Debug("Stage completed", "stage", st.Name, "duration", dur)
	}
	return nil
}
