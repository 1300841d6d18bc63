package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BuildOutcome is the final result state of a build.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// reportFileName is the build report persisted into the output directory.
const reportFileName = ".build-report.json"

// BuildReport captures what one site build did.
type BuildReport struct {
	BuildID        string                   `json:"build_id"`
	Commit         string                   `json:"commit,omitempty"` // abbreviated docs-repo HEAD
	Start          time.Time                `json:"start"`
	End            time.Time                `json:"end"`
	Documents      int                      `json:"documents"`
	RenderedPages  int                      `json:"rendered_pages"`
	SkippedPages   int                      `json:"skipped_pages"` // unchanged in incremental mode
	Assets         int                      `json:"assets"`
	Sections       []string                 `json:"sections,omitempty"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
	Warnings       []string                 `json:"warnings,omitempty"`
	Errors         []string                 `json:"errors,omitempty"`
	Outcome        BuildOutcome             `json:"outcome"`
}

func newBuildReport(buildID string) *BuildReport {
	return &BuildReport{
		BuildID:        buildID,
		Start:          time.Now(),
		StageDurations: map[string]time.Duration{},
	}
}

func (r *BuildReport) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *BuildReport) finish() {
	r.End = time.Now()
	r.deriveOutcome()
}

func (r *BuildReport) deriveOutcome() {
	switch {
	case r.Outcome == OutcomeCanceled:
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration is the wall-clock time of the build.
func (r *BuildReport) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Summary is a one-line human summary for log output.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("%s: %d pages (%d skipped), %d assets, %d warnings in %s",
		r.Outcome, r.RenderedPages, r.SkippedPages, r.Assets, len(r.Warnings), r.Duration().Round(time.Millisecond))
}

// Persist writes the report as JSON into the output directory.
func (r *BuildReport) Persist(outputDir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal build report: %w", err)
	}
	path := filepath.Join(outputDir, reportFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write build report: %w", err)
	}
	return nil
}

// LoadReport reads a persisted build report from an output directory.
func LoadReport(outputDir string) (*BuildReport, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, reportFileName))
	if err != nil {
		return nil, err
	}
	var r BuildReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal build report: %w", err)
	}
	return &r, nil
}
