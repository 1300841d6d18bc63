// Package history persists build and verification run events so the status
// API and reports can show what happened without re-running anything.
package history

import (
	"context"
	"encoding/json"
	"time"
)

// Event types recorded by the toolchain.
const (
	EventBuildStarted    = "build.started"
	EventBuildCompleted  = "build.completed"
	EventVerifyCompleted = "verify.completed"
)

// Event is one recorded run event.
type Event struct {
	ID        int64
	RunID     string
	Type      string
	Timestamp time.Time
	Payload   []byte
}

// BuildSummary is the payload of a build.completed event.
type BuildSummary struct {
	RunID     string        `json:"run_id"`
	Pages     int           `json:"pages"`
	Assets    int           `json:"assets"`
	Warnings  int           `json:"warnings"`
	Succeeded bool          `json:"succeeded"`
	Duration  time.Duration `json:"duration"`
}

// VerifySummary is the payload of a verify.completed event.
type VerifySummary struct {
	RunID        string        `json:"run_id"`
	LinksChecked int           `json:"links_checked"`
	LinksBroken  int           `json:"links_broken"`
	Duration     time.Duration `json:"duration"`
}

// Store persists and retrieves run events.
type Store interface {
	Append(ctx context.Context, runID, eventType string, payload any) error
	ByRunID(ctx context.Context, runID string) ([]Event, error)
	Range(ctx context.Context, start, end time.Time) ([]Event, error)
	LastOfType(ctx context.Context, eventType string) (*Event, error)
	Close() error
}

// DecodePayload unmarshals an event payload into out.
func DecodePayload(e Event, out any) error {
	return json.Unmarshal(e.Payload, out)
}
