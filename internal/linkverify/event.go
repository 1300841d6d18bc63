package linkverify

import "time"

// BrokenLinkEvent describes a broken link found during verification. It is
// the wire format published to NATS when events are configured, and the
// record collected into the run Result either way.
type BrokenLinkEvent struct {
	URL        string `json:"url"`
	Status     int    `json:"status"` // HTTP status, 0 for transport errors
	Error      string `json:"error"`
	IsInternal bool   `json:"is_internal"`

	// Source page
	SourcePath         string `json:"source_path,omitempty"`          // markdown source, absolute
	SourceRelativePath string `json:"source_relative_path,omitempty"` // relative to the docs dir
	Section            string `json:"section,omitempty"`
	Title              string `json:"title,omitempty"`
	RenderedPath       string `json:"rendered_path"` // HTML file in the output tree
	PageURL            string `json:"page_url,omitempty"`

	// Failure tracking carried over from the cache
	Timestamp     time.Time `json:"timestamp"`
	LastChecked   time.Time `json:"last_checked,omitzero"`
	FailureCount  int       `json:"failure_count"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`

	// Build context
	BuildID   string    `json:"build_id,omitempty"`
	BuildTime time.Time `json:"build_time,omitzero"`
}
