package cache

import (
	"context"
	"time"
)

// Cache damps repeated dub status lookups while clients poll.
type Cache interface {
	// GetJobView retrieves a cached job view by job id.
	// Returns nil if not found.
	GetJobView(ctx context.Context, jobID string) (*JobView, error)

	// SetJobView stores a job view with TTL.
	SetJobView(ctx context.Context, jobID string, view *JobView, ttl time.Duration) error

	// InvalidateJob removes the cached view for a job, e.g. when the worker
	// records a terminal status.
	InvalidateJob(ctx context.Context, jobID string) error

	// Close closes the cache connection.
	Close() error
}

// JobView is the client-facing snapshot of a dub job.
type JobView struct {
	Status        string   `json:"status"`
	VideoURL      string   `json:"dubbed_video_url,omitempty"`
	SubtitlesURL  string   `json:"subtitles_url,omitempty"`
	Notes         []string `json:"notes,omitempty"`
	FailureReason string   `json:"failure_reason,omitempty"`
}
