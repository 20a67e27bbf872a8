package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusDubbing   JobStatus = "dubbing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

var ErrJobNotFound = errors.New("dub job not found")

// DubJob is one dubbing request and, once finished, its results.
type DubJob struct {
	ID            uuid.UUID
	Filename      string
	TargetLocale  string
	MediaPath     string
	Status        JobStatus
	MurfJobID     string
	VideoURL      string
	SubtitlesURL  string
	Notes         []string
	FailureReason string
	CreatedAt     time.Time
}

// Result holds the artifacts of a completed dubbing job.
type Result struct {
	VideoURL     string
	SubtitlesURL string
	Notes        []string
}

// Store defines persistence contract; an external DB implementation can replace this.
type Store interface {
	CreateJob(ctx context.Context, filename, targetLocale, mediaPath string) (DubJob, error)
	GetJob(ctx context.Context, id uuid.UUID) (DubJob, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status JobStatus) error
	SetMurfJobID(ctx context.Context, id uuid.UUID, murfJobID string) error
	SaveResult(ctx context.Context, id uuid.UUID, result Result) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}
