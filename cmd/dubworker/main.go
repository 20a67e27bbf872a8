package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"askify/internal/app"
	"askify/internal/chunker"
	"askify/internal/dub"
	"askify/internal/httputil"
	"askify/internal/queue"
	"askify/internal/store"
)

// notesPromptBudget caps how much transcript goes into a single
// notes-generation prompt.
const notesPromptBudget = 3000

type dubTaskPayload struct {
	JobID uuid.UUID `json:"job_id"`
}

func main() {
	deps, err := app.BuildWorker()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("dub worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeDub, func(ctx context.Context, task queue.Task) error {
			var payload dubTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleDub(ctx, deps, payload.JobID)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, "dubworker", deps.Config.Port)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("dub worker stopped", "err", err)
	}
}

func handleDub(ctx context.Context, deps app.WorkerDeps, jobID uuid.UUID) error {
	log := deps.Log.With("job_id", jobID)

	job, err := deps.Store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	if job.Status == store.StatusQueued {
		if err := deps.Store.UpdateJobStatus(ctx, jobID, store.StatusDubbing); err != nil {
			return err
		}
	}

	// A retried task may already have a Murf job; don't create a duplicate.
	murfJobID := job.MurfJobID
	if murfJobID == "" {
		murfJobID, err = createMurfJob(ctx, deps, job)
		if err != nil {
			markFailed(ctx, deps, jobID, err.Error())
			return err
		}
		if err := deps.Store.SetMurfJobID(ctx, jobID, murfJobID); err != nil {
			return err
		}
		log.Info("dub job submitted", "murf_job_id", murfJobID)
	}

	status, err := deps.Dub.PollUntilComplete(ctx, murfJobID)
	if err != nil {
		markFailed(ctx, deps, jobID, err.Error())
		return err
	}

	if status.Status != dub.StatusCompleted {
		reason := status.FailureReason
		if reason == "" {
			reason = fmt.Sprintf("dub job ended with status %s", status.Status)
		}
		log.Warn("dub job failed upstream", "status", status.Status, "failure_code", status.FailureCode, "credits_remaining", status.CreditsRemaining)
		markFailed(ctx, deps, jobID, reason)
		return nil // upstream rejection is terminal, don't retry
	}

	var videoURL, subtitlesURL string
	if len(status.DownloadDetails) > 0 {
		videoURL = status.DownloadDetails[0].DownloadURL
		subtitlesURL = status.DownloadDetails[0].DownloadSrtURL
	}

	var notes []string
	if subtitlesURL != "" {
		notes, err = transcriptNotes(ctx, deps, subtitlesURL)
		if err != nil {
			// Notes are best-effort; the dubbed video is still a usable result.
			log.Warn("failed to generate notes", "err", err)
			notes = nil
		}
	}

	if err := deps.Store.SaveResult(ctx, jobID, store.Result{
		VideoURL:     videoURL,
		SubtitlesURL: subtitlesURL,
		Notes:        notes,
	}); err != nil {
		return err
	}
	invalidateView(ctx, deps, jobID)

	cleanupMedia(log, job.MediaPath)
	log.Info("dub job completed", "notes", len(notes))
	return nil
}

func createMurfJob(ctx context.Context, deps app.WorkerDeps, job store.DubJob) (string, error) {
	media, err := os.Open(job.MediaPath)
	if err != nil {
		return "", fmt.Errorf("opening spooled media: %w", err)
	}
	defer media.Close()

	created, err := deps.Dub.CreateJob(ctx, job.Filename, media, job.TargetLocale, "LOW")
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func transcriptNotes(ctx context.Context, deps app.WorkerDeps, subtitlesURL string) ([]string, error) {
	srt, err := deps.Dub.DownloadBytes(ctx, subtitlesURL)
	if err != nil {
		return nil, fmt.Errorf("downloading subtitles: %w", err)
	}
	transcript := dub.SRTToPlainText(srt)
	if transcript == "" {
		return nil, fmt.Errorf("empty transcript")
	}

	chunks := chunker.ChunkText(transcript, chunker.Options{MaxTokens: notesPromptBudget})
	if len(chunks) > 0 {
		transcript = chunks[0].Text
	}
	return deps.LLM.TranscriptNotes(ctx, transcript)
}

func markFailed(ctx context.Context, deps app.WorkerDeps, jobID uuid.UUID, reason string) {
	if err := deps.Store.MarkFailed(ctx, jobID, reason); err != nil {
		deps.Log.Error("failed to mark job failed", "job_id", jobID, "err", err)
	}
	invalidateView(ctx, deps, jobID)
}

// invalidateView drops the cached status snapshot so clients polling the
// gateway see the terminal state immediately instead of after the TTL.
func invalidateView(ctx context.Context, deps app.WorkerDeps, jobID uuid.UUID) {
	if deps.Cache == nil {
		return
	}
	if err := deps.Cache.InvalidateJob(ctx, jobID.String()); err != nil {
		deps.Log.Warn("failed to invalidate cached job view", "job_id", jobID, "err", err)
	}
}

func cleanupMedia(log *slog.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove spooled media", "path", path, "err", err)
	}
}
