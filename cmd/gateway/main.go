package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"askify/internal/app"
	"askify/internal/cache"
	"askify/internal/dub"
	"askify/internal/httputil"
	"askify/internal/pipeline"
	"askify/internal/queue"
)

type askRequest struct {
	Query string `json:"query" validate:"required,min=1,max=500"`
	Lang  string `json:"lang" validate:"omitempty,max=32"`
}

type dubTaskPayload struct {
	JobID uuid.UUID `json:"job_id"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	runner := pipeline.NewRunner(deps.Transcriber, deps.LLM, deps.Synthesizer, deps.Log)

	r := httputil.NewRouter(deps.Log)

	r.Post("/api/ask", askHandler(deps, runner))
	r.Post("/api/ask/audio", askAudioHandler(deps, runner))
	r.Post("/api/dub", dubCreateHandler(deps))
	r.Get("/api/dub/{id}", dubStatusHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func askHandler(deps app.Deps, runner *pipeline.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		result, err := runner.Run(r.Context(), pipeline.Input{Query: req.Query})
		if err != nil {
			failPipeline(deps.Log, w, err)
			return
		}
		writeSession(w, result)
	}
}

func askAudioHandler(deps app.Deps, runner *pipeline.Runner) http.HandlerFunc {
	maxUploadSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxUploadSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("audio too large (max %d bytes)", maxUploadSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("audio")
		if err != nil {
			httputil.Fail(deps.Log, w, "audio file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxUploadSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("audio too large (max %d bytes)", maxUploadSize), nil, http.StatusBadRequest)
			return
		}

		clip, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read audio", err, http.StatusInternalServerError)
			return
		}

		result, err := runner.Run(r.Context(), pipeline.Input{Audio: clip})
		if err != nil {
			failPipeline(deps.Log, w, err)
			return
		}
		writeSession(w, result)
	}
}

func dubCreateHandler(deps app.Deps) http.HandlerFunc {
	maxUploadSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.ContentLength > maxUploadSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxUploadSize), nil, http.StatusBadRequest)
			return
		}

		targetLocale := r.FormValue("target_locale")
		if !dub.SupportedLocale(targetLocale) {
			httputil.Fail(deps.Log, w, fmt.Sprintf("unsupported target_locale %q", targetLocale), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "media file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxUploadSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxUploadSize), nil, http.StatusBadRequest)
			return
		}

		mediaPath, err := spoolMedia(deps.Config.MediaDir, header.Filename, file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to store media", err, http.StatusInternalServerError)
			return
		}

		job, err := deps.Store.CreateJob(ctx, header.Filename, targetLocale, mediaPath)
		if err != nil {
			removeSpool(deps.Log, mediaPath)
			httputil.Fail(deps.Log, w, "failed to persist job", err, http.StatusInternalServerError)
			return
		}

		body, err := json.Marshal(dubTaskPayload{JobID: job.ID})
		if err != nil {
			httputil.Fail(deps.Log, w, "marshal payload failed", err, http.StatusInternalServerError)
			return
		}
		task := queue.Task{Type: queue.TaskTypeDub, Payload: body}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			if mfErr := deps.Store.MarkFailed(ctx, job.ID, "failed to enqueue"); mfErr != nil {
				deps.Log.Error("failed to mark job failed", "job_id", job.ID, "err", mfErr)
			}
			// No worker will ever pick this job up, so the spool file has no owner.
			removeSpool(deps.Log, mediaPath)
			httputil.Fail(deps.Log, w, "failed to enqueue job; please retry", err, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"job_id": job.ID.String(),
			"status": job.Status,
		})
	}
}

func dubStatusHandler(deps app.Deps) http.HandlerFunc {
	statusTTL := time.Duration(deps.Config.StatusTTLSec) * time.Second

	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		jobID, err := uuid.Parse(idStr)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid job id", err, http.StatusBadRequest)
			return
		}
		ctx := r.Context()

		// Clients poll this endpoint; a short-TTL cache keeps them off the DB.
		if cached, err := deps.Cache.GetJobView(ctx, jobID.String()); err == nil && cached != nil {
			httputil.WriteJSON(w, http.StatusOK, cached)
			return
		}

		job, err := deps.Store.GetJob(ctx, jobID)
		if err != nil {
			httputil.Fail(deps.Log, w, "job not found", err, http.StatusNotFound)
			return
		}

		view := &cache.JobView{
			Status:        string(job.Status),
			VideoURL:      job.VideoURL,
			SubtitlesURL:  job.SubtitlesURL,
			Notes:         job.Notes,
			FailureReason: job.FailureReason,
		}
		if err := deps.Cache.SetJobView(ctx, jobID.String(), view, statusTTL); err != nil {
			deps.Log.Warn("failed to cache job view", "err", err)
		}
		httputil.WriteJSON(w, http.StatusOK, view)
	}
}

// spoolMedia writes the uploaded media into the spool dir under a unique name
// so the worker can pick it up later.
func spoolMedia(dir, filename string, src io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s", uuid.NewString()[:8], filepath.Base(filename))
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func removeSpool(log *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove spooled media", "path", path, "err", err)
	}
}

func writeSession(w http.ResponseWriter, result pipeline.SessionResult) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"query":       result.Query,
		"explanation": result.Explanation,
		"notes":       result.Notes,
		"audio_b64":   base64.StdEncoding.EncodeToString(result.Audio),
	})
}

// failPipeline maps a pipeline failure to an HTTP response carrying its kind
// so the UI can render a per-kind message.
func failPipeline(log *slog.Logger, w http.ResponseWriter, err error) {
	kind, ok := pipeline.KindOf(err)
	if !ok {
		httputil.Fail(log, w, "pipeline failed", err, http.StatusInternalServerError)
		return
	}

	status := http.StatusBadGateway
	if kind == pipeline.KindRecognition {
		status = http.StatusUnprocessableEntity
	}
	log.Error("pipeline failed", "kind", kind, "err", err)
	httputil.WriteJSON(w, status, map[string]any{
		"error":      err.Error(),
		"error_code": string(kind),
	})
}
