package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"askify/internal/app"
	"askify/internal/cache"
	"askify/internal/config"
	"askify/internal/llm"
	"askify/internal/pipeline"
	"askify/internal/queue"
	"askify/internal/speech"
	"askify/internal/store"
	"askify/internal/tts"
)

type testMocks struct {
	store       *store.MockStore
	queue       *queue.MockQueue
	cache       *cache.MockCache
	llm         *llm.MockClient
	transcriber *speech.MockTranscriber
	synth       *tts.MockSynthesizer
}

func newTestDeps() (app.Deps, *pipeline.Runner, testMocks) {
	m := testMocks{
		store:       &store.MockStore{},
		queue:       &queue.MockQueue{},
		cache:       &cache.MockCache{},
		llm:         &llm.MockClient{},
		transcriber: &speech.MockTranscriber{},
		synth:       &tts.MockSynthesizer{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := app.Deps{
		Config: config.Config{
			MaxUploadSize: 1024 * 1024, // 1MB for tests
			MediaDir:      "",
			StatusTTLSec:  5,
		},
		Log:         log,
		Store:       m.store,
		Queue:       m.queue,
		Cache:       m.cache,
		LLM:         m.llm,
		Transcriber: m.transcriber,
		Synthesizer: m.synth,
	}
	runner := pipeline.NewRunner(m.transcriber, m.llm, m.synth, log)
	return deps, runner, m
}

func TestAskHandler(t *testing.T) {
	explanation := "Gravity is the force that pulls masses toward each other."

	tests := []struct {
		name          string
		body          string
		setup         func(testMocks)
		wantStatus    int
		checkResponse func(*testing.T, *http.Response)
	}{
		{
			name: "successful session",
			body: `{"query":"What is gravity?"}`,
			setup: func(m testMocks) {
				m.llm.On("Explain", mock.Anything, "What is gravity?").Return(explanation, nil).Once()
				m.llm.On("SummarizeNotes", mock.Anything, explanation).
					Return([]string{"Gravity pulls masses together."}, nil).Once()
				m.synth.On("Synthesize", mock.Anything, explanation).Return([]byte("RIFFwav"), nil).Once()
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result map[string]any
				if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if result["explanation"] == "" {
					t.Error("Expected non-empty explanation")
				}
				if notes, ok := result["notes"].([]any); !ok || len(notes) == 0 {
					t.Errorf("Expected at least one note, got %v", result["notes"])
				}
				if result["audio_b64"] == "" {
					t.Error("Expected non-empty audio")
				}
			},
		},
		{
			name:       "invalid json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty query rejected by validation",
			body:       `{"query":""}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "oversized query rejected",
			body:       `{"query":"` + strings.Repeat("a", 600) + `"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "generation failure maps to bad gateway",
			body: `{"query":"What is gravity?"}`,
			setup: func(m testMocks) {
				m.llm.On("Explain", mock.Anything, mock.Anything).
					Return("", errors.New("quota exhausted")).Once()
			},
			wantStatus: http.StatusBadGateway,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result map[string]any
				if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if result["error_code"] != string(pipeline.KindGeneration) {
					t.Errorf("Expected error_code %s, got %v", pipeline.KindGeneration, result["error_code"])
				}
			},
		},
		{
			name: "synthesis failure maps to bad gateway",
			body: `{"query":"What is gravity?"}`,
			setup: func(m testMocks) {
				m.llm.On("Explain", mock.Anything, mock.Anything).Return(explanation, nil).Once()
				m.llm.On("SummarizeNotes", mock.Anything, mock.Anything).
					Return([]string{"note"}, nil).Maybe()
				m.synth.On("Synthesize", mock.Anything, mock.Anything).
					Return(nil, errors.New("unsupported text length")).Once()
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, runner, m := newTestDeps()
			if tt.setup != nil {
				tt.setup(m)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			askHandler(deps, runner)(rec, req)

			resp := rec.Result()
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAskAudioHandler(t *testing.T) {
	deps, runner, m := newTestDeps()

	explanation := "Photosynthesis turns sunlight into sugar."
	m.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return("What is photosynthesis?", nil).Once()
	m.llm.On("Explain", mock.Anything, "What is photosynthesis?").Return(explanation, nil).Once()
	m.llm.On("SummarizeNotes", mock.Anything, explanation).Return([]string{"note"}, nil).Once()
	m.synth.On("Synthesize", mock.Anything, explanation).Return([]byte("RIFFwav"), nil).Once()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", "clip.wav")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("fake-audio"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ask/audio", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	askAudioHandler(deps, runner)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["query"] != "What is photosynthesis?" {
		t.Errorf("Expected transcribed query in response, got %v", result["query"])
	}
	m.transcriber.AssertExpectations(t)
}

func TestAskAudioHandlerRecognitionFailure(t *testing.T) {
	deps, runner, m := newTestDeps()

	m.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return("", errors.New("unintelligible audio")).Once()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("audio", "clip.wav")
	part.Write([]byte("noise"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ask/audio", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	askAudioHandler(deps, runner)(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	var result map[string]any
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result["error_code"] != string(pipeline.KindRecognition) {
		t.Errorf("Expected error_code %s, got %v", pipeline.KindRecognition, result["error_code"])
	}
	// Downstream services must not run on recognition failure.
	m.llm.AssertNotCalled(t, "Explain", mock.Anything, mock.Anything)
	m.synth.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
}

// chiRouteContext injects chi URL params for direct handler invocation.
func chiRouteContext(r *http.Request, rctx *chi.Context) context.Context {
	return context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
}

func newDubRequest(t *testing.T, locale string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if locale != "" {
		writer.WriteField("target_locale", locale)
	}
	part, err := writer.CreateFormFile("file", "lesson.mp4")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/dub", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestDubCreateHandler(t *testing.T) {
	jobID := uuid.New()

	tests := []struct {
		name        string
		locale      string
		setup       func(testMocks)
		wantStatus  int
		wantSpooled int
	}{
		{
			name:   "successful job creation",
			locale: "es_MX",
			setup: func(m testMocks) {
				m.store.On("CreateJob", mock.Anything, "lesson.mp4", "es_MX", mock.Anything).
					Return(store.DubJob{ID: jobID, Status: store.StatusQueued}, nil).Once()
				m.queue.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantStatus:  http.StatusAccepted,
			wantSpooled: 1,
		},
		{
			name:       "unsupported locale",
			locale:     "xx_XX",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing locale",
			locale:     "",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "store failure",
			locale: "es_MX",
			setup: func(m testMocks) {
				m.store.On("CreateJob", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(store.DubJob{}, errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "enqueue failure marks job failed",
			locale: "es_MX",
			setup: func(m testMocks) {
				m.store.On("CreateJob", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(store.DubJob{ID: jobID, Status: store.StatusQueued}, nil).Once()
				m.queue.On("Enqueue", mock.Anything, mock.Anything).
					Return(errors.New("nats down")).Times(3)
				m.store.On("MarkFailed", mock.Anything, jobID, mock.Anything).Return(nil).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, _, m := newTestDeps()
			deps.Config.MediaDir = t.TempDir()
			if tt.setup != nil {
				tt.setup(m)
			}

			rec := httptest.NewRecorder()
			dubCreateHandler(deps)(rec, newDubRequest(t, tt.locale, []byte("mp4-bytes")))

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			m.store.AssertExpectations(t)
			m.queue.AssertExpectations(t)

			// A job that will never reach the worker must not leak spooled media.
			entries, err := os.ReadDir(deps.Config.MediaDir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != tt.wantSpooled {
				t.Errorf("spooled files: got %d, want %d", len(entries), tt.wantSpooled)
			}
		})
	}
}

func TestDubStatusHandler(t *testing.T) {
	jobID := uuid.New()

	deps, _, m := newTestDeps()
	m.cache.On("GetJobView", mock.Anything, jobID.String()).Return(nil, nil).Once()
	m.store.On("GetJob", mock.Anything, jobID).Return(store.DubJob{
		ID:           jobID,
		Status:       store.StatusCompleted,
		VideoURL:     "http://x/video.mp4",
		SubtitlesURL: "http://x/subs.srt",
		Notes:        []string{"Gravity pulls masses together."},
	}, nil).Once()
	m.cache.On("SetJobView", mock.Anything, jobID.String(), mock.Anything, mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/dub/"+jobID.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", jobID.String())
	req = req.WithContext(chiRouteContext(req, rctx))
	rec := httptest.NewRecorder()

	dubStatusHandler(deps)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	var view cache.JobView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.Status != string(store.StatusCompleted) {
		t.Errorf("Expected status completed, got %s", view.Status)
	}
	if view.VideoURL == "" || len(view.Notes) == 0 {
		t.Errorf("Expected video URL and notes, got %+v", view)
	}
	m.cache.AssertExpectations(t)
}

func TestDubStatusHandlerCacheHit(t *testing.T) {
	jobID := uuid.New()

	deps, _, m := newTestDeps()
	m.cache.On("GetJobView", mock.Anything, jobID.String()).
		Return(&cache.JobView{Status: "dubbing"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/dub/"+jobID.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", jobID.String())
	req = req.WithContext(chiRouteContext(req, rctx))
	rec := httptest.NewRecorder()

	dubStatusHandler(deps)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	m.store.AssertNotCalled(t, "GetJob", mock.Anything, mock.Anything)
}
