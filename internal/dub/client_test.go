package dub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/create" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "lesson.mp4", r.FormValue("file_name"))
		assert.Equal(t, "es_MX", r.FormValue("target_locales"))
		assert.Equal(t, "LOW", r.FormValue("priority"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		file.Close()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"job_id": "job-123"})
	}))
	defer server.Close()

	client := NewClientWithURL("test-key", 0, 0, server.URL)
	job, err := client.CreateJob(context.Background(), "lesson.mp4", strings.NewReader("mp4-bytes"), "es_MX", "")
	require.NoError(t, err)
	assert.Equal(t, "job-123", job.ID)
}

func TestCreateJobRejectsUnknownLocale(t *testing.T) {
	client := NewClientWithURL("test-key", 0, 0, "http://unused")
	_, err := client.CreateJob(context.Background(), "lesson.mp4", strings.NewReader("x"), "xx_XX", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job-123/status", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "completed",
			"download_details": []map[string]string{
				{"locale": "es_MX", "download_url": "http://x/video.mp4", "download_srt_url": "http://x/subs.srt"},
			},
		})
	}))
	defer server.Close()

	client := NewClientWithURL("test-key", 0, 0, server.URL)
	status, err := client.GetStatus(context.Background(), "job-123")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.True(t, status.Terminal())
	require.Len(t, status.DownloadDetails, 1)
	assert.Equal(t, "http://x/subs.srt", status.DownloadDetails[0].DownloadSrtURL)
}

func TestPollUntilComplete(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "PROCESSING"
		if calls.Add(1) >= 3 {
			status = "COMPLETED"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}))
	defer server.Close()

	client := NewClientWithURL("test-key", time.Millisecond, time.Second, server.URL)
	status, err := client.PollUntilComplete(context.Background(), "job-123")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestPollUntilCompleteTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "PROCESSING"})
	}))
	defer server.Close()

	client := NewClientWithURL("test-key", time.Millisecond, 10*time.Millisecond, server.URL)
	_, err := client.PollUntilComplete(context.Background(), "job-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestJobStatusTerminal(t *testing.T) {
	tests := []struct {
		status   string
		terminal bool
	}{
		{"COMPLETED", true},
		{"FAILED", true},
		{"ERROR", true},
		{"failed", true},
		{"PROCESSING", false},
		{"QUEUED", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.terminal, JobStatus{Status: tt.status}.Terminal(), tt.status)
	}
}
