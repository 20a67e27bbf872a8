package dub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"askify/internal/retry"
)

// Terminal job statuses reported by the Murf dubbing API.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusError     = "ERROR"
)

// Job identifies a dubbing job accepted by Murf.
type Job struct {
	ID string `json:"job_id"`
}

// DownloadDetail carries per-locale artifact URLs for a finished job.
type DownloadDetail struct {
	Locale         string `json:"locale"`
	DownloadURL    string `json:"download_url"`
	DownloadSrtURL string `json:"download_srt_url"`
}

// JobStatus is the current state of a dubbing job.
type JobStatus struct {
	Status           string           `json:"status"`
	FailureReason    string           `json:"failure_reason"`
	FailureCode      string           `json:"failure_code"`
	CreditsRemaining float64          `json:"credits_remaining"`
	DownloadDetails  []DownloadDetail `json:"download_details"`
}

// Terminal reports whether the job has finished, successfully or not.
func (s JobStatus) Terminal() bool {
	switch strings.ToUpper(s.Status) {
	case StatusCompleted, StatusFailed, StatusError:
		return true
	}
	return false
}

// Client calls the Murf dubbing REST API.
type Client struct {
	apiKey       string
	httpClient   *http.Client
	baseURL      string
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewClient(apiKey string, pollInterval, pollTimeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	return NewClientWithURL(apiKey, pollInterval, pollTimeout, "https://api.murf.ai/v1/murfdub"), nil
}

func NewClientWithURL(apiKey string, pollInterval, pollTimeout time.Duration, baseURL string) *Client {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Minute
	}
	return &Client{
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		baseURL:      baseURL,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

// CreateJob uploads a media file and requests dubbing into targetLocale.
func (c *Client) CreateJob(ctx context.Context, fileName string, file io.Reader, targetLocale, priority string) (Job, error) {
	if !SupportedLocale(targetLocale) {
		return Job{}, fmt.Errorf("target locale %q not supported", targetLocale)
	}
	if priority == "" {
		priority = "LOW"
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		defer pw.Close()
		part, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("creating form file: %w", err))
			return
		}
		if _, err = io.Copy(part, file); err != nil {
			pw.CloseWithError(fmt.Errorf("writing media: %w", err))
			return
		}
		if err = writer.WriteField("file_name", fileName); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err = writer.WriteField("target_locales", targetLocale); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err = writer.WriteField("priority", priority); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs/create", pr)
	if err != nil {
		return Job{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Job{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Job{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Job{}, fmt.Errorf("murf dub API error %d: %s", resp.StatusCode, string(respBody))
	}

	var job struct {
		JobID string `json:"job_id"`
		ID    string `json:"id"`
	}
	if err = json.Unmarshal(respBody, &job); err != nil {
		return Job{}, fmt.Errorf("decoding response: %w", err)
	}
	id := job.JobID
	if id == "" {
		id = job.ID
	}
	if id == "" {
		return Job{}, fmt.Errorf("murf dub: response carries no job id")
	}
	return Job{ID: id}, nil
}

// GetStatus fetches the current status of a dubbing job.
func (c *Client) GetStatus(ctx context.Context, jobID string) (JobStatus, error) {
	url := fmt.Sprintf("%s/jobs/%s/status", c.baseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return JobStatus{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return JobStatus{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return JobStatus{}, fmt.Errorf("murf dub API error %d: %s", resp.StatusCode, string(respBody))
	}

	var status JobStatus
	if err = json.Unmarshal(respBody, &status); err != nil {
		return JobStatus{}, fmt.Errorf("decoding response: %w", err)
	}
	status.Status = strings.ToUpper(status.Status)
	return status, nil
}

// PollUntilComplete polls the job until it reaches a terminal status. The
// interval grows slowly (doubling every fifth attempt, capped at 15 seconds)
// and the overall wait is bounded by the configured poll timeout.
func (c *Client) PollUntilComplete(ctx context.Context, jobID string) (JobStatus, error) {
	deadline := time.Now().Add(c.pollTimeout)

	for attempt := 0; ; attempt++ {
		status, err := c.GetStatus(ctx, jobID)
		if err != nil {
			return JobStatus{}, err
		}
		if status.Terminal() {
			return status, nil
		}
		if time.Now().After(deadline) {
			return JobStatus{}, fmt.Errorf("polling job %s timed out after %s", jobID, c.pollTimeout)
		}

		sleep := retry.CappedBackoff(attempt/5, c.pollInterval, 15*time.Second)
		select {
		case <-ctx.Done():
			return JobStatus{}, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// DownloadBytes fetches a job artifact (dubbed media or subtitles) by URL.
func (c *Client) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading artifact: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artifact download error %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
