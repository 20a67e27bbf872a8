package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultSynthesizeTimeout = 60 * time.Second

// MurfClient calls the Murf speech/generate REST API.
type MurfClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	voiceID    string
	sampleRate int
}

func NewMurfClient(apiKey, voiceID string, sampleRate int) (*MurfClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	return NewMurfClientWithURL(apiKey, voiceID, sampleRate, "https://api.murf.ai/v1"), nil
}

func NewMurfClientWithURL(apiKey, voiceID string, sampleRate int, baseURL string) *MurfClient {
	if voiceID == "" {
		voiceID = "en-US-natalie"
	}
	if sampleRate == 0 {
		sampleRate = 48000
	}
	return &MurfClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultSynthesizeTimeout},
		baseURL:    baseURL,
		voiceID:    voiceID,
		sampleRate: sampleRate,
	}
}

type generateRequest struct {
	Text        string `json:"text"`
	VoiceID     string `json:"voice_id"`
	Format      string `json:"format"`
	ChannelType string `json:"channelType"`
	SampleRate  int    `json:"sampleRate"`
}

type generateResponse struct {
	AudioFile string `json:"audioFile"`
	AudioURL  string `json:"audio_url"`
}

// Synthesize narrates text as mono WAV audio. Murf either returns the WAV
// body directly or a JSON envelope with a temporary download URL; both shapes
// are handled.
func (c *MurfClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("nil murf client")
	}
	text = CleanMarkdown(text)
	if text == "" {
		return nil, fmt.Errorf("no text to synthesize")
	}

	reqCtx, cancel := context.WithTimeout(ctx, defaultSynthesizeTimeout)
	defer cancel()

	reqBody := generateRequest{
		Text:        text,
		VoiceID:     c.voiceID,
		Format:      "WAV",
		ChannelType: "MONO",
		SampleRate:  c.sampleRate,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/speech/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("murf API error %d: %s", resp.StatusCode, string(respBody))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var result generateResponse
		if err = json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		audioURL := result.AudioFile
		if audioURL == "" {
			audioURL = result.AudioURL
		}
		if audioURL == "" {
			return nil, fmt.Errorf("murf: response carries no audio url")
		}
		return c.download(reqCtx, audioURL)
	}

	if len(respBody) == 0 {
		return nil, fmt.Errorf("murf: empty audio body")
	}
	return respBody, nil
}

func (c *MurfClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio download error %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("murf: empty audio body")
	}
	return audio, nil
}
