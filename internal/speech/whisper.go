package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultTranscribeTimeout = 30 * time.Second

// WhisperClient transcribes audio via the OpenAI audio transcriptions API.
type WhisperClient struct {
	model    openai.AudioModel
	language string
	client   *openai.Client
}

// NewWhisperClient builds a transcriber against api.openai.com.
func NewWhisperClient(apiKey, model, language string) (*WhisperClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	m := openai.AudioModel(model)
	if m == "" {
		m = openai.AudioModelWhisper1
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &WhisperClient{
		model:    m,
		language: language,
		client:   &cli,
	}, nil
}

// NewWhisperClientWithURL points the client at a custom base URL. Used in tests.
func NewWhisperClientWithURL(apiKey, model, language, baseURL string) (*WhisperClient, error) {
	c, err := NewWhisperClient(apiKey, model, language)
	if err != nil {
		return nil, err
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL))
	c.client = &cli
	return c, nil
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil whisper client")
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio clip")
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultTranscribeTimeout)
	defer cancel()

	// The transcriptions endpoint infers the codec from the upload's filename
	// extension, so the part must be named.
	params := openai.AudioTranscriptionNewParams{
		Model: c.model,
		File:  openai.File(bytes.NewReader(audio), "audio.wav", "audio/wav"),
	}
	if c.language != "" {
		params.Language = openai.String(c.language)
	}
	resp, err := c.client.Audio.Transcriptions.New(reqCtx, params)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("whisper: no transcript produced")
	}
	return text, nil
}
