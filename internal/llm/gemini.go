package llm

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

const defaultGenerateTimeout = 30 * time.Second

const explainPrompt = `You are a knowledgeable teacher.
- Explain the student's query in a clear and simple way, as if you are teaching in a classroom.
- Keep the explanation focused and not too long.
- Use everyday examples to make it relatable.
- Avoid giving a step-by-step essay, instead explain naturally like a real teacher would.

Student's query: %s`

const summaryPrompt = `Your task is to generate a short summary of the given text
in the form of bullet points (like class notes).

- Use 4-5 concise bullet points.
- Keep each point short (max 1-2 lines).
- Start each point with "- ".
- Do not add new information that is not present in the original text.

Text: %s`

const transcriptPrompt = `You are a helpful teacher. Create compact class notes in bullet points from the following transcript text.

Rules:
- 4-7 concise bullets.
- Keep each bullet <= 2 lines.
- Start each bullet with "- ".
- No new facts not present in text.
- Use plain language.

Transcript:
%s

Notes:`

// GeminiClient calls the Gemini generateContent REST API.
type GeminiClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	return NewGeminiClientWithURL(apiKey, model, "https://generativelanguage.googleapis.com/v1beta"), nil
}

func NewGeminiClientWithURL(apiKey, model, baseURL string) *GeminiClient {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultGenerateTimeout},
		baseURL:    baseURL,
		model:      model,
	}
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *GeminiClient) Explain(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("empty query")
	}
	return c.generate(ctx, fmt.Sprintf(explainPrompt, query))
}

func (c *GeminiClient) SummarizeNotes(ctx context.Context, text string) ([]string, error) {
	out, err := c.generate(ctx, fmt.Sprintf(summaryPrompt, text))
	if err != nil {
		return nil, err
	}
	return ParseBullets(out), nil
}

func (c *GeminiClient) TranscriptNotes(ctx context.Context, transcript string) ([]string, error) {
	out, err := c.generate(ctx, fmt.Sprintf(transcriptPrompt, transcript))
	if err != nil {
		return nil, err
	}
	return ParseBullets(out), nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.httpClient == nil {
		return "", fmt.Errorf("nil gemini client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultGenerateTimeout)
	defer cancel()

	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result generateResponse
	if err = json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("gemini error: %s", result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	text := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}

// ParseBullets extracts bullet items from model output, tolerating "-", "*"
// and numbered list markers. Non-list lines are kept as their own items so a
// model that ignores the bullet instruction still yields usable notes.
func ParseBullets(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		trimmed = strings.TrimLeft(trimmed, "-*• ")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == "" {
			continue
		}
		bullets = append(bullets, trimmed)
	}
	return bullets
}
