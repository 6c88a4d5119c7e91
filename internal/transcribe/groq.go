package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGroqURL   = "https://api.groq.com/openai/v1/audio/transcriptions"
	defaultGroqModel = "whisper-large-v3-turbo"
)

// groqProvider talks to Groq's OpenAI-compatible transcription endpoint with
// a plain multipart upload.
type groqProvider struct {
	apiKey string
	url    string
	model  string
	prompt string
	http   *http.Client
}

func newGroqProvider(opts Options) *groqProvider {
	url := defaultGroqURL
	if opts.BaseURL != "" {
		url = NormalizeBaseURL(opts.BaseURL) + "/audio/transcriptions"
	}
	model := opts.Model
	if model == "" {
		model = defaultGroqModel
	}
	return &groqProvider{
		apiKey: opts.GroqKey,
		url:    url,
		model:  model,
		prompt: opts.Prompt,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *groqProvider) Name() string { return "groq" }

func (p *groqProvider) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}
	if err := writer.WriteField("model", p.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if p.prompt != "" {
		if err := writer.WriteField("prompt", p.prompt); err != nil {
			return "", fmt.Errorf("write prompt field: %w", err)
		}
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("write response_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(body))
	}

	var apiResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return strings.TrimSpace(apiResp.Text), nil
}
