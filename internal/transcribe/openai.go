package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

const defaultOpenAIModel = "whisper-1"

type openAIProvider struct {
	client openai.Client
	model  string
	prompt string
}

func newOpenAIProvider(opts Options) *openAIProvider {
	requestOpts := []option.RequestOption{option.WithAPIKey(opts.OpenAIKey)}
	if url := NormalizeBaseURL(opts.BaseURL); url != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(url))
	}
	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIProvider{
		client: openai.NewClient(requestOpts...),
		model:  model,
		prompt: opts.Prompt,
	}
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(wavData), "utterance.wav", "audio/wav"),
		Model:          openai.AudioModel(p.model),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if p.prompt != "" {
		params.Prompt = param.NewOpt(p.prompt)
	}
	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("openai transcription: empty response")
	}
	return strings.TrimSpace(resp.Text), nil
}
