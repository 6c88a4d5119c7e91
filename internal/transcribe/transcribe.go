// Package transcribe converts finished utterance WAVs into text through one
// of a closed set of speech-to-text backends, selected once at configuration
// time.
package transcribe

import (
	"context"
	"fmt"
	"strings"
)

// Provider turns a WAV-encoded utterance into text.
type Provider interface {
	// Name identifies the backend for logs and status output.
	Name() string
	// Transcribe performs one synchronous transcription call.
	Transcribe(ctx context.Context, wavData []byte) (string, error)
}

// Options configures backend selection.
type Options struct {
	Backend   string // openai, groq, whisper; empty picks by available key
	Model     string
	Prompt    string
	BaseURL   string
	ModelPath string // whisper backend
	OpenAIKey string
	GroqKey   string
}

// New resolves the configured backend. With no explicit backend, the Groq
// key wins over the OpenAI key, matching the historical behavior users rely
// on for cost reasons.
func New(opts Options) (Provider, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		switch {
		case opts.GroqKey != "":
			backend = "groq"
		case opts.OpenAIKey != "":
			backend = "openai"
		default:
			return nil, fmt.Errorf("no transcription backend configured: set transcribe.backend or provide GROQ_API_KEY / OPENAI_API_KEY")
		}
	}
	switch backend {
	case "openai":
		if opts.OpenAIKey == "" {
			return nil, fmt.Errorf("openai backend requires an API key")
		}
		return newOpenAIProvider(opts), nil
	case "groq":
		if opts.GroqKey == "" {
			return nil, fmt.Errorf("groq backend requires an API key")
		}
		return newGroqProvider(opts), nil
	case "whisper":
		return newLocalProvider(opts)
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", opts.Backend)
	}
}

// NormalizeBaseURL ensures a custom endpoint ends in /v1, the path prefix
// every OpenAI-compatible server expects.
func NormalizeBaseURL(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	clean := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(clean, "/v1") {
		clean += "/v1"
	}
	return clean
}
