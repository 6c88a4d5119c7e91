// Package correct rewrites raw transcripts through a chat model, fixing
// punctuation and grammar while carrying a short rolling history of prior
// corrections as context.
package correct

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DefaultPrompt is the system instruction used when the configuration does
// not override it.
const DefaultPrompt = "You are a text correction expert. Fix punctuation, grammar, and typos while keeping the user's intent unchanged.\nReturn only the corrected transcript with no extra commentary."

const (
	defaultOpenAIModel = "gpt-5-mini"
	defaultGroqModel   = "qwen/qwen3-32b"
)

// Corrector rewrites one transcript. Implementations must not mutate shared
// state outside their own locking.
type Corrector interface {
	Correct(ctx context.Context, transcript string) (string, error)
}

// completer abstracts the chat call so the corrector logic is testable
// without a live API.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

// Options configures backend selection for the corrector.
type Options struct {
	Backend     string // openai (default) or groq
	Model       string
	Prompt      string
	HistorySize int
	OpenAIKey   string
	GroqKey     string
	BaseURL     string
}

// New builds a history-carrying corrector for the configured backend.
func New(opts Options) (Corrector, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = "openai"
	}
	model := opts.Model
	var c completer
	switch backend {
	case "openai":
		if opts.OpenAIKey == "" {
			return nil, fmt.Errorf("correction backend openai requires an API key")
		}
		if model == "" {
			model = defaultOpenAIModel
		}
		c = newOpenAICompleter(opts.OpenAIKey, opts.BaseURL, model)
	case "groq":
		if opts.GroqKey == "" {
			return nil, fmt.Errorf("correction backend groq requires an API key")
		}
		if model == "" {
			model = defaultGroqModel
		}
		c = newGroqCompleter(opts.GroqKey, opts.BaseURL, model)
	default:
		return nil, fmt.Errorf("unknown correction backend %q", opts.Backend)
	}
	prompt := strings.TrimSpace(opts.Prompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &corrector{
		completer: c,
		prompt:    prompt,
		history:   newHistory(opts.HistorySize),
	}, nil
}

type corrector struct {
	mu        sync.Mutex
	completer completer
	prompt    string
	history   *history
}

// Correct sends the transcript plus recent corrected history to the model.
// The returned text replaces the transcript; on any API failure the caller
// keeps the original, so errors here are advisory.
func (c *corrector) Correct(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return transcript, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	user := c.buildUserMessage(transcript)
	corrected, err := c.completer.complete(ctx, c.prompt, user)
	if err != nil {
		return transcript, err
	}
	corrected = strings.TrimSpace(corrected)
	if corrected == "" {
		return transcript, nil
	}
	c.history.push(corrected)
	return corrected, nil
}

func (c *corrector) buildUserMessage(transcript string) string {
	var b strings.Builder
	b.WriteString(c.prompt)
	b.WriteString("\n\nConversation History (most recent first):\n")
	entries := c.history.snapshot()
	for i := len(entries) - 1; i >= 0; i-- {
		b.WriteString(entries[i])
		b.WriteString("\n")
	}
	b.WriteString("\nText to Correct:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nCorrected Text:\n")
	return b.String()
}
