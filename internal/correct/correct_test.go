package correct

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply string
	err   error
	calls []string
}

func (f *fakeCompleter) complete(_ context.Context, _, user string) (string, error) {
	f.calls = append(f.calls, user)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestCorrector(c completer, historySize int) *corrector {
	return &corrector{completer: c, prompt: DefaultPrompt, history: newHistory(historySize)}
}

func TestHistoryEviction(t *testing.T) {
	h := newHistory(3)
	for i := 0; i < 5; i++ {
		h.push(fmt.Sprintf("entry-%d", i))
	}
	assert.Equal(t, []string{"entry-2", "entry-3", "entry-4"}, h.snapshot())
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := newHistory(0)
	for i := 0; i < 25; i++ {
		h.push("x")
	}
	assert.Equal(t, 10, h.len())
}

func TestCorrectEmptyTranscriptSkipsCall(t *testing.T) {
	f := &fakeCompleter{reply: "should not happen"}
	c := newTestCorrector(f, 10)

	got, err := c.Correct(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "   ", got, "empty input passes through unchanged")
	assert.Empty(t, f.calls, "completer must not be called for empty input")
}

func TestCorrectPushesResultIntoHistory(t *testing.T) {
	f := &fakeCompleter{reply: "First sentence."}
	c := newTestCorrector(f, 10)

	got, err := c.Correct(context.Background(), "first sentence")
	require.NoError(t, err)
	assert.Equal(t, "First sentence.", got)

	f.reply = "Second sentence."
	_, err = c.Correct(context.Background(), "second sentence")
	require.NoError(t, err)

	require.Len(t, f.calls, 2)
	assert.Contains(t, f.calls[1], "First sentence.", "prior correction carried as context")
	assert.Contains(t, f.calls[1], "Text to Correct:\nsecond sentence")
}

func TestCorrectErrorReturnsOriginal(t *testing.T) {
	f := &fakeCompleter{err: errors.New("api down")}
	c := newTestCorrector(f, 10)

	got, err := c.Correct(context.Background(), "keep me")
	require.Error(t, err)
	assert.Equal(t, "keep me", got, "original transcript survives a failed call")
	assert.Zero(t, c.history.len(), "failed correction must not enter history")
}

func TestNewBackendValidation(t *testing.T) {
	_, err := New(Options{Backend: "openai"})
	assert.Error(t, err, "openai without key")

	_, err = New(Options{Backend: "groq"})
	assert.Error(t, err, "groq without key")

	_, err = New(Options{Backend: "bogus", OpenAIKey: "k"})
	assert.Error(t, err, "unknown backend")

	_, err = New(Options{OpenAIKey: "k"})
	assert.NoError(t, err, "default backend with openai key")
}

func TestGroqCompleter(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gk", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "Fixed text."}},
			},
		})
	}))
	defer srv.Close()

	c := newGroqCompleter("gk", srv.URL, "qwen/qwen3-32b")
	out, err := c.complete(context.Background(), "sys", "user text")
	require.NoError(t, err)
	assert.Equal(t, "Fixed text.", out)
	assert.Equal(t, "qwen/qwen3-32b", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestGroqCompleterHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newGroqCompleter("gk", srv.URL, "qwen/qwen3-32b")
	_, err := c.complete(context.Background(), "sys", "user text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
