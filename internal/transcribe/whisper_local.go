//go:build whisper

package transcribe

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"holdtype/internal/audio"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// localProvider runs whisper.cpp in-process. The model is loaded once and
// shared; whisper contexts are not concurrency-safe, so calls serialize
// on a mutex.
type localProvider struct {
	mu       sync.Mutex
	model    whisper.Model
	language string
}

func newLocalProvider(opts Options) (Provider, error) {
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("whisper backend requires transcribe.model_path")
	}
	model, err := whisper.New(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return &localProvider{model: model, language: opts.Model}, nil
}

func (p *localProvider) Name() string { return "whisper" }

func (p *localProvider) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	samples, _, err := audio.DecodeWAVFloat32(wavData)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	wctx, err := p.model.NewContext()
	if err != nil {
		return "", err
	}
	if lang := strings.TrimSpace(p.language); lang != "" {
		_ = wctx.SetLanguage(lang)
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		seg, err := wctx.NextSegment()
		if err != nil {
			break
		}
		b.WriteString(seg.Text)
		if !strings.HasSuffix(seg.Text, " ") {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String()), nil
}
