// Package textproc holds the deterministic text transforms applied to a
// transcript after recognition and before keystroke injection.
package textproc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/longbridgeapp/opencc"
)

// ProcessTranscript trims the transcript and collapses runs of whitespace,
// including newlines the recognizer sometimes emits mid-sentence, into
// single spaces.
func ProcessTranscript(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	convMu     sync.Mutex
	converters = map[string]*opencc.OpenCC{}
)

// ConvertChinese applies an OpenCC conversion (s2t, t2s, s2tw, ...) to the
// transcript. Converters are cached; building one reads dictionary files
// from disk.
func ConvertChinese(s, conversion string) (string, error) {
	conversion = strings.TrimSpace(conversion)
	if conversion == "" || s == "" {
		return s, nil
	}

	convMu.Lock()
	cc, ok := converters[conversion]
	if !ok {
		var err error
		cc, err = opencc.New(conversion)
		if err != nil {
			convMu.Unlock()
			return s, fmt.Errorf("opencc %q: %w", conversion, err)
		}
		converters[conversion] = cc
	}
	convMu.Unlock()

	out, err := cc.Convert(s)
	if err != nil {
		return s, fmt.Errorf("opencc convert: %w", err)
	}
	return out, nil
}
