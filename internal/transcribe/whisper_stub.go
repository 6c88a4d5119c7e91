//go:build !whisper

package transcribe

import "fmt"

func newLocalProvider(Options) (Provider, error) {
	return nil, fmt.Errorf("built without whisper support; rebuild with -tags whisper")
}
