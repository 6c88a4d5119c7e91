package trigger

import (
	"context"

	hook "github.com/robotn/gohook"
	"github.com/sirupsen/logrus"
)

// HookSource adapts the robotn/gohook global input hook to the Source
// interface. gohook delivers raw events on its own OS callback threads; this
// adapter normalizes them and forwards to out.
type HookSource struct {
	logger *logrus.Logger
}

// NewHookSource returns a Source backed by the OS-global input hook.
func NewHookSource(logger *logrus.Logger) *HookSource {
	return &HookSource{logger: logger}
}

// Run pumps hook events until ctx is cancelled or the hook channel closes.
func (s *HookSource) Run(ctx context.Context, out chan<- Event) error {
	evCh := hook.Start()
	defer hook.End()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-evCh:
			if !ok {
				return nil
			}
			ev, ok := translate(raw)
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// keyName resolves a raw key event to its canonical label. Modifier keys go
// through the per-platform rawcode table because gohook's keychar map does
// not distinguish left from right consistently; everything else falls back
// to the keychar lookup.
func keyName(rawcode uint16) string {
	if name, ok := modifierByRawcode[rawcode]; ok {
		return name
	}
	return NormalizeKey(hook.RawcodetoKeychar(rawcode))
}

func translate(raw hook.Event) (Event, bool) {
	switch raw.Kind {
	case hook.KeyDown:
		name := keyName(raw.Rawcode)
		if name == "" {
			return Event{}, false
		}
		return Event{Kind: KeyDown, Key: name}, true
	case hook.KeyUp:
		name := keyName(raw.Rawcode)
		if name == "" {
			return Event{}, false
		}
		return Event{Kind: KeyUp, Key: name}, true
	case hook.MouseDown:
		if b, ok := buttonFromCode(raw.Button); ok {
			return Event{Kind: MouseDown, Button: b}, true
		}
	case hook.MouseUp:
		if b, ok := buttonFromCode(raw.Button); ok {
			return Event{Kind: MouseUp, Button: b}, true
		}
	}
	// KeyHold repeats and mouse moves carry no edge information.
	return Event{}, false
}

func buttonFromCode(code uint16) (Button, bool) {
	switch code {
	case 3:
		return ButtonMiddle, true
	case 4:
		return ButtonX1, true
	case 5:
		return ButtonX2, true
	default:
		return ButtonNone, false
	}
}
