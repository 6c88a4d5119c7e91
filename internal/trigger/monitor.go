// Package trigger tracks global keyboard and mouse state and decides when the
// configured dictation trigger is held.
package trigger

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Button identifies a configurable mouse trigger button.
type Button int

const (
	ButtonNone Button = iota
	ButtonMiddle
	ButtonX1
	ButtonX2
)

func (b Button) String() string {
	switch b {
	case ButtonMiddle:
		return "middle"
	case ButtonX1:
		return "x1"
	case ButtonX2:
		return "x2"
	default:
		return "none"
	}
}

// ParseMouseButton resolves a mouse button label, accepting the aliases the
// settings UI historically produced. Empty means no mouse trigger.
func ParseMouseButton(label string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "":
		return ButtonNone, nil
	case "middle", "mouse3", "button3":
		return ButtonMiddle, nil
	case "x1", "mouse4", "button4":
		return ButtonX1, nil
	case "x2", "mouse5", "button5":
		return ButtonX2, nil
	default:
		return ButtonNone, fmt.Errorf("unknown mouse button %q (supported: middle, x1, x2)", label)
	}
}

// Kind discriminates input events.
type Kind int

const (
	KeyDown Kind = iota
	KeyUp
	MouseDown
	MouseUp
)

// Event is one normalized input event from the OS hook.
type Event struct {
	Kind   Kind
	Key    string // canonical key label, KeyDown/KeyUp only
	Button Button // MouseDown/MouseUp only
}

// Source delivers normalized input events until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, out chan<- Event) error
}

// Monitor owns the pressed-key set and the mouse-pressed flag and evaluates
// the trigger activation predicate. All methods are safe for concurrent use;
// the hook callback goroutines mutate state through Handle while the control
// socket reconfigures through the setters.
type Monitor struct {
	mu sync.Mutex

	hotkeyLabel string
	parts       map[string]struct{}
	buttonLabel string
	button      Button

	keyboardEnabled bool
	mouseEnabled    bool

	pressed      map[string]struct{}
	mousePressed bool
}

// NewMonitor returns a Monitor with no trigger configured.
func NewMonitor() *Monitor {
	return &Monitor{
		parts:   map[string]struct{}{},
		pressed: map[string]struct{}{},
	}
}

// SetHotkey reconfigures the keyboard combo. An empty label clears it. On a
// parse error the previous combo is retained and the error returned. The
// pressed-key set is cleared on success so a stale partial combo cannot
// satisfy the new one.
func (m *Monitor) SetHotkey(label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if label == "" {
		m.parts = map[string]struct{}{}
		m.pressed = map[string]struct{}{}
		m.hotkeyLabel = ""
		return nil
	}
	parts, err := ParseHotkey(label)
	if err != nil {
		return fmt.Errorf("invalid hotkey %q: %w (keeping previous: %q)", label, err, m.hotkeyLabel)
	}
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		set[p] = struct{}{}
	}
	m.parts = set
	m.pressed = map[string]struct{}{}
	m.hotkeyLabel = label
	return nil
}

// SetMouseButton reconfigures the mouse trigger. On a parse error the
// previous value is retained and the error returned.
func (m *Monitor) SetMouseButton(label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	button, err := ParseMouseButton(label)
	if err != nil {
		return fmt.Errorf("invalid mouse button %q: %w (keeping previous: %q)", label, err, m.buttonLabel)
	}
	m.button = button
	m.buttonLabel = label
	m.mousePressed = false
	return nil
}

// SetKeyboardEnabled toggles the keyboard trigger; disabling clears pressed
// keys.
func (m *Monitor) SetKeyboardEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyboardEnabled = enabled
	if !enabled {
		m.pressed = map[string]struct{}{}
	}
}

// SetMouseEnabled toggles the mouse trigger; disabling clears the pressed
// flag.
func (m *Monitor) SetMouseEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mouseEnabled = enabled
	if !enabled {
		m.mousePressed = false
	}
}

// Handle applies one event and reports the activation edge it produced:
// rose when the predicate flipped false→true, fell when it flipped
// true→false.
func (m *Monitor) Handle(ev Event) (rose, fell bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.activeLocked()
	switch ev.Kind {
	case KeyDown:
		if ev.Key != "" {
			m.pressed[ev.Key] = struct{}{}
		}
	case KeyUp:
		delete(m.pressed, ev.Key)
	case MouseDown:
		if m.button != ButtonNone && ev.Button == m.button {
			m.mousePressed = true
		}
	case MouseUp:
		if m.button != ButtonNone && ev.Button == m.button {
			m.mousePressed = false
		}
	}
	after := m.activeLocked()
	return after && !before, before && !after
}

// Reset clears all pressed state. Used when event delivery is suspended so
// keys released while suspended cannot leave a stale combo behind.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pressed = map[string]struct{}{}
	m.mousePressed = false
}

// Active reports whether the trigger predicate currently holds.
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked()
}

func (m *Monitor) activeLocked() bool {
	switch {
	case m.keyboardEnabled && m.mouseEnabled:
		return m.hotkeyActiveLocked() || m.mouseActiveLocked()
	case m.keyboardEnabled:
		return m.hotkeyActiveLocked()
	case m.mouseEnabled:
		return m.mouseActiveLocked()
	default:
		return false
	}
}

// hotkeyActiveLocked: the configured parts form a non-empty subset of the
// currently pressed keys.
func (m *Monitor) hotkeyActiveLocked() bool {
	if len(m.parts) == 0 {
		return false
	}
	for p := range m.parts {
		if _, ok := m.pressed[p]; !ok {
			return false
		}
	}
	return true
}

func (m *Monitor) mouseActiveLocked() bool {
	return m.button != ButtonNone && m.mousePressed
}

// HotkeyLabel returns the configured hotkey label.
func (m *Monitor) HotkeyLabel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hotkeyLabel
}

// MouseButtonLabel returns the configured mouse button label.
func (m *Monitor) MouseButtonLabel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buttonLabel
}

// Hint describes how to trigger dictation with the current configuration, or
// "" when no trigger is reachable.
func (m *Monitor) Hint() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hints []string
	if m.keyboardEnabled && m.hotkeyLabel != "" {
		hints = append(hints, fmt.Sprintf("hold down %s", m.hotkeyLabel))
	}
	if m.mouseEnabled && m.button != ButtonNone {
		hints = append(hints, fmt.Sprintf("hold the %s mouse button", m.button))
	}
	return strings.Join(hints, " or ")
}
