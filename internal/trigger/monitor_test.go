package trigger

import "testing"

func newKeyboardMonitor(t *testing.T, hotkey string) *Monitor {
	t.Helper()
	m := NewMonitor()
	m.SetKeyboardEnabled(true)
	if err := m.SetHotkey(hotkey); err != nil {
		t.Fatalf("set hotkey %q: %v", hotkey, err)
	}
	return m
}

func TestHotkeySubsetPredicate(t *testing.T) {
	m := newKeyboardMonitor(t, "ctrl+shift+d")

	if rose, _ := m.Handle(Event{Kind: KeyDown, Key: "ctrl"}); rose {
		t.Fatalf("partial combo must not activate")
	}
	if rose, _ := m.Handle(Event{Kind: KeyDown, Key: "shift"}); rose {
		t.Fatalf("partial combo must not activate")
	}
	rose, _ := m.Handle(Event{Kind: KeyDown, Key: "d"})
	if !rose {
		t.Fatalf("full combo should raise the trigger")
	}
	if !m.Active() {
		t.Fatalf("trigger should be active while combo held")
	}
	// Extra keys keep the subset satisfied.
	if rose, fell := m.Handle(Event{Kind: KeyDown, Key: "x"}); rose || fell {
		t.Fatalf("unrelated key must not produce an edge")
	}
	_, fell := m.Handle(Event{Kind: KeyUp, Key: "shift"})
	if !fell {
		t.Fatalf("releasing a combo member should drop the trigger")
	}
	// Releasing the rest produces no further edges.
	if _, fell := m.Handle(Event{Kind: KeyUp, Key: "ctrl"}); fell {
		t.Fatalf("trigger already inactive; no second falling edge")
	}
}

func TestSingleKeyHotkey(t *testing.T) {
	m := newKeyboardMonitor(t, "ctrl_r")
	rose, _ := m.Handle(Event{Kind: KeyDown, Key: "ctrl_r"})
	if !rose {
		t.Fatalf("ctrl_r down should activate")
	}
	// A plain ctrl is a different label and must not satisfy ctrl_r.
	m2 := newKeyboardMonitor(t, "ctrl_r")
	if rose, _ := m2.Handle(Event{Kind: KeyDown, Key: "ctrl"}); rose {
		t.Fatalf("ctrl must not satisfy a ctrl_r hotkey")
	}
}

func TestEnableFlagTruthTable(t *testing.T) {
	setup := func(kb, mouse bool) *Monitor {
		m := NewMonitor()
		if err := m.SetHotkey("a"); err != nil {
			t.Fatalf("set hotkey: %v", err)
		}
		if err := m.SetMouseButton("middle"); err != nil {
			t.Fatalf("set mouse: %v", err)
		}
		m.SetKeyboardEnabled(kb)
		m.SetMouseEnabled(mouse)
		return m
	}
	press := func(m *Monitor, key, mouse bool) {
		if key {
			m.Handle(Event{Kind: KeyDown, Key: "a"})
		}
		if mouse {
			m.Handle(Event{Kind: MouseDown, Button: ButtonMiddle})
		}
	}

	cases := []struct {
		kb, mouse          bool
		pressKey, pressBtn bool
		want               bool
	}{
		{true, true, true, false, true},   // both enabled: OR
		{true, true, false, true, true},   // both enabled: OR
		{true, true, false, false, false}, //
		{true, false, true, false, true},  // keyboard only
		{true, false, false, true, false}, // mouse press ignored
		{false, true, false, true, true},  // mouse only
		{false, true, true, false, false}, // key press ignored
		{false, false, true, true, false}, // neither: always inactive
	}
	for i, c := range cases {
		m := setup(c.kb, c.mouse)
		press(m, c.pressKey, c.pressBtn)
		if got := m.Active(); got != c.want {
			t.Fatalf("case %d (kb=%v mouse=%v key=%v btn=%v): active=%v want %v",
				i, c.kb, c.mouse, c.pressKey, c.pressBtn, got, c.want)
		}
	}
}

func TestEmptyHotkeyNeverActive(t *testing.T) {
	m := NewMonitor()
	m.SetKeyboardEnabled(true)
	if err := m.SetHotkey(""); err != nil {
		t.Fatalf("clearing hotkey: %v", err)
	}
	m.Handle(Event{Kind: KeyDown, Key: "a"})
	m.Handle(Event{Kind: KeyDown, Key: "ctrl"})
	if m.Active() {
		t.Fatalf("empty key-part set must never satisfy the trigger")
	}
}

func TestReconfigureClearsPressedKeys(t *testing.T) {
	m := newKeyboardMonitor(t, "ctrl")
	m.Handle(Event{Kind: KeyDown, Key: "ctrl"})
	if !m.Active() {
		t.Fatalf("precondition: active")
	}
	if err := m.SetHotkey("ctrl"); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if m.Active() {
		t.Fatalf("stale pressed state must be cleared on reconfiguration")
	}
}

func TestInvalidHotkeyKeepsPrevious(t *testing.T) {
	m := newKeyboardMonitor(t, "ctrl_r")
	if err := m.SetHotkey("ctrl+bogus_key"); err == nil {
		t.Fatalf("expected error for unknown key name")
	}
	if m.HotkeyLabel() != "ctrl_r" {
		t.Fatalf("previous hotkey should be retained, got %q", m.HotkeyLabel())
	}
	if rose, _ := m.Handle(Event{Kind: KeyDown, Key: "ctrl_r"}); !rose {
		t.Fatalf("previous hotkey should still work")
	}
}

func TestInvalidMouseButtonKeepsPrevious(t *testing.T) {
	m := NewMonitor()
	m.SetMouseEnabled(true)
	if err := m.SetMouseButton("x2"); err != nil {
		t.Fatalf("set mouse: %v", err)
	}
	if err := m.SetMouseButton("left"); err == nil {
		t.Fatalf("left is not a supported trigger button")
	}
	if rose, _ := m.Handle(Event{Kind: MouseDown, Button: ButtonX2}); !rose {
		t.Fatalf("previous mouse button should be retained")
	}
}

func TestParseMouseButtonAliases(t *testing.T) {
	cases := map[string]Button{
		"":        ButtonNone,
		"middle":  ButtonMiddle,
		"Mouse3":  ButtonMiddle,
		"button3": ButtonMiddle,
		"x1":      ButtonX1,
		"mouse4":  ButtonX1,
		"x2":      ButtonX2,
		"BUTTON5": ButtonX2,
	}
	for label, want := range cases {
		got, err := ParseMouseButton(label)
		if err != nil {
			t.Fatalf("ParseMouseButton(%q): %v", label, err)
		}
		if got != want {
			t.Fatalf("ParseMouseButton(%q)=%v want %v", label, got, want)
		}
	}
	if _, err := ParseMouseButton("wheel"); err == nil {
		t.Fatalf("expected error for unsupported button")
	}
}

func TestParseHotkeyNormalization(t *testing.T) {
	parts, err := ParseHotkey("Control + Shift + D")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"ctrl", "shift", "d"}
	if len(parts) != len(want) {
		t.Fatalf("parts=%v want %v", parts, want)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Fatalf("parts=%v want %v", parts, want)
		}
	}
	if _, err := ParseHotkey(" + "); err == nil {
		t.Fatalf("expected error for empty hotkey")
	}
}
