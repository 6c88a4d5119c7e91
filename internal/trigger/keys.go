package trigger

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Canonical names for non-printable keys. Printable single characters are
// represented by their lower-cased character and are not listed here.
var namedKeys = map[string]struct{}{
	"ctrl": {}, "ctrl_l": {}, "ctrl_r": {},
	"shift": {}, "shift_l": {}, "shift_r": {},
	"alt": {}, "alt_l": {}, "alt_r": {}, "alt_gr": {},
	"cmd": {}, "cmd_l": {}, "cmd_r": {},
	"space": {}, "tab": {}, "enter": {}, "esc": {}, "backspace": {},
	"delete": {}, "insert": {}, "menu": {},
	"up": {}, "down": {}, "left": {}, "right": {},
	"home": {}, "end": {}, "page_up": {}, "page_down": {},
	"caps_lock": {}, "num_lock": {}, "scroll_lock": {},
	"print_screen": {}, "pause": {},
}

var keyAliases = map[string]string{
	"control":  "ctrl",
	"lctrl":    "ctrl_l",
	"rctrl":    "ctrl_r",
	"lshift":   "shift_l",
	"rshift":   "shift_r",
	"lalt":     "alt_l",
	"ralt":     "alt_r",
	"option":   "alt",
	"loption":  "alt_l",
	"roption":  "alt_r",
	"command":  "cmd",
	"super":    "cmd",
	"meta":     "cmd",
	"win":      "cmd",
	"lcmd":     "cmd_l",
	"rcmd":     "cmd_r",
	"lwin":     "cmd_l",
	"rwin":     "cmd_r",
	"return":   "enter",
	"escape":   "esc",
	"spacebar": "space",
	"del":      "delete",
	"pgup":     "page_up",
	"pgdn":     "page_down",
	"capslock": "caps_lock",
	"numlock":  "num_lock",
}

func init() {
	for i := 1; i <= 24; i++ {
		namedKeys[fmt.Sprintf("f%d", i)] = struct{}{}
	}
}

// NormalizeKey maps a raw key name from the OS hook to its canonical label.
// Printable single characters are lower-cased; symbolic names go through the
// alias table. Unrecognized names map to "".
func NormalizeKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return s
		}
		return ""
	}
	if canonical, ok := keyAliases[s]; ok {
		return canonical
	}
	if _, ok := namedKeys[s]; ok {
		return s
	}
	return ""
}

// ParseHotkey splits a "+"-joined hotkey label into canonical key parts.
// An unknown name rejects the whole label.
func ParseHotkey(label string) ([]string, error) {
	var parts []string
	for _, raw := range strings.Split(label, "+") {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}
		name := NormalizeKey(part)
		if name == "" {
			return nil, fmt.Errorf("unknown key name %q", part)
		}
		parts = append(parts, name)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("hotkey must include at least one key")
	}
	return parts, nil
}
