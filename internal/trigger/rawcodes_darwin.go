//go:build darwin

package trigger

// modifierByRawcode maps macOS virtual keycodes for modifier keys to
// canonical labels. Left-hand variants carry the plain name to match the
// labels hotkey configs use.
var modifierByRawcode = map[uint16]string{
	56: "shift", // kVK_Shift
	60: "shift_r",
	59: "ctrl", // kVK_Control
	62: "ctrl_r",
	58: "alt", // kVK_Option
	61: "alt_r",
	55: "cmd", // kVK_Command
	54: "cmd_r",
}
