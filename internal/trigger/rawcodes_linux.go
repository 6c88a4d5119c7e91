//go:build linux

package trigger

// modifierByRawcode maps X11 keysyms for modifier keys to canonical labels.
// Keysyms for modifiers live above the printable range, so the table cannot
// shadow a character key. Left-hand variants carry the plain name to match
// the labels hotkey configs use.
var modifierByRawcode = map[uint16]string{
	65505: "shift", // XK_Shift_L
	65506: "shift_r",
	65507: "ctrl", // XK_Control_L
	65508: "ctrl_r",
	65513: "alt", // XK_Alt_L
	65514: "alt_r",
	65515: "cmd", // XK_Super_L
	65516: "cmd_r",
	65511: "cmd", // XK_Meta_L
	65512: "cmd_r",
	65027: "alt_gr", // XK_ISO_Level3_Shift
}
