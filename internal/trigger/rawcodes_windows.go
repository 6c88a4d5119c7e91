//go:build windows

package trigger

// modifierByRawcode maps Win32 virtual-key codes for modifier keys to
// canonical labels. The side-neutral VK codes map to the plain name, same as
// the left-hand variants, to match the labels hotkey configs use.
var modifierByRawcode = map[uint16]string{
	16:  "shift", // VK_SHIFT
	160: "shift", // VK_LSHIFT
	161: "shift_r",
	17:  "ctrl", // VK_CONTROL
	162: "ctrl", // VK_LCONTROL
	163: "ctrl_r",
	18:  "alt", // VK_MENU
	164: "alt", // VK_LMENU
	165: "alt_r",
	91:  "cmd", // VK_LWIN
	92:  "cmd_r",
}
