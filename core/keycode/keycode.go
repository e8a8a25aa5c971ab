// Package keycode defines the HID usage codes the core state machines emit.
package keycode

// Code is an opaque byte identifying one HID keyboard usage.
type Code uint8

// Null is the NoEventIndicated sentinel. A key position holding Null never
// contributes a keycode to the report.
const Null Code = 0x00

// Modifier usages (left/right ctrl/shift/alt/gui). Emitted as plain keycodes
// by the core; the NKRO bitmap report treats them like any other key — the
// device layer is free to additionally mirror them into a dedicated
// modifier byte (see device/keyboard).
const (
	LeftCtrl Code = 0xE0 + iota
	LeftShift
	LeftAlt
	LeftGUI
	RightCtrl
	RightShift
	RightAlt
	RightGUI
)

// Letters.
const (
	A Code = 0x04 + iota
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z
)

// Top-row digits.
const (
	Digit1 Code = 0x1E + iota
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9
	Digit0
)

// Punctuation and whitespace.
const (
	Enter Code = 0x28 + iota
	Escape
	Backspace
	Tab
	Space
	Minus
	Equal
	LeftBrace
	RightBrace
	Backslash
	NonUSHash
	Semicolon
	Apostrophe
	Grave
	Comma
	Period
	Slash
	CapsLock
)

// Function keys F1-F12.
const (
	F1 Code = 0x3A + iota
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
)

// Editing / navigation cluster.
const (
	PrintScreen Code = 0x46 + iota
	ScrollLock
	Pause
	Insert
	Home
	PageUp
	Delete
	End
	PageDown
)

// Arrow keys.
const (
	Right Code = 0x4F + iota
	Left
	Down
	Up
)

// Keypad.
const (
	NumLock Code = 0x53 + iota
	KpSlash
	KpAsterisk
	KpMinus
	KpPlus
	KpEnter
	Kp1
	Kp2
	Kp3
	Kp4
	Kp5
	Kp6
	Kp7
	Kp8
	Kp9
	Kp0
	KpDot
)

// Extended function keys F13-F24.
const (
	F13 Code = 0x68 + iota
	F14
	F15
	F16
	F17
	F18
	F19
	F20
	F21
	F22
	F23
	F24
)

const (
	Application Code = 0x65
	Mute        Code = 0x7F
	VolumeUp    Code = 0x80
	VolumeDown  Code = 0x81
)

// Name maps every keycode the core recognises to its authoring-document name.
// authoring.Compile resolves "btn:<name>"/"mt:hold=<name>,tap=<name>" actions
// through this table, and Code.String uses it for log output.
// device/keyboard keeps its own separate KeyName table.
var Name = map[Code]string{
	A: "A", B: "B", C: "C", D: "D", E: "E", F: "F", G: "G", H: "H", I: "I",
	J: "J", K: "K", L: "L", M: "M", N: "N", O: "O", P: "P", Q: "Q", R: "R",
	S: "S", T: "T", U: "U", V: "V", W: "W", X: "X", Y: "Y", Z: "Z",

	Digit1: "1", Digit2: "2", Digit3: "3", Digit4: "4", Digit5: "5",
	Digit6: "6", Digit7: "7", Digit8: "8", Digit9: "9", Digit0: "0",

	Enter: "Enter", Escape: "Escape", Backspace: "Backspace", Tab: "Tab",
	Space: "Space", Minus: "Minus", Equal: "Equal", LeftBrace: "LeftBrace",
	RightBrace: "RightBrace", Backslash: "Backslash", NonUSHash: "NonUSHash",
	Semicolon: "Semicolon", Apostrophe: "Apostrophe", Grave: "Grave",
	Comma: "Comma", Period: "Period", Slash: "Slash", CapsLock: "CapsLock",

	F1: "F1", F2: "F2", F3: "F3", F4: "F4", F5: "F5", F6: "F6",
	F7: "F7", F8: "F8", F9: "F9", F10: "F10", F11: "F11", F12: "F12",
	F13: "F13", F14: "F14", F15: "F15", F16: "F16", F17: "F17", F18: "F18",
	F19: "F19", F20: "F20", F21: "F21", F22: "F22", F23: "F23", F24: "F24",

	PrintScreen: "PrintScreen", ScrollLock: "ScrollLock", Pause: "Pause",
	Insert: "Insert", Home: "Home", PageUp: "PageUp", Delete: "Delete",
	End: "End", PageDown: "PageDown",

	Right: "Right", Left: "Left", Down: "Down", Up: "Up",

	NumLock: "NumLock", KpSlash: "Kp/", KpAsterisk: "Kp*", KpMinus: "Kp-",
	KpPlus: "Kp+", KpEnter: "KpEnter", Kp1: "Kp1", Kp2: "Kp2", Kp3: "Kp3",
	Kp4: "Kp4", Kp5: "Kp5", Kp6: "Kp6", Kp7: "Kp7", Kp8: "Kp8", Kp9: "Kp9",
	Kp0: "Kp0", KpDot: "Kp.",

	Application: "Application", Mute: "Mute", VolumeUp: "VolumeUp", VolumeDown: "VolumeDown",

	LeftCtrl: "LCtrl", LeftShift: "LShift", LeftAlt: "LAlt", LeftGUI: "LGUI",
	RightCtrl: "RCtrl", RightShift: "RShift", RightAlt: "RAlt", RightGUI: "RGUI",
}

// byName is the inverse of Name, built once at init for authoring lookups.
var byName map[string]Code

func init() {
	byName = make(map[string]Code, len(Name))
	for code, name := range Name {
		byName[name] = code
	}
}

// Lookup resolves a keycode by its authoring-document name. ok is false for
// an unrecognised name.
func Lookup(name string) (Code, bool) {
	c, ok := byName[name]
	return c, ok
}

// String implements fmt.Stringer for log output.
func (c Code) String() string {
	if c == Null {
		return "Null"
	}
	if name, ok := Name[c]; ok {
		return name
	}
	return "Unknown"
}
