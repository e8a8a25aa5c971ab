package engine

import (
	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/report"
	"github.com/Alia5/kbcore/device/keyboard"
)

// HIDSink is the USB-facing endpoint the engine hands assembled reports to.
// device/keyboard.Keyboard implements this directly.
type HIDSink interface {
	UpdateInputState(state keyboard.InputState)
}

// modifier usages mirrored into the dedicated modifier byte, in bit order.
var modifierBits = [8]keycode.Code{
	keycode.LeftCtrl, keycode.LeftShift, keycode.LeftAlt, keycode.LeftGUI,
	keycode.RightCtrl, keycode.RightShift, keycode.RightAlt, keycode.RightGUI,
}

// inputStateFor converts an assembled report into the wire-level input
// state the keyboard device serves over its interrupt IN endpoint.
func inputStateFor(r *report.Report) keyboard.InputState {
	var st keyboard.InputState

	present := make(map[keycode.Code]bool, len(r.Keys))
	for _, k := range r.Keys {
		present[k] = true
	}

	for bit, mod := range modifierBits {
		if present[mod] {
			st.Modifiers |= 1 << uint(bit)
		}
	}

	for _, k := range r.Keys {
		byteIdx := uint8(k) / 8
		bitIdx := uint8(k) % 8
		st.KeyBitmap[byteIdx] |= 1 << bitIdx
	}

	return st
}
