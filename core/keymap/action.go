package keymap

import (
	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/layerstack"
)

// ActionKind discriminates the three authoring-time bindings a physical
// position can have.
type ActionKind int

const (
	// ActionButton binds a position to a plain keycode.
	ActionButton ActionKind = iota
	// ActionLayer binds a position to a momentary layer shift.
	ActionLayer
	// ActionModTap binds a position to a mod-tap (hold/tap) pair.
	ActionModTap
	// ActionNone binds a position to nothing (NOP).
	ActionNone
)

// Action is the immutable authoring-time binding of one physical position
// on one layer.
type Action struct {
	Kind  ActionKind
	Key   keycode.Code      // ActionButton
	Layer layerstack.Layer  // ActionLayer
	Hold  keycode.Code      // ActionModTap
	Tap   keycode.Code      // ActionModTap
}

// Button returns a plain-keycode action.
func Button(key keycode.Code) Action {
	return Action{Kind: ActionButton, Key: key}
}

// LayerAction returns a momentary layer-shift action.
func LayerAction(layer layerstack.Layer) Action {
	return Action{Kind: ActionLayer, Layer: layer}
}

// ModTap returns a mod-tap action over two keycodes.
func ModTap(hold, tap keycode.Code) Action {
	return Action{Kind: ActionModTap, Hold: hold, Tap: tap}
}

// None returns the NOP action (no key machine ever fires).
func None() Action {
	return Action{Kind: ActionNone}
}
