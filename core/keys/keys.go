// Package keys implements the three key state-machine variants — Button,
// Layer, and Mod-Tap — behind a common Keyish contract. Each machine is a
// tagged variant over a plain struct (no inheritance); transitions are pure
// functions of (variant, input) -> variant.
package keys

import (
	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/layerstack"
)

// Tick is a monotonic instant whose unit is set by the clock that supplies
// it; the engine's clock counts one tick per matrix scan. All durations in
// ModTapConfig are expressed in the same unit.
type Tick uint64

// ModTapConfig carries the three mod-tap durations shared by every Mod-Tap
// machine on the keymap.
type ModTapConfig struct {
	ModTimeout Tick
	TapRelease Tick
	TapRepeat  Tick
}

// Context is what Keyish.Step needs beyond (pressed, now): the layer stack a
// Layer machine mutates, and the mod-tap durations a ModTap machine times
// against. The Layer machine is handed the stack by reference and must not
// retain it across calls — ownership stays with the Keymap.
type Context struct {
	Layers *layerstack.Stack
	ModTap ModTapConfig
}

// Keyish is the contract all three key state-machine variants implement.
type Keyish interface {
	// Step advances the machine by one tick given the current physical
	// pressed state and the monotonic time.
	Step(pressed bool, now Tick, ctx Context)
	// Emitted returns the keycode this machine contributes to the current
	// tick's report, if any.
	Emitted() (keycode.Code, bool)
	// IsFinished reports whether the machine is in its resting (idle)
	// state. A position may only switch which layer's machine is live
	// while the previously-live machine IsFinished, so a press and its
	// matching release always go to the same machine instance.
	IsFinished() bool
}
