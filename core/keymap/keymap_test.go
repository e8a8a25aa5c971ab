package keymap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/keymap"
	"github.com/Alia5/kbcore/core/keys"
	"github.com/Alia5/kbcore/core/layerstack"
)

func modTapConfig() keys.ModTapConfig {
	return keys.ModTapConfig{ModTimeout: 20, TapRelease: 5, TapRepeat: 15}
}

// S1: two plain buttons on one layer, pressed and released in sequence.
// Expected reports: [], [A], [A,B], [B], [].
func TestKeymapButtonRoundTrip(t *testing.T) {
	table, err := keymap.NewTable(2, [][]keymap.Action{
		{keymap.Button(keycode.A), keymap.Button(keycode.B)},
	})
	require.NoError(t, err)

	km, err := keymap.New(table, 4, 6, modTapConfig())
	require.NoError(t, err)

	var tick keys.Tick

	step := func(p0, p1 bool) []keycode.Code {
		tick++
		r, err := km.Process([]bool{p0, p1}, tick)
		require.NoError(t, err)
		return append([]keycode.Code{}, r.Keys...)
	}

	assert.Equal(t, []keycode.Code{}, step(false, false))
	assert.Equal(t, []keycode.Code{keycode.A}, step(true, false))
	assert.Equal(t, []keycode.Code{keycode.A, keycode.B}, step(true, true))
	assert.Equal(t, []keycode.Code{keycode.B}, step(false, true))
	assert.Equal(t, []keycode.Code{}, step(false, false))
}

// S5: pos0 is a plain button bound to A on layer 0 and B on layer 1;
// pos1 is a momentary shift to layer 1.
//
// press pos1 (activates layer 1), press pos0 -> report contains B,
// release pos0 -> [], release pos1 -> layer returns to 0,
// press pos0 -> report [A].
func TestKeymapLayerShift(t *testing.T) {
	table, err := keymap.NewTable(2, [][]keymap.Action{
		{keymap.Button(keycode.A), keymap.LayerAction(1)},
		{keymap.Button(keycode.B), keymap.LayerAction(1)},
	})
	require.NoError(t, err)

	km, err := keymap.New(table, 4, 6, modTapConfig())
	require.NoError(t, err)

	var tick keys.Tick
	step := func(p0, p1 bool) []keycode.Code {
		tick++
		r, err := km.Process([]bool{p0, p1}, tick)
		require.NoError(t, err)
		return append([]keycode.Code{}, r.Keys...)
	}

	step(false, true) // pos1 pressed: layer 1 active
	assert.Equal(t, layerstack.Layer(1), km.ActiveLayer())

	assert.Equal(t, []keycode.Code{keycode.B}, step(true, true))
	assert.Equal(t, []keycode.Code{}, step(false, true))

	step(false, false) // pos1 released: layer falls back to 0
	assert.Equal(t, layerstack.Layer(0), km.ActiveLayer())

	assert.Equal(t, []keycode.Code{keycode.A}, step(true, false))
}

// A position mid-transition (its current machine not yet Finished) must
// keep using that machine even if the layer stack's active layer has
// already changed underneath it — the layer switch is deferred, never
// applied mid-press.
func TestKeymapPositionDefersLayerSwitchUntilFinished(t *testing.T) {
	table, err := keymap.NewTable(2, [][]keymap.Action{
		{keymap.Button(keycode.A), keymap.LayerAction(1)},
		{keymap.Button(keycode.B), keymap.LayerAction(1)},
	})
	require.NoError(t, err)

	km, err := keymap.New(table, 4, 6, modTapConfig())
	require.NoError(t, err)

	var tick keys.Tick
	step := func(p0, p1 bool) []keycode.Code {
		tick++
		r, err := km.Process([]bool{p0, p1}, tick)
		require.NoError(t, err)
		return append([]keycode.Code{}, r.Keys...)
	}

	// Press pos0 on layer 0 (emits A), then shift to layer 1 while still
	// held: pos0's machine is not finished, so it must keep emitting A
	// from the layer-0 binding, not switch to B mid-press.
	assert.Equal(t, []keycode.Code{keycode.A}, step(true, false))
	assert.Equal(t, []keycode.Code{keycode.A}, step(true, true))
	assert.Equal(t, []keycode.Code{}, step(false, true))
}
