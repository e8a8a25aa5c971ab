package keys_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/keys"
)

func TestButtonEmitsOnlyWhilePressed(t *testing.T) {
	b := keys.NewButton(keycode.A)
	ctx := keys.Context{}

	assert.True(t, b.IsFinished())
	_, ok := b.Emitted()
	assert.False(t, ok)

	b.Step(true, 0, ctx)
	assert.False(t, b.IsFinished())
	code, ok := b.Emitted()
	assert.True(t, ok)
	assert.Equal(t, keycode.A, code)

	b.Step(false, 1, ctx)
	assert.True(t, b.IsFinished())
	_, ok = b.Emitted()
	assert.False(t, ok)
}

func TestButtonNullNeverEmits(t *testing.T) {
	b := keys.NewButton(keycode.Null)
	ctx := keys.Context{}
	b.Step(true, 0, ctx)
	_, ok := b.Emitted()
	assert.False(t, ok)
}

func TestButtonRoundTripTransitionCountsBalance(t *testing.T) {
	b := keys.NewButton(keycode.A)
	ctx := keys.Context{}
	// Balanced trace: ends unpressed, so presses and releases must match.
	trace := []bool{true, true, false, false, true, false}

	pressToUnpressed, unpressedToPress := 0, 0
	for _, p := range trace {
		wasFinished := b.IsFinished()
		b.Step(p, 0, ctx)
		nowFinished := b.IsFinished()
		if wasFinished && !nowFinished {
			unpressedToPress++
		}
		if !wasFinished && nowFinished {
			pressToUnpressed++
		}
	}
	assert.True(t, b.IsFinished(), "trace should end unpressed")
	assert.Equal(t, unpressedToPress, pressToUnpressed)
}
