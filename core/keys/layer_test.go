package keys_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/keys"
	"github.com/Alia5/kbcore/core/layerstack"
)

func TestLayerPromotesOnPressAndRemovesOnRelease(t *testing.T) {
	stack := layerstack.New(4)
	ctx := keys.Context{Layers: stack}
	l := keys.NewLayer(2)

	l.Step(true, 0, ctx)
	assert.Equal(t, layerstack.Layer(2), stack.Active())
	assert.False(t, l.IsFinished())

	l.Step(false, 1, ctx)
	assert.Equal(t, layerstack.Layer(0), stack.Active())
	assert.True(t, l.IsFinished())
}

func TestLayerNeverEmitsAKeycode(t *testing.T) {
	stack := layerstack.New(4)
	ctx := keys.Context{Layers: stack}
	l := keys.NewLayer(1)

	l.Step(true, 0, ctx)
	_, ok := l.Emitted()
	assert.False(t, ok)
	assert.Equal(t, keycode.Null, keycode.Null) // sanity: Null stays the sentinel
}

func TestLayerDemotedOutOfOrderStillClearsOnRelease(t *testing.T) {
	stack := layerstack.New(4)
	ctx := keys.Context{Layers: stack}
	l1 := keys.NewLayer(1)
	l2 := keys.NewLayer(2)

	l1.Step(true, 0, ctx)
	l2.Step(true, 1, ctx)
	assert.Equal(t, layerstack.Layer(2), stack.Active())

	// Releasing l1 while l2 is on top must not disturb l2's activation.
	l1.Step(false, 2, ctx)
	assert.Equal(t, layerstack.Layer(2), stack.Active())

	l2.Step(false, 3, ctx)
	assert.Equal(t, layerstack.Layer(0), stack.Active())
}
