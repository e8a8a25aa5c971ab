package layerstack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/kbcore/core/layerstack"
)

func TestActiveIsZeroWhenEmpty(t *testing.T) {
	s := layerstack.New(4)
	assert.Equal(t, layerstack.Layer(0), s.Active())
}

func TestPromoteMakesLayerActive(t *testing.T) {
	s := layerstack.New(4)
	s.Promote(2)
	assert.Equal(t, layerstack.Layer(2), s.Active())
	s.Promote(1)
	assert.Equal(t, layerstack.Layer(1), s.Active())
}

func TestRePromoteMovesLayerToTop(t *testing.T) {
	s := layerstack.New(4)
	s.Promote(1)
	s.Promote(2)
	s.Promote(1) // re-promote 1: should move to top, not duplicate
	assert.Equal(t, layerstack.Layer(1), s.Active())
	assert.Equal(t, []layerstack.Layer{2, 1}, s.Layers())
	assert.Equal(t, 2, s.Len())
}

func TestRemoveDemotesToPriorLayer(t *testing.T) {
	s := layerstack.New(4)
	s.Promote(1)
	s.Promote(2)
	s.Remove(2)
	assert.Equal(t, layerstack.Layer(1), s.Active())
}

func TestRemoveOfMiddleLayerPreservesOrder(t *testing.T) {
	s := layerstack.New(4)
	s.Promote(1)
	s.Promote(2)
	s.Promote(3)
	s.Remove(2)
	assert.Equal(t, []layerstack.Layer{1, 3}, s.Layers())
}

func TestOverflowIsIgnoredSilently(t *testing.T) {
	s := layerstack.New(2)
	s.Promote(1)
	s.Promote(2)
	assert.NotPanics(t, func() { s.Promote(3) })
	assert.Equal(t, 2, s.Len())
	assert.LessOrEqual(t, s.Len(), 2)
}

func TestNeverExceedsCapacityOrDuplicates(t *testing.T) {
	s := layerstack.New(3)
	seq := []layerstack.Layer{0, 1, 2, 1, 0, 2, 2, 1, 0, 1}
	for _, l := range seq {
		s.Promote(l)
		assert.LessOrEqual(t, s.Len(), 3)
		seen := map[layerstack.Layer]bool{}
		for _, x := range s.Layers() {
			assert.False(t, seen[x], "duplicate layer %d in stack", x)
			seen[x] = true
		}
	}
}
