package keys

import (
	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/layerstack"
)

type layerState int

const (
	layerUnpressed layerState = iota
	layerShifted
)

// Layer is the momentary-layer-shift key variant. It never emits a keycode;
// its only effect is promoting/removing its bound layer on the shared
// layer stack.
type Layer struct {
	Target layerstack.Layer
	state  layerState
}

// NewLayer returns a Layer machine bound to the given layer index.
func NewLayer(target layerstack.Layer) *Layer {
	return &Layer{Target: target}
}

func (l *Layer) Step(pressed bool, now Tick, ctx Context) {
	switch l.state {
	case layerUnpressed:
		if pressed {
			ctx.Layers.Promote(l.Target)
			l.state = layerShifted
		}
	case layerShifted:
		if !pressed {
			ctx.Layers.Remove(l.Target)
			l.state = layerUnpressed
		}
	}
}

func (l *Layer) Emitted() (keycode.Code, bool) {
	return keycode.Null, false
}

func (l *Layer) IsFinished() bool {
	return l.state == layerUnpressed
}
