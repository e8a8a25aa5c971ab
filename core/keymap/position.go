package keymap

import (
	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/keys"
	"github.com/Alia5/kbcore/core/layerstack"
)

// position is the per-physical-key record: which layer currently owns it,
// and one key-machine instance per layer (only the machine at
// currentLayer is ever stepped).
type position struct {
	currentLayer int
	machines     []keys.Keyish
}

func newPosition(table *Table, index int) *position {
	machines := make([]keys.Keyish, table.Layers())
	for layer := 0; layer < table.Layers(); layer++ {
		machines[layer] = machineFor(table.At(layer, index))
	}
	return &position{currentLayer: 0, machines: machines}
}

func machineFor(a Action) keys.Keyish {
	switch a.Kind {
	case ActionButton:
		return keys.NewButton(a.Key)
	case ActionLayer:
		return keys.NewLayer(a.Layer)
	case ActionModTap:
		return keys.NewModTap(a.Hold, a.Tap)
	default:
		return keys.NewButton(keycode.Null)
	}
}

// step runs one tick for this position: possibly adopts the active layer
// (only while the currently-live machine is finished), steps it, and
// returns its emission, if any.
func (p *position) step(pressed bool, now keys.Tick, ctx keys.Context, active layerstack.Layer) (keycode.Code, bool) {
	live := p.machines[p.currentLayer]
	if live.IsFinished() {
		p.currentLayer = int(active)
		live = p.machines[p.currentLayer]
	}
	live.Step(pressed, now, ctx)
	return live.Emitted()
}
