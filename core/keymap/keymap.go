// Package keymap ties the per-position key machines, the layer stack and
// report assembly together into the single per-tick Process call the
// engine drives.
package keymap

import (
	"fmt"

	"github.com/Alia5/kbcore/core/keys"
	"github.com/Alia5/kbcore/core/layerstack"
	"github.com/Alia5/kbcore/core/report"
)

// Keymap is the per-tick orchestrator: one position per physical key,
// a shared layer stack, and the report assembled from this tick's
// emissions.
type Keymap struct {
	table     *Table
	positions []*position
	layers    *layerstack.Stack
	modTap    keys.ModTapConfig
	report    *report.Report
}

// New builds a Keymap bound to table, using layerCapacity as the layer
// stack's bound and rolloverLimit as the assembled report's capacity.
func New(table *Table, layerCapacity, rolloverLimit int, modTap keys.ModTapConfig) (*Keymap, error) {
	if table == nil {
		return nil, fmt.Errorf("keymap: table must not be nil")
	}
	positions := make([]*position, table.Size())
	for i := range positions {
		positions[i] = newPosition(table, i)
	}
	return &Keymap{
		table:     table,
		positions: positions,
		layers:    layerstack.New(layerCapacity),
		modTap:    modTap,
		report:    report.New(rolloverLimit),
	}, nil
}

// Process runs one scan tick: presses must have exactly table.Size()
// entries, one per physical position, true meaning pressed. It steps
// every position's live machine, lets finished positions follow the
// layer stack's current top, and returns the freshly assembled report.
//
// The returned Report is owned by the Keymap and is only valid until the
// next Process call — callers that need to retain it across ticks must
// Clone it.
func (k *Keymap) Process(presses []bool, now keys.Tick) (*report.Report, error) {
	if len(presses) != len(k.positions) {
		return nil, fmt.Errorf("keymap: got %d presses, want %d", len(presses), len(k.positions))
	}

	k.report.Reset()
	ctx := keys.Context{Layers: k.layers, ModTap: k.modTap}
	active := k.layers.Active()

	for i, pos := range k.positions {
		if code, ok := pos.step(presses[i], now, ctx, active); ok {
			k.report.Add(code)
		}
	}

	return k.report, nil
}

// ActiveLayer reports the layer currently on top of the layer stack.
func (k *Keymap) ActiveLayer() layerstack.Layer {
	return k.layers.Active()
}
