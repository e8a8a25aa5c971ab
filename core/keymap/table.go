package keymap

import "fmt"

// Table is the immutable, layered action table: Table[layer][position].
// Constructed once at boot (from a Go literal or compiled from an
// authoring document) and never mutated afterwards — the core only reads
// it.
type Table struct {
	layers int
	size   int
	rows   [][]Action
}

// NewTable builds a Table from layer rows, each of length size. Every row
// must have exactly size entries; a row of any other length is an error.
func NewTable(size int, rows [][]Action) (*Table, error) {
	if size <= 0 {
		return nil, fmt.Errorf("keymap: size must be positive, got %d", size)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("keymap: table needs at least one layer")
	}
	for i, row := range rows {
		if len(row) != size {
			return nil, fmt.Errorf("keymap: layer %d has %d actions, want %d", i, len(row), size)
		}
	}
	out := make([][]Action, len(rows))
	for i, row := range rows {
		out[i] = make([]Action, size)
		copy(out[i], row)
	}
	return &Table{layers: len(rows), size: size, rows: out}, nil
}

// Layers reports LAYERS, the number of layers in the table.
func (t *Table) Layers() int { return t.layers }

// Size reports SIZE = ROWS*COLS, the number of positions per layer.
func (t *Table) Size() int { return t.size }

// At returns the action bound to the given layer and position.
func (t *Table) At(layer, position int) Action {
	return t.rows[layer][position]
}
