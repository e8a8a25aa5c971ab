// Package matrix drives a key-switch matrix scan: strobe rows, sample
// columns, produce a flat boolean vector of physical switch states.
package matrix

import "fmt"

// InputPin reads one column line.
type InputPin interface {
	IsHigh() (bool, error)
}

// OutputPin drives one row line.
type OutputPin interface {
	SetState(high bool) error
}

// Scanner owns the row/column pin sets and the active-level polarity.
type Scanner struct {
	Outputs    []OutputPin
	Inputs     []InputPin
	ActiveHigh bool
}

// New builds a Scanner for the given row (outputs) and column (inputs) pins.
func New(outputs []OutputPin, inputs []InputPin, activeHigh bool) *Scanner {
	return &Scanner{Outputs: outputs, Inputs: inputs, ActiveHigh: activeHigh}
}

// Size returns ROWS*COLS, the length of the vector Scan fills.
func (s *Scanner) Size() int {
	return len(s.Outputs) * len(s.Inputs)
}

// Scan deasserts every output, then for each output in turn: asserts it,
// samples every input, records out[o*COLS+i], and deasserts it again before
// moving to the next row. Interleaving the deassertion prevents ghosting
// from cross-row leakage and lets the bus settle before the next strobe.
//
// out must have length Size(). Any GPIO error aborts the scan immediately;
// out is left partially written and the caller should discard this tick's
// result, keeping the prior debounced state.
func (s *Scanner) Scan(out []bool) error {
	cols := len(s.Inputs)
	if len(out) != s.Size() {
		return fmt.Errorf("matrix: out has length %d, want %d", len(out), s.Size())
	}

	for _, o := range s.Outputs {
		if err := o.SetState(!s.ActiveHigh); err != nil {
			return fmt.Errorf("matrix: deassert outputs: %w", err)
		}
	}

	for row, o := range s.Outputs {
		if err := o.SetState(s.ActiveHigh); err != nil {
			return fmt.Errorf("matrix: assert row %d: %w", row, err)
		}

		for col, in := range s.Inputs {
			level, err := in.IsHigh()
			if err != nil {
				_ = o.SetState(!s.ActiveHigh)
				return fmt.Errorf("matrix: read row %d col %d: %w", row, col, err)
			}
			out[row*cols+col] = level == s.ActiveHigh
		}

		if err := o.SetState(!s.ActiveHigh); err != nil {
			return fmt.Errorf("matrix: deassert row %d: %w", row, err)
		}
	}

	return nil
}
