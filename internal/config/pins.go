package config

import "github.com/Alia5/kbcore/core/matrix"

// unwiredPin is a matrix.InputPin/OutputPin stand-in for real GPIO. The
// physical register access a board's row/column strobing needs is explicitly
// out of scope here (see the core's hardware-abstraction boundary); this
// keeps the scan/debounce/keymap pipeline runnable end to end on a host with
// no switches ever reporting pressed.
type unwiredPin struct{}

func (unwiredPin) SetState(bool) error   { return nil }
func (unwiredPin) IsHigh() (bool, error) { return false, nil }

func unwiredOutputs(n int) []matrix.OutputPin {
	out := make([]matrix.OutputPin, n)
	for i := range out {
		out[i] = unwiredPin{}
	}
	return out
}

func unwiredInputs(n int) []matrix.InputPin {
	in := make([]matrix.InputPin, n)
	for i := range in {
		in[i] = unwiredPin{}
	}
	return in
}
