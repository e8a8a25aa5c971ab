package matrix_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/kbcore/core/matrix"
)

// trackingOutput records its asserted level into a shared row-state slice so
// input pins can look up which row is currently strobed, mimicking real
// matrix electrical behavior.
type trackingOutput struct {
	idx   int
	state []bool
}

func (t *trackingOutput) SetState(high bool) error {
	t.state[t.idx] = high
	return nil
}

type fakeInput struct {
	pressed func() bool
	err     error
}

func (f *fakeInput) IsHigh() (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.pressed(), nil
}

func TestScanFillsMatrixByPosition(t *testing.T) {
	// 2x2 matrix, active-high, switch closed at (row1,col0).
	pressed := map[[2]int]bool{{1, 0}: true}
	rowState := make([]bool, 2)

	outs := []matrix.OutputPin{
		&trackingOutput{idx: 0, state: rowState},
		&trackingOutput{idx: 1, state: rowState},
	}

	ins := make([]matrix.InputPin, 2)
	for c := 0; c < 2; c++ {
		c := c
		ins[c] = &fakeInput{pressed: func() bool {
			for r, on := range rowState {
				if on && pressed[[2]int{r, c}] {
					return true
				}
			}
			return false
		}}
	}

	s := matrix.New(outs, ins, true)
	require.Equal(t, 4, s.Size())

	out := make([]bool, 4)
	require.NoError(t, s.Scan(out))

	assert.Equal(t, []bool{false, false, true, false}, out)
}

type erroringOutput struct{}

func (erroringOutput) SetState(bool) error { return nil }

func TestScanPropagatesIOError(t *testing.T) {
	outs := []matrix.OutputPin{erroringOutput{}}
	ins := []matrix.InputPin{&fakeInput{err: errors.New("boom")}}

	s := matrix.New(outs, ins, true)
	out := make([]bool, 1)
	require.Error(t, s.Scan(out))
}

func TestScanRejectsWrongSizedBuffer(t *testing.T) {
	outs := []matrix.OutputPin{erroringOutput{}}
	ins := []matrix.InputPin{&fakeInput{pressed: func() bool { return false }}}

	s := matrix.New(outs, ins, true)
	err := s.Scan(make([]bool, 3))
	require.Error(t, err)
}
