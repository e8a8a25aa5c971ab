package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/report"
)

func TestAddExcludesNull(t *testing.T) {
	r := report.New(4)
	r.Add(keycode.Null)
	assert.Empty(t, r.Keys)
	assert.False(t, r.Rollover)
}

// S6: ROLLOVER=2; three plain keys pressed simultaneously -> length 2,
// rollover flag set.
func TestRolloverOverflow(t *testing.T) {
	r := report.New(2)
	r.Add(keycode.A)
	r.Add(keycode.B)
	r.Add(keycode.C)

	assert.Len(t, r.Keys, 2)
	assert.True(t, r.Rollover)
	assert.NotContains(t, r.Keys, keycode.C)
}

func TestResetClearsKeysAndRollover(t *testing.T) {
	r := report.New(1)
	r.Add(keycode.A)
	r.Add(keycode.B) // overflow, sets Rollover
	r.Reset()
	assert.Empty(t, r.Keys)
	assert.False(t, r.Rollover)
}

func TestCloneIsIndependent(t *testing.T) {
	r := report.New(4)
	r.Add(keycode.A)
	clone := r.Clone()
	r.Add(keycode.B)

	assert.Equal(t, []keycode.Code{keycode.A}, clone.Keys)
	assert.Equal(t, []keycode.Code{keycode.A, keycode.B}, r.Keys)
}
