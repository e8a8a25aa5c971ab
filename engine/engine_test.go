package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/kbcore/core/debounce"
	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/keymap"
	"github.com/Alia5/kbcore/core/keys"
	"github.com/Alia5/kbcore/core/matrix"
	"github.com/Alia5/kbcore/device/keyboard"
	"github.com/Alia5/kbcore/engine"
)

// heldOutput/heldInput simulate a 1x1 matrix whose single key is always
// pressed, so every scan tick reports the same closed contact.
type heldOutput struct{}

func (heldOutput) SetState(bool) error { return nil }

type heldInput struct{}

func (heldInput) IsHigh() (bool, error) { return true, nil }

type recordingSink struct {
	mu     sync.Mutex
	states []keyboard.InputState
}

func (s *recordingSink) UpdateInputState(st keyboard.InputState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, st)
}

func (s *recordingSink) last() (keyboard.InputState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.states) == 0 {
		return keyboard.InputState{}, false
	}
	return s.states[len(s.states)-1], true
}

func TestEngineRunDeliversPressedKeyToSink(t *testing.T) {
	scanner := matrix.New([]matrix.OutputPin{heldOutput{}}, []matrix.InputPin{heldInput{}}, true)

	table, err := keymap.NewTable(1, [][]keymap.Action{
		{keymap.Button(keycode.A)},
	})
	require.NoError(t, err)

	km, err := keymap.New(table, 4, 6, keys.ModTapConfig{ModTimeout: 20, TapRelease: 5, TapRepeat: 15})
	require.NoError(t, err)

	debouncer := debounce.New(1, 64, debounce.DefaultLoToHi, debounce.DefaultHiToLo)
	sink := &recordingSink{}

	e := engine.New(scanner, debouncer, km, sink, engine.Config{
		ScanInterval:  time.Millisecond,
		WriteInterval: time.Millisecond,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err = e.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	st, ok := sink.last()
	require.True(t, ok, "sink should have received at least one report")
	aByte, aBit := uint8(keycode.A)/8, uint8(keycode.A)%8
	assert.NotZero(t, st.KeyBitmap[aByte]&(1<<aBit), "A should be set in the key bitmap once debounced")
}
