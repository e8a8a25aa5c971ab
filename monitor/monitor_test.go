package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/kbcore/device/keyboard"
	"github.com/Alia5/kbcore/monitor"
	"github.com/Alia5/kbcore/monitor/auth"
)

type fakeSource struct {
	state keyboard.InputState
}

func (f *fakeSource) Snapshot() keyboard.InputState { return f.state }

func TestServerStreamsSnapshotsToClient(t *testing.T) {
	key, err := auth.DeriveKey("correct-horse")
	require.NoError(t, err)

	var state keyboard.InputState
	state.Modifiers = 1 << 0 // LCtrl
	state.KeyBitmap[0] = 1 << 4
	src := &fakeSource{state: state}

	srv := monitor.New(src, key, monitor.Config{PushInterval: 2 * time.Millisecond}, nil)
	go func() {
		_ = srv.ListenAndServe("127.0.0.1:0")
	}()

	var addr string
	require.Eventually(t, func() bool {
		addr = srv.Addr()
		return addr != ""
	}, time.Second, time.Millisecond)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := monitor.Dial(ctx, addr, key)
	require.NoError(t, err)
	defer client.Close()

	got, err := client.Next()
	require.NoError(t, err)
	assert.Equal(t, state.Modifiers, got.Modifiers)
	assert.Equal(t, state.KeyBitmap, got.KeyBitmap)
}

func TestClientRejectedWithWrongKey(t *testing.T) {
	serverKey, err := auth.DeriveKey("correct-horse")
	require.NoError(t, err)
	wrongKey, err := auth.DeriveKey("battery-staple")
	require.NoError(t, err)

	src := &fakeSource{}
	srv := monitor.New(src, serverKey, monitor.Config{}, nil)
	go func() {
		_ = srv.ListenAndServe("127.0.0.1:0")
	}()

	var addr string
	require.Eventually(t, func() bool {
		addr = srv.Addr()
		return addr != ""
	}, time.Second, time.Millisecond)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = monitor.Dial(ctx, addr, wrongKey)
	assert.Error(t, err)
}
