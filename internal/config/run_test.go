package config_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Alia5/kbcore/authoring"
	"github.com/Alia5/kbcore/internal/config"
	"github.com/Alia5/kbcore/internal/log"

	_ "github.com/Alia5/kbcore/internal/registry" // register device handlers for GetRegistration lookups
)

func writeKeymap(t *testing.T, dir string) string {
	t.Helper()
	doc := authoring.Document{Layers: [][]string{{"btn:A"}}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, "keymap.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// TestRunStartsAndStopsCleanly exercises the full CLI wiring path (keymap
// compile, engine, USB-IP server, monitor server) against ephemeral ports,
// and confirms it shuts down without error when its context is cancelled.
func TestRunStartsAndStopsCleanly(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AppData", dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	r := &config.Run{
		Keymap:            writeKeymap(t, dir),
		ConnectionTimeout: time.Second,
		Rows:              1,
		Cols:              1,
		ActiveHigh:        true,
		LayerCapacity:     4,
		RolloverLimit:     32,
	}
	r.UsbServerConfig.Addr = "127.0.0.1:0"
	r.Monitor.Addr = "127.0.0.1:0"

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	rawLogger := log.NewRaw(nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.StartCore(ctx, logger, rawLogger)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
