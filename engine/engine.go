// Package engine drives the scan -> debounce -> keymap -> report pipeline
// on a ticker and pushes the assembled report down to a HID sink, split
// across a scan goroutine and a writer goroutine so a slow or blocked sink
// write never stalls the matrix scan.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/kbcore/core/debounce"
	"github.com/Alia5/kbcore/core/keymap"
	"github.com/Alia5/kbcore/core/matrix"
	"github.com/Alia5/kbcore/core/report"
	"github.com/Alia5/kbcore/device/keyboard"
)

// Config controls the engine's timing. Zero values take the defaults below.
type Config struct {
	// ScanInterval is the period between matrix scans. Default 1ms.
	ScanInterval time.Duration
	// WriteInterval is the period the writer goroutine polls the latest
	// assembled report and hands it to the sink. Default equals ScanInterval.
	WriteInterval time.Duration
}

const defaultScanInterval = time.Millisecond

// Engine owns the scan/debounce/keymap pipeline and the goroutine pair that
// drives it.
type Engine struct {
	scanner    *matrix.Scanner
	debouncer  *debounce.Debouncer
	keymap     *keymap.Keymap
	sink       HIDSink
	clock      Clock
	cfg        Config
	logger     *slog.Logger

	mu     sync.Mutex
	latest *report.Report
}

// New builds an Engine. scanner and debouncer must share the same key count
// as km's table size.
func New(scanner *matrix.Scanner, debouncer *debounce.Debouncer, km *keymap.Keymap, sink HIDSink, cfg Config, logger *slog.Logger) *Engine {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = defaultScanInterval
	}
	if cfg.WriteInterval <= 0 {
		cfg.WriteInterval = cfg.ScanInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		scanner:   scanner,
		debouncer: debouncer,
		keymap:    km,
		sink:      sink,
		clock:     &tickCounter{},
		cfg:       cfg,
		logger:    logger,
	}
}

// Snapshot returns the HID input state assembled on the most recent scan
// tick, or the zero value if no tick has completed yet. Safe to call
// concurrently with Run; used by monitor to serve a read-only view of the
// currently pressed keys without touching the scan/write goroutines.
func (e *Engine) Snapshot() keyboard.InputState {
	e.mu.Lock()
	rep := e.latest
	e.mu.Unlock()
	if rep == nil {
		return keyboard.InputState{}
	}
	return inputStateFor(rep)
}

// Run starts the scan and writer goroutines and blocks until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		e.scanLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.writeLoop(ctx)
	}()

	wg.Wait()
	return ctx.Err()
}

func (e *Engine) scanLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.ScanInterval)
	defer ticker.Stop()

	raw := make([]bool, e.scanner.Size())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.scanner.Scan(raw); err != nil {
				e.logger.Warn("matrix scan failed, skipping tick", "error", err)
				continue
			}
			e.debouncer.Debounce(raw)

			rep, err := e.keymap.Process(raw, e.clock.Next())
			if err != nil {
				e.logger.Error("keymap process failed", "error", err)
				continue
			}
			if rep.Rollover {
				e.logger.Warn("report rollover: more keys held than fit in one report")
			}

			e.mu.Lock()
			e.latest = rep.Clone()
			e.mu.Unlock()
		}
	}
}

func (e *Engine) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.WriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			rep := e.latest
			e.mu.Unlock()
			if rep == nil {
				continue
			}
			e.sink.UpdateInputState(inputStateFor(rep))
		}
	}
}
