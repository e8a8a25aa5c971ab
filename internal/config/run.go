package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/Alia5/kbcore/authoring"
	"github.com/Alia5/kbcore/core/debounce"
	"github.com/Alia5/kbcore/core/keymap"
	"github.com/Alia5/kbcore/core/keys"
	"github.com/Alia5/kbcore/core/matrix"
	"github.com/Alia5/kbcore/device"
	"github.com/Alia5/kbcore/engine"
	"github.com/Alia5/kbcore/internal/configpaths"
	"github.com/Alia5/kbcore/internal/log"
	"github.com/Alia5/kbcore/internal/server/usb"
	"github.com/Alia5/kbcore/internal/util"
	"github.com/Alia5/kbcore/monitor"
	"github.com/Alia5/kbcore/monitor/auth"
	"github.com/Alia5/kbcore/virtualbus"
)

const monitorKeyFileName = "kbcore.monitor.key.txt"

// Run is the default command: it compiles the keymap, wires the
// scan/debounce/keymap pipeline to a USB-IP HID keyboard endpoint, and
// serves a read-only monitor stream alongside it.
type Run struct {
	UsbServerConfig usb.ServerConfig `embed:"" prefix:"usb."`
	Monitor         MonitorConfig    `embed:"" prefix:"monitor."`

	Keymap string `help:"Path to the keymap authoring document (TOML/YAML/JSON)." type:"path" required:""`

	ConnectionTimeout time.Duration `help:"Per-connection I/O timeout for the USB-IP server." default:"30s" env:"KBCORE_CONNECTION_TIMEOUT"`

	Rows       int  `help:"Matrix row count." default:"1"`
	Cols       int  `help:"Matrix column count." default:"1"`
	ActiveHigh bool `help:"Matrix strobe/sense polarity (true: high = pressed)." default:"true"`

	LayerCapacity int `help:"Maximum number of simultaneously active layers." default:"4"`
	RolloverLimit int `help:"Maximum keys reported at once before Rollover is set." default:"32"`

	DebounceIncrement uint8 `help:"Per-tick Schmitt-trigger integrator increment." default:"32"`
	DebounceLoToHi    uint8 `help:"Integrator threshold that flips a key clean-pressed." default:"155"`
	DebounceHiToLo    uint8 `help:"Integrator threshold that flips a key clean-released." default:"100"`

	ModTimeout uint64 `help:"Mod-tap hold timeout, in scan ticks." default:"200"`
	TapRelease uint64 `help:"Mod-tap tap-then-release window, in scan ticks." default:"150"`
	TapRepeat  uint64 `help:"Mod-tap double-tap repeat window, in scan ticks." default:"400"`

	IdVendor  *uint16 `help:"Override the reported USB vendor ID."`
	IdProduct *uint16 `help:"Override the reported USB product ID."`
}

// MonitorConfig controls the read-only monitor stream.
type MonitorConfig struct {
	Addr string `help:"Monitor server listen address." default:":3243" env:"KBCORE_MONITOR_ADDR"`
}

// Run is called by Kong when the default command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.StartCore(ctx, logger, rawLogger)
}

// StartCore runs the wired pipeline until ctx is cancelled or a server
// fails. Split from Run so tests can drive it with their own context
// instead of the process's signal-derived one.
func (r *Run) StartCore(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	r.UsbServerConfig.ConnectionTimeout = r.ConnectionTimeout
	r.UsbServerConfig.BusCleanupTimeout = r.ConnectionTimeout

	doc, err := authoring.Load(r.Keymap)
	if err != nil {
		return fmt.Errorf("load keymap: %w", err)
	}
	table, err := authoring.Compile(doc)
	if err != nil {
		return fmt.Errorf("compile keymap: %w", err)
	}
	if table.Size() != r.Rows*r.Cols {
		return fmt.Errorf("keymap has %d positions, matrix is %dx%d=%d", table.Size(), r.Rows, r.Cols, r.Rows*r.Cols)
	}

	scanner := matrix.New(unwiredOutputs(r.Rows), unwiredInputs(r.Cols), r.ActiveHigh)
	debouncer := debounce.New(table.Size(), r.DebounceIncrement, r.DebounceLoToHi, r.DebounceHiToLo)

	modTap := keys.ModTapConfig{
		ModTimeout: keys.Tick(r.ModTimeout),
		TapRelease: keys.Tick(r.TapRelease),
		TapRepeat:  keys.Tick(r.TapRepeat),
	}
	km, err := keymap.New(table, r.LayerCapacity, r.RolloverLimit, modTap)
	if err != nil {
		return fmt.Errorf("build keymap: %w", err)
	}

	reg := device.GetRegistration("keyboard")
	if reg == nil {
		return fmt.Errorf("no device type registered as %q (missing internal/registry import?)", "keyboard")
	}
	dev, err := reg.CreateDevice(&device.CreateOptions{IdVendor: r.IdVendor, IdProduct: r.IdProduct})
	if err != nil {
		return fmt.Errorf("build keyboard device: %w", err)
	}
	sink, ok := dev.(engine.HIDSink)
	if !ok {
		return fmt.Errorf("device type %q does not implement engine.HIDSink", "keyboard")
	}

	eng := engine.New(scanner, debouncer, km, sink, engine.Config{}, logger)

	bus := virtualbus.New()
	if _, err := bus.Add(dev); err != nil {
		return fmt.Errorf("attach keyboard to bus: %w", err)
	}

	usbSrv := usb.New(r.UsbServerConfig, logger, rawLogger)
	if err := usbSrv.AddBus(bus); err != nil {
		return fmt.Errorf("register bus: %w", err)
	}

	usbErrCh := make(chan error, 1)
	go func() { usbErrCh <- usbSrv.ListenAndServe() }()

	select {
	case err := <-usbErrCh:
		return err
	case <-usbSrv.Ready():
	}
	logger.Info("USB-IP server listening", "addr", usbSrv.Addr())

	monitorKey, err := loadOrGenerateMonitorKey(logger)
	if err != nil {
		return fmt.Errorf("monitor key: %w", err)
	}
	derivedKey, err := auth.DeriveKey(monitorKey)
	if err != nil {
		return fmt.Errorf("derive monitor key: %w", err)
	}
	monitorSrv := monitor.New(eng, derivedKey, monitor.Config{}, logger)
	monitorErrCh := make(chan error, 1)
	go func() { monitorErrCh <- monitorSrv.ListenAndServe(r.Monitor.Addr) }()

	if util.IsRunFromGUI() {
		go func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		}()
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	engErrCh := make(chan error, 1)
	go func() { engErrCh <- eng.Run(runCtx) }()

	select {
	case <-ctx.Done():
		_ = usbSrv.Close()
		_ = monitorSrv.Close()
		cancelRun()
		<-usbErrCh
		<-engErrCh
		return nil
	case err := <-usbErrCh:
		_ = monitorSrv.Close()
		cancelRun()
		<-engErrCh
		return err
	case err := <-monitorErrCh:
		_ = usbSrv.Close()
		cancelRun()
		<-usbErrCh
		<-engErrCh
		return err
	}
}

func loadOrGenerateMonitorKey(logger *slog.Logger) (string, error) {
	dir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve key file path: %w", err)
	}
	keyFilePath := path.Join(dir, monitorKeyFileName)
	if pwd, err := os.ReadFile(keyFilePath); err == nil {
		return strings.TrimSpace(string(pwd)), nil
	}

	newKey, err := auth.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generate new monitor key: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir for key file: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newKey), 0o600); err != nil {
		return "", fmt.Errorf("write new monitor key to file: %w", err)
	}
	logger.Info("Generated monitor key", "path", keyFilePath)
	logger.Info("-------------------------------------")
	logger.Info("Your kbcore monitor key is:")
	logger.Info("-------------------------------------")
	logger.Info(newKey)
	logger.Info("-------------------------------------")
	logger.Info("You can change this key at any time by editing the file")
	return newKey, nil
}
