package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/denisbrodbeck/machineid"
	"github.com/otsetup/otsetup-go/cmd/otsetup-device/interactive"
	"github.com/otsetup/otsetup-go/pkg/log"
	"github.com/otsetup/otsetup-go/pkg/otsettings"
	"github.com/otsetup/otsetup-go/pkg/settings"
	"github.com/otsetup/otsetup-go/pkg/setupot"
)

// device is the booted settings stack.
type device struct {
	cfg      Config
	deviceID string
	store    *settings.FileStore
	reg      *otsettings.Registry
	svc      *setupot.Service
	trace    *log.MultiLogger
}

// boot opens the settings store, restores the fields and builds the setup
// service over them.
func boot(cfg Config, logger *slog.Logger) (*device, error) {
	deviceID := cfg.DeviceID
	if deviceID == "" {
		deviceID = defaultDeviceID(logger)
	}

	trace, err := openTrace(cfg, logger)
	if err != nil {
		return nil, err
	}

	store := settings.NewFileStore(cfg.Storage.Path)
	store.MaxRecords = cfg.Storage.MaxRecords
	store.Logger = logger

	reg := otsettings.NewRegistryWithConfig(store, otsettings.Config{
		Logger:        logger,
		EventLogger:   trace,
		StrictRestore: cfg.Restore.Strict,
	})
	if err := reg.Init(); err != nil {
		_ = trace.Close()
		_ = store.Close()
		return nil, fmt.Errorf("settings init: %w", err)
	}

	svc := setupot.NewServiceWithConfig(reg, setupot.Config{
		Logger:      logger,
		EventLogger: trace,
		DeviceID:    deviceID,
	})

	return &device{
		cfg:      cfg,
		deviceID: deviceID,
		store:    store,
		reg:      reg,
		svc:      svc,
		trace:    trace,
	}, nil
}

// openTrace builds the protocol event sink: the file log when configured,
// plus the slog adapter at debug level.
func openTrace(cfg Config, logger *slog.Logger) (*log.MultiLogger, error) {
	var sinks []log.Logger
	if cfg.Log.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.Log.ProtocolLog)
		if err != nil {
			return nil, fmt.Errorf("open protocol log: %w", err)
		}
		sinks = append(sinks, fl)
	}
	if level, _ := parseLevel(cfg.Log.Level); level <= slog.LevelDebug && logger != nil {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}
	return log.NewMultiLogger(sinks...), nil
}

// checkSentinel resets the in-memory settings when the stored PAN ID marks
// the device as unprovisioned. It reports whether a reset happened.
func (d *device) checkSentinel() bool {
	if !d.reg.NeedsReset() {
		return false
	}
	d.svc.Reset()
	return true
}

// printValues writes the restored value of every field. The master key is
// reported by length only.
func (d *device) printValues(w io.Writer) {
	for _, f := range otsettings.Fields() {
		fmt.Fprintf(w, "  %-10s %s\n", f.String()+":", interactive.Format(d.reg, f))
	}
}

// Close releases the trace sinks and the settings file.
func (d *device) Close() error {
	err := d.trace.Close()
	if cerr := d.store.Close(); err == nil {
		err = cerr
	}
	return err
}

func defaultDeviceID(logger *slog.Logger) string {
	id, err := machineid.ProtectedID("otsetup")
	if err != nil {
		if logger != nil {
			logger.Warn("machine id unavailable", "error", err)
		}
		return "otsetup-unknown"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
