// Package log provides a structured event trace for the OpenThread setup
// service.
//
// This package defines the Logger interface and Event types for capturing
// characteristic accesses, settings changes and connection state. It is
// separate from operational logging (slog) - the trace is a machine-readable
// record of every GATT exchange for debugging and analysis.
//
// # Basic Usage
//
// Applications configure tracing by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/otsetup/device.otlog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at three layers:
//   - Transport: BLE connection and advertising state (StateChangeEvent)
//   - GATT: characteristic reads and writes (AccessEvent)
//   - Settings: registry saves, resets and erases (SettingEvent)
//
// Errors at any layer use ErrorEventData. Master key bytes are never
// written to the trace; such accesses carry Redacted instead of Data.
//
// # File Format
//
// Trace files are a plain sequence of CBOR encoded events, conventionally
// with the .otlog extension. The otsetup-log CLI tool views, filters and
// summarizes them.
package log
