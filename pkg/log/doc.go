// Package log provides structured bus trace capture for hub bring-up.
//
// This package defines the Logger interface and Event types for capturing
// every control-bus register transaction, status poll and channel state change
// made while bringing a hub up. It is separate from operational logging
// (slog) - trace capture provides a complete machine-readable record for field
// diagnosis without a bus analyzer.
//
// # Basic Usage
//
// Applications attach a Logger to the bus and the bring-up controller:
//
//	// For development: log to console via slog
//	cfg.TraceLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.TraceLogger, _ = log.NewFileLogger("/var/log/gmsl/bringup.glog")
//
//	// Both: use MultiLogger
//	cfg.TraceLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/gmsl/bringup.glog"),
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Bus: register reads and writes (RegisterEvent)
//   - Hub: bounded status polls (PollEvent)
//   - Sequencer: channel, hub and stream state changes (StateChangeEvent)
//
// Errors that are not tied to a single transaction have a dedicated event type.
//
// # File Format
//
// Trace files use CBOR encoding with the .glog extension. The gmsl-log CLI
// tool provides viewing, filtering, and export capabilities.
package log
