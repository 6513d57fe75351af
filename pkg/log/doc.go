// Package log provides structured protocol logging for TWT session control.
//
// This package defines the Logger interface and Event types for capturing
// the vendor command traffic at multiple layers (transport, wire, service).
// It is separate from operational logging (slog): protocol capture provides
// a complete machine-readable trace of requests, replies and events.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/twt/wlan0.tlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - Message: an outgoing CONFIG_TWT or GET_FEATURES request
//   - Reply: an ack, error, finish or data reply
//   - Notification: a decoded asynchronous TWT event
//   - Capability: a capability gate transition
//   - Error: a failure at any layer
//
// # File Format
//
// Log files use CBOR encoding with the .tlog extension. The twt-log CLI
// tool provides viewing, filtering and statistics.
package log
