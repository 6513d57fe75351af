package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.TransactionID != "" {
		attrs = append(attrs, slog.String("txn_id", event.TransactionID))
	}
	if event.Interface != "" {
		attrs = append(attrs, slog.String("iface", event.Interface))
	}

	switch {
	case event.Message != nil:
		attrs = append(attrs,
			slog.String("operation", event.Message.Operation.String()),
			slog.Int("size", event.Message.Size),
			slog.Bool("truncated", event.Message.Truncated),
		)
	case event.Reply != nil:
		attrs = append(attrs, slog.String("reply", event.Reply.Kind))
		if event.Reply.Code != 0 {
			attrs = append(attrs, slog.Int("code", event.Reply.Code))
		}
		if event.Reply.Size != 0 {
			attrs = append(attrs, slog.Int("size", event.Reply.Size))
		}
	case event.Notification != nil:
		attrs = append(attrs,
			slog.String("operation", event.Notification.Operation.String()),
			slog.Uint64("dialog_id", uint64(event.Notification.DialogID)),
			slog.String("status", event.Notification.Status.String()),
		)
	case event.Capability != nil:
		attrs = append(attrs,
			slog.String("old_state", event.Capability.OldState),
			slog.String("new_state", event.Capability.NewState),
		)
		if event.Capability.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Capability.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
