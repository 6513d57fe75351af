package notify

import (
	"context"
	"log/slog"
)

// SlogSink writes notifications to an operational logger.
type SlogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogSink creates a sink logging at LevelInfo. A nil logger uses
// slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger, level: slog.LevelInfo}
}

// Deliver logs n.
func (s *SlogSink) Deliver(ctx context.Context, n Notification) error {
	s.logger.LogAttrs(ctx, s.level, "twt event",
		slog.String("iface", n.Interface),
		slog.String("tag", n.Tag),
		slog.Int("dialog_id", int(n.DialogID)),
		slog.Int("status", int(n.Status)),
		slog.String("text", n.Text))
	return nil
}

var _ Sink = (*SlogSink)(nil)
