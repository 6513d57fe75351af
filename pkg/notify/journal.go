package notify

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// JournalSink appends notifications to a JSON line journal.
type JournalSink struct {
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewJournalSink creates a journal writing to w.
func NewJournalSink(w io.Writer) *JournalSink {
	return &JournalSink{
		logger: zerolog.New(w).With().Timestamp().Str("component", "twt").Logger(),
	}
}

// Deliver writes one journal line for n.
func (s *JournalSink) Deliver(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info().
		Str("iface", n.Interface).
		Str("tag", n.Tag).
		Uint8("dialog_id", n.DialogID).
		Uint8("status", uint8(n.Status)).
		Str("status_text", n.Status.String()).
		Time("event_time", n.Time).
		Msg(n.Text)
	return nil
}

var _ Sink = (*JournalSink)(nil)
