package notify

import (
	"context"
	"sync"
)

// ChanSink buffers notifications in a channel. Deliver never blocks: a
// full buffer drops the notification with ErrSinkFull.
type ChanSink struct {
	mu     sync.RWMutex
	ch     chan Notification
	closed bool
}

// NewChanSink creates a sink buffering up to size notifications.
func NewChanSink(size int) *ChanSink {
	if size < 1 {
		size = 1
	}
	return &ChanSink{ch: make(chan Notification, size)}
}

// C returns the receive side of the buffer. It is closed by Close.
func (s *ChanSink) C() <-chan Notification {
	return s.ch
}

// Deliver enqueues n.
func (s *ChanSink) Deliver(_ context.Context, n Notification) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.ch <- n:
		return nil
	default:
		return ErrSinkFull
	}
}

// Close closes the channel. Later deliveries fail with ErrSinkClosed.
func (s *ChanSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

var _ Sink = (*ChanSink)(nil)
