package notify

import (
	"context"
	"errors"
	"time"

	"github.com/wlanshim/twt-go/pkg/twt"
)

// Sink errors.
var (
	ErrSinkFull   = errors.New("notification sink full")
	ErrSinkClosed = errors.New("notification sink closed")
)

// Notification is one decoded asynchronous TWT event.
type Notification struct {
	Time      time.Time     `json:"time"`
	Interface string        `json:"iface"`
	Op        twt.Operation `json:"-"`
	Tag       string        `json:"tag"`
	DialogID  uint8         `json:"dialog_id"`
	Status    twt.Status    `json:"status"`

	// Text is the rendered CTRL-EVENT-TWT line.
	Text string `json:"text"`
}

// FromEvent builds a notification for a decoded event on iface.
func FromEvent(iface string, ev twt.Event) Notification {
	return Notification{
		Time:      time.Now(),
		Interface: iface,
		Op:        ev.Op,
		Tag:       ev.Op.EventTag(),
		DialogID:  ev.DialogID,
		Status:    ev.Status,
		Text:      ev.Text,
	}
}

// Sink receives notifications. Implementations must be safe for
// concurrent use.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, n Notification) error

// Deliver calls f(ctx, n).
func (f SinkFunc) Deliver(ctx context.Context, n Notification) error { return f(ctx, n) }

// Multi delivers to every sink in order. All sinks are attempted; the
// errors are joined.
type Multi []Sink

// NewMulti returns a fan-out over the non-nil sinks.
func NewMulti(sinks ...Sink) Multi {
	out := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Deliver delivers n to every sink.
func (m Multi) Deliver(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Compile-time interface satisfaction checks.
var (
	_ Sink = SinkFunc(nil)
	_ Sink = Multi(nil)
)
