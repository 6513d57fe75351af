package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/wlanshim/twt-go/pkg/interaction"
)

// ErrNoReply is returned by Receive when the script has run out.
var ErrNoReply = errors.New("no scripted reply")

// Driver is a scripted interaction.Transport. Requests are recorded and
// replies are returned from a queue filled by Script.
type Driver struct {
	mu      sync.Mutex
	sent    [][]byte
	replies []interaction.Reply
}

// NewDriver returns a driver with an empty script.
func NewDriver() *Driver {
	return &Driver{}
}

// Script appends replies to the queue.
func (d *Driver) Script(replies ...interaction.Reply) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replies = append(d.replies, replies...)
}

// Send records a copy of msg.
func (d *Driver) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, append([]byte(nil), msg...))
	return nil
}

// Receive pops the next scripted reply. An empty queue behaves like a
// driver that never answers.
func (d *Driver) Receive(ctx context.Context) (interaction.Reply, error) {
	if err := ctx.Err(); err != nil {
		return interaction.Reply{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.replies) == 0 {
		return interaction.Reply{}, fmt.Errorf("%w: %w", ErrNoReply, unix.ETIMEDOUT)
	}
	r := d.replies[0]
	d.replies = d.replies[1:]
	return r, nil
}

// Sent returns the requests recorded so far.
func (d *Driver) Sent() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.sent))
	copy(out, d.sent)
	return out
}

// Pending returns the number of unconsumed replies.
func (d *Driver) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.replies)
}

// Reset drops unconsumed replies.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replies = nil
}

// reply converts a scripted reply.
func (r Reply) reply() (interaction.Reply, error) {
	switch strings.ToLower(r.Kind) {
	case "ack":
		return interaction.Reply{Kind: interaction.ReplyAck}, nil
	case "finish":
		return interaction.Reply{Kind: interaction.ReplyFinish}, nil
	case "error":
		if r.Code < 0 {
			return interaction.Reply{}, fmt.Errorf("error reply code must not be negative")
		}
		return interaction.Reply{Kind: interaction.ReplyError, Code: r.Code}, nil
	case "data":
		b, err := payload(r.Hex, r.Attrs)
		if err != nil {
			return interaction.Reply{}, err
		}
		return interaction.Reply{Kind: interaction.ReplyData, Data: b}, nil
	default:
		return interaction.Reply{}, fmt.Errorf("unknown reply kind %q", r.Kind)
	}
}

var _ interaction.Transport = (*Driver)(nil)
