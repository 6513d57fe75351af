package genl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/wlanshim/twt-go/pkg/interaction"
	"github.com/wlanshim/twt-go/pkg/twt"
)

// ErrNoRequest is returned by Receive before any request was sent.
var ErrNoRequest = errors.New("no request outstanding")

// socket is the part of *genetlink.Conn used by Conn.
type socket interface {
	Send(m genetlink.Message, family uint16, flags netlink.HeaderFlags) (netlink.Message, error)
	Receive() ([]genetlink.Message, []netlink.Message, error)
	SetDeadline(t time.Time) error
	Close() error
}

// reply is one received message awaiting Receive.
type reply struct {
	kind interaction.ReplyKind
	data []byte
}

// Conn is a generic netlink transport bound to the nl80211 family.
type Conn struct {
	mu      sync.Mutex
	sock    socket
	family  uint16
	version uint8
	logger  *slog.Logger

	seq     uint32
	sent    bool
	pending []reply
}

// Dial opens a generic netlink socket and resolves the nl80211 family.
func Dial(logger *slog.Logger) (*Conn, error) {
	c, err := genetlink.Dial(nil)
	if err != nil {
		return nil, err
	}
	for _, o := range []netlink.ConnOption{
		netlink.ExtendedAcknowledge,
		netlink.GetStrictCheck,
	} {
		_ = c.SetOption(o, true)
	}

	family, err := c.GetFamily(unix.NL80211_GENL_NAME)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("resolve %s: %w", unix.NL80211_GENL_NAME, err)
	}
	return newConn(c, family.ID, family.Version, logger), nil
}

func newConn(sock socket, family uint16, version uint8, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{sock: sock, family: family, version: version, logger: logger}
}

// Close closes the socket.
func (c *Conn) Close() error {
	return c.sock.Close()
}

// Send transmits msg, an encoded nl80211 attribute buffer, as a vendor
// command and discards replies left from an earlier request.
func (c *Conn) Send(ctx context.Context, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stop, err := c.bind(ctx)
	if err != nil {
		return err
	}
	defer stop()

	req, err := c.sock.Send(genetlink.Message{
		Header: genetlink.Header{
			Command: twt.NL80211CmdVendor,
			Version: c.version,
		},
		Data: msg,
	}, c.family, netlink.Request|netlink.Acknowledge)
	if err != nil {
		return ctxErr(ctx, err)
	}

	c.seq = req.Header.Sequence
	c.sent = true
	c.pending = c.pending[:0]
	return nil
}

// Receive returns the next reply to the most recent request.
func (c *Conn) Receive(ctx context.Context) (interaction.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.sent {
		return interaction.Reply{}, ErrNoRequest
	}

	for len(c.pending) == 0 {
		if err := c.fill(ctx); err != nil {
			var errno unix.Errno
			if ctx.Err() == nil && errors.As(err, &errno) {
				// The kernel rejected the request with a negative status.
				return interaction.Reply{Kind: interaction.ReplyError, Code: int(errno)}, nil
			}
			return interaction.Reply{}, ctxErr(ctx, err)
		}
	}

	r := c.pending[0]
	c.pending = c.pending[1:]
	return interaction.Reply{Kind: r.kind, Data: r.data}, nil
}

// fill reads one batch from the socket into pending.
func (c *Conn) fill(ctx context.Context) error {
	stop, err := c.bind(ctx)
	if err != nil {
		return err
	}
	defer stop()

	gmsgs, nmsgs, err := c.sock.Receive()
	if err != nil {
		return err
	}

	for i, nm := range nmsgs {
		if nm.Header.Sequence != c.seq {
			c.logger.Debug("dropping stale netlink message",
				slog.Uint64("seq", uint64(nm.Header.Sequence)),
				slog.Uint64("want", uint64(c.seq)))
			continue
		}
		// netlink.Conn trims the NLMSG_DONE of a multipart reply, so a
		// dump ends on the acknowledgement.
		switch {
		case nm.Header.Type == netlink.Error:
			// Error messages with a non-zero code surface as Receive
			// errors, so this is the acknowledgement.
			c.pending = append(c.pending, reply{kind: interaction.ReplyAck})
		case i < len(gmsgs):
			c.pending = append(c.pending, reply{kind: interaction.ReplyData, data: gmsgs[i].Data})
		}
	}
	return nil
}

// bind applies the context deadline to the socket and unblocks it when
// ctx is canceled. The returned func releases the binding.
func (c *Conn) bind(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deadline, _ := ctx.Deadline()
	if err := c.sock.SetDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.sock.SetDeadline(time.Now())
	})
	return func() { stop() }, nil
}

// ctxErr prefers the context's error when the context ended the call.
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}

var _ interaction.Transport = (*Conn)(nil)
