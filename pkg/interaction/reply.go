package interaction

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ReplyKind classifies a message received for an outstanding request.
type ReplyKind uint8

const (
	// ReplyAck acknowledges the request. Terminal.
	ReplyAck ReplyKind = iota
	// ReplyError carries a negative driver status. Terminal.
	ReplyError
	// ReplyFinish ends a multi-part reply. Terminal.
	ReplyFinish
	// ReplyData carries reply attributes.
	ReplyData
)

// String returns the reply kind name.
func (k ReplyKind) String() string {
	switch k {
	case ReplyAck:
		return "ACK"
	case ReplyError:
		return "ERROR"
	case ReplyFinish:
		return "FINISH"
	case ReplyData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the reply completes a transaction.
func (k ReplyKind) Terminal() bool {
	return k != ReplyData
}

// Reply is one message received from the driver.
type Reply struct {
	Kind ReplyKind

	// Code is the positive errno of an ERROR reply.
	Code int

	// Data is the attribute payload of a DATA reply.
	Data []byte
}

// Transport carries encoded requests to the driver and returns the
// replies for the most recent request in arrival order.
type Transport interface {
	Send(ctx context.Context, msg []byte) error
	Receive(ctx context.Context) (Reply, error)
}

// TransportError reports a transport failure or an error reply. Code is
// the positive errno.
type TransportError struct {
	Op   string
	Code int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v (code %d)", e.Op, e.Err, e.Code)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// transportError wraps err from op with the errno it carries.
func transportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Code: Errno(err), Err: err}
}

// Errno extracts a positive errno from err. Context expiry maps to
// ETIMEDOUT or ECANCELED; errors carrying no errno map to EIO.
func Errno(err error) int {
	var errno unix.Errno
	switch {
	case err == nil:
		return 0
	case errors.As(err, &errno):
		return int(errno)
	case errors.Is(err, context.DeadlineExceeded):
		return int(unix.ETIMEDOUT)
	case errors.Is(err, context.Canceled):
		return int(unix.ECANCELED)
	default:
		return int(unix.EIO)
	}
}
