package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/wlanshim/twt-go/pkg/log"
	"github.com/wlanshim/twt-go/pkg/twt"
)

// Engine errors.
var (
	ErrEngineClosed    = errors.New("engine is closed")
	ErrTooManyReplies  = errors.New("too many replies")
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// Outcome is the state of a transaction.
type Outcome uint8

const (
	Pending Outcome = iota
	Succeeded
	Failed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// DecodeFunc renders one DATA reply into w and returns the number of
// sessions it contained.
type DecodeFunc func(data []byte, w *twt.ReplyWriter) (int, error)

// Request is one vendor command to run.
type Request struct {
	Op      twt.Operation
	Payload []byte

	// Decode handles DATA replies. When nil, DATA replies are ignored.
	Decode DecodeFunc
}

// Transaction is the record of one request and its replies.
type Transaction struct {
	ID      string
	Op      twt.Operation
	Outcome Outcome

	// Code is the errno of a failed transaction, 0 otherwise.
	Code int

	// Output holds the text rendered from DATA replies, in order.
	Output *twt.ReplyWriter

	// Sessions counts the sessions rendered into Output.
	Sessions int

	Err error
}

func (t *Transaction) fail(code int, err error) {
	t.Outcome = Failed
	t.Code = code
	t.Err = err
}

// Config configures an Engine.
type Config struct {
	// MaxReplies bounds the replies read for one request.
	MaxReplies int

	// ReplyCapacity is the size of each transaction's output buffer.
	ReplyCapacity int

	// Timeout bounds one transaction. Zero means no timeout beyond the
	// caller's context.
	Timeout time.Duration

	// Interface names the wireless interface in log events.
	Interface string

	// ProtocolLogger receives protocol events. Nil disables capture.
	ProtocolLogger log.Logger

	// Logger is the operational logger. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxReplies:    64,
		ReplyCapacity: twt.DefaultReplyCapacity,
		Timeout:       5 * time.Second,
	}
}

// Engine runs request/reply transactions over a Transport. Transactions
// are serialized: replies are read from a single stream, so only one
// request may be outstanding.
type Engine struct {
	mu        sync.Mutex
	transport Transport
	config    Config
	plog      log.Logger
	logger    *slog.Logger
	closed    bool
}

// NewEngine creates an engine using transport.
func NewEngine(transport Transport, config Config) *Engine {
	if config.MaxReplies <= 0 {
		config.MaxReplies = DefaultConfig().MaxReplies
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		transport: transport,
		config:    config,
		plog:      log.OrNoop(config.ProtocolLogger),
		logger:    logger,
	}
}

// Close stops the engine. Later calls to Execute fail.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Execute sends req and pumps replies until the first terminal reply.
// The returned transaction is never nil; the error is the transaction's
// Err.
func (e *Engine) Execute(ctx context.Context, req Request) (*Transaction, error) {
	txn := &Transaction{
		ID:     uuid.NewString(),
		Op:     req.Op,
		Output: twt.NewReplyWriter(e.config.ReplyCapacity),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		txn.fail(int(unix.ESHUTDOWN), ErrEngineClosed)
		return txn, txn.Err
	}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	e.logMessage(txn, req)
	if err := e.transport.Send(ctx, req.Payload); err != nil {
		te := transportError("send", err)
		txn.fail(te.Code, te)
		e.logError(txn, log.LayerTransport, te)
		return txn, txn.Err
	}

	e.pump(ctx, txn, req)

	if txn.Err != nil {
		e.logger.Debug("twt transaction failed",
			slog.String("txn_id", txn.ID),
			slog.String("op", req.Op.String()),
			slog.Int("code", txn.Code),
			slog.Any("error", txn.Err))
	}
	return txn, txn.Err
}

func (e *Engine) pump(ctx context.Context, txn *Transaction, req Request) {
	var decodeErr error

	for n := 0; ; n++ {
		if n >= e.config.MaxReplies {
			te := &TransportError{Op: "receive", Code: int(unix.EMSGSIZE), Err: ErrTooManyReplies}
			txn.fail(te.Code, te)
			e.logError(txn, log.LayerTransport, te)
			return
		}

		reply, err := e.transport.Receive(ctx)
		if err != nil {
			te := transportError("receive", err)
			txn.fail(te.Code, te)
			e.logError(txn, log.LayerTransport, te)
			return
		}
		e.logReply(txn, reply)

		switch reply.Kind {
		case ReplyData:
			if req.Decode == nil || decodeErr != nil {
				continue
			}
			sessions, err := req.Decode(reply.Data, txn.Output)
			txn.Sessions += sessions
			if err != nil {
				decodeErr = err
				e.logError(txn, log.LayerWire, err)
			}

		case ReplyError:
			code := reply.Code
			if code <= 0 {
				// An error reply always fails the transaction.
				code = int(unix.EPROTO)
			}
			te := &TransportError{Op: "reply", Code: code, Err: unix.Errno(code)}
			txn.fail(code, te)
			return

		case ReplyAck, ReplyFinish:
			if decodeErr != nil {
				txn.fail(decodeErrno(decodeErr), decodeErr)
				return
			}
			txn.Outcome = Succeeded
			return

		default:
			err := fmt.Errorf("%w: kind %d", ErrUnexpectedReply, reply.Kind)
			txn.fail(int(unix.EPROTO), err)
			e.logError(txn, log.LayerTransport, err)
			return
		}
	}
}

func decodeErrno(err error) int {
	if errors.Is(err, twt.ErrResourceExhausted) {
		return int(unix.ENOSPC)
	}
	return int(unix.EBADMSG)
}

func (e *Engine) logMessage(txn *Transaction, req Request) {
	e.plog.Log(log.Event{
		Timestamp:     time.Now(),
		TransactionID: txn.ID,
		Direction:     log.DirectionOut,
		Layer:         log.LayerWire,
		Category:      log.CategoryMessage,
		Interface:     e.config.Interface,
		Message:       log.NewMessageEvent(req.Op, req.Payload),
	})
}

func (e *Engine) logReply(txn *Transaction, r Reply) {
	e.plog.Log(log.Event{
		Timestamp:     time.Now(),
		TransactionID: txn.ID,
		Direction:     log.DirectionIn,
		Layer:         log.LayerTransport,
		Category:      log.CategoryReply,
		Interface:     e.config.Interface,
		Reply:         &log.ReplyEvent{Kind: r.Kind.String(), Code: r.Code, Size: len(r.Data)},
	})
}

func (e *Engine) logError(txn *Transaction, layer log.Layer, err error) {
	code := Errno(err)
	e.plog.Log(log.Event{
		Timestamp:     time.Now(),
		TransactionID: txn.ID,
		Direction:     log.DirectionIn,
		Layer:         layer,
		Category:      log.CategoryError,
		Interface:     e.config.Interface,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Code:    &code,
			Context: txn.Op.String(),
		},
	})
}
