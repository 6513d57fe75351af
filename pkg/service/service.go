package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wlanshim/twt-go/pkg/interaction"
	"github.com/wlanshim/twt-go/pkg/log"
	"github.com/wlanshim/twt-go/pkg/notify"
	"github.com/wlanshim/twt-go/pkg/twt"
	"github.com/wlanshim/twt-go/pkg/wire"
)

// Service errors.
var (
	ErrCapabilityUnsupported = errors.New("asynchronous TWT not supported")
	ErrNotTWTEvent           = errors.New("not a TWT vendor event")
	ErrNoInterface           = errors.New("no such interface")
)

// Executor runs one vendor transaction. *interaction.Engine implements it.
type Executor interface {
	Execute(ctx context.Context, req interaction.Request) (*interaction.Transaction, error)
}

// CapabilityGate reports whether asynchronous TWT is supported.
// *capability.Gate implements it.
type CapabilityGate interface {
	Supported(ctx context.Context) bool
}

// Result is the outcome of one successful command.
type Result struct {
	Op            twt.Operation
	TransactionID string

	// Text is the rendered reply. Empty for operations that complete on
	// acknowledgement.
	Text string

	// Sessions counts the sessions rendered into Text.
	Sessions int
}

// OpError reports a failed command.
type OpError struct {
	// Op is the operation, or -1 when the command was not recognized.
	Op  int
	Err error
}

func (e *OpError) Error() string {
	if e.Op < 0 {
		return fmt.Sprintf("TWT failed: %v", e.Err)
	}
	return fmt.Sprintf("TWT failed for operation %d: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Service translates TWT command lines into vendor transactions and
// vendor events into notifications.
type Service struct {
	exec     Executor
	gate     CapabilityGate
	resolver IfIndexResolver
	sink     notify.Sink
	config   Config
	plog     log.Logger
	logger   *slog.Logger
}

// New creates a service. A nil gate treats asynchronous TWT as supported.
func New(exec Executor, gate CapabilityGate, config Config) *Service {
	def := DefaultConfig()
	if config.Interface == "" {
		config.Interface = def.Interface
	}
	if config.ReplyCapacity <= 0 {
		config.ReplyCapacity = def.ReplyCapacity
	}
	resolver := config.Resolver
	if resolver == nil {
		resolver = NetResolver{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		exec:     exec,
		gate:     gate,
		resolver: resolver,
		sink:     config.Sink,
		config:   config,
		plog:     log.OrNoop(config.ProtocolLogger),
		logger:   logger,
	}
}

// Interface returns the configured interface name.
func (s *Service) Interface() string {
	return s.config.Interface
}

// Handle runs one command line and writes the reply into buf. It returns
// the reply length, or a negative errno. On failure buf holds the
// failure text.
func (s *Service) Handle(ctx context.Context, line string, buf []byte) int {
	res, err := s.Execute(ctx, line)
	if err == nil {
		if len(res.Text) > len(buf) {
			err = &OpError{Op: int(res.Op), Err: twt.ErrResourceExhausted}
		} else {
			return copy(buf, res.Text)
		}
	}

	copy(buf, err.Error())
	return Errno(err)
}

// Execute runs one command line.
func (s *Service) Execute(ctx context.Context, line string) (Result, error) {
	params, err := twt.ParseCommand(line)
	if err != nil {
		op, where := -1, "parse"
		var pe *twt.ParseError
		if errors.As(err, &pe) && !errors.Is(err, twt.ErrUnknownCommand) {
			op, where = int(pe.Op), pe.Op.String()
		}
		s.logError(where, err)
		return Result{}, &OpError{Op: op, Err: err}
	}
	op := params.Operation()

	res, err := s.run(ctx, params)
	if err != nil {
		s.logError(op.String(), err)
		s.logger.Debug("twt command failed",
			slog.String("iface", s.config.Interface),
			slog.String("op", op.String()),
			slog.Any("error", err))
		return res, &OpError{Op: int(op), Err: err}
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, params twt.Params) (Result, error) {
	op := params.Operation()
	res := Result{Op: op}

	if op.Async() && s.gate != nil && !s.gate.Supported(ctx) {
		return res, ErrCapabilityUnsupported
	}

	ifindex, err := s.resolver.IfIndex(s.config.Interface)
	if err != nil {
		return res, err
	}
	attrs, err := twt.Build(ifindex, params)
	if err != nil {
		return res, err
	}
	payload, err := wire.Encode(attrs)
	if err != nil {
		return res, err
	}

	req := interaction.Request{Op: op, Payload: payload}
	if op.ReadStyle() {
		req.Decode = func(data []byte, w *twt.ReplyWriter) (int, error) {
			return twt.DecodeReply(op, data, w)
		}
	}

	txn, err := s.exec.Execute(ctx, req)
	if txn != nil {
		res.TransactionID = txn.ID
		res.Sessions = txn.Sessions
		if txn.Output != nil {
			res.Text = txn.Output.String()
		}
	}
	return res, err
}

func (s *Service) logError(where string, err error) {
	code := Errno(err)
	s.plog.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerService,
		Category:  log.CategoryError,
		Interface: s.config.Interface,
		Error: &log.ErrorEventData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Code:    &code,
			Context: where,
		},
	})
}
