package capability

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wlanshim/twt-go/pkg/log"
)

// State is the cached capability verdict.
type State int32

const (
	Unknown State = iota
	Supported
	Unsupported
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case Supported:
		return "SUPPORTED"
	case Unsupported:
		return "UNSUPPORTED"
	default:
		return fmt.Sprintf("STATE(%d)", int32(s))
	}
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	switch s {
	case "UNKNOWN":
		return Unknown, nil
	case "SUPPORTED":
		return Supported, nil
	case "UNSUPPORTED":
		return Unsupported, nil
	default:
		return Unknown, fmt.Errorf("unknown capability state %q", s)
	}
}

// Prober asks the driver whether asynchronous TWT is supported.
type Prober func(ctx context.Context) (bool, error)

// Config configures a Gate.
type Config struct {
	// Interface keys the verdict in the Store and in log events.
	Interface string

	// Store persists verdicts. Nil disables persistence.
	Store *Store

	// ProtocolLogger receives capability transitions.
	ProtocolLogger log.Logger

	// Logger is the operational logger. Nil uses slog.Default().
	Logger *slog.Logger
}

// Gate caches the asynchronous TWT capability of one interface.
type Gate struct {
	state atomic.Int32
	probe Prober
	group singleflight.Group

	config Config
	plog   log.Logger
	logger *slog.Logger
}

// NewGate creates a gate in the Unknown state.
func NewGate(probe Prober, config Config) *Gate {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		probe:  probe,
		config: config,
		plog:   log.OrNoop(config.ProtocolLogger),
		logger: logger,
	}
}

// State returns the cached verdict without probing.
func (g *Gate) State() State {
	return State(g.state.Load())
}

// Query returns the cached verdict, probing first if it is Unknown.
func (g *Gate) Query(ctx context.Context) State {
	if s := g.State(); s != Unknown {
		return s
	}

	v, _, _ := g.group.Do("probe", func() (any, error) {
		if s := g.State(); s != Unknown {
			return s, nil
		}
		return g.runProbe(ctx), nil
	})
	return v.(State)
}

// Supported reports whether Query yields Supported.
func (g *Gate) Supported(ctx context.Context) bool {
	return g.Query(ctx) == Supported
}

func (g *Gate) runProbe(ctx context.Context) State {
	next := Unsupported
	reason := "feature bit clear"

	ok, err := g.probe(ctx)
	switch {
	case err != nil:
		reason = "probe failed: " + err.Error()
		g.logger.Warn("twt capability probe failed",
			slog.String("iface", g.config.Interface),
			slog.Any("error", err))
	case ok:
		next = Supported
		reason = "feature bit set"
	}

	if !g.state.CompareAndSwap(int32(Unknown), int32(next)) {
		// Restored or set concurrently; keep what is there.
		return g.State()
	}
	g.logTransition(Unknown, next, reason)
	if err == nil {
		// A failed probe is only cached for this process.
		g.save(next)
	}
	return next
}

// Invalidate forgets the cached verdict. The next Query probes again.
func (g *Gate) Invalidate() {
	old := State(g.state.Swap(int32(Unknown)))
	if old == Unknown {
		return
	}
	g.logTransition(old, Unknown, "invalidated")
	if g.config.Store != nil {
		if err := g.config.Store.Delete(g.config.Interface); err != nil {
			g.logger.Warn("failed to clear capability verdict",
				slog.String("iface", g.config.Interface),
				slog.Any("error", err))
		}
	}
}

// Restore loads a persisted verdict. It is a no-op without a Store or
// when nothing was saved for the interface.
func (g *Gate) Restore() error {
	if g.config.Store == nil {
		return nil
	}
	snap, err := g.config.Store.Load()
	if err != nil {
		return fmt.Errorf("restore capability: %w", err)
	}
	if snap == nil {
		return nil
	}
	v, ok := snap.Interfaces[g.config.Interface]
	if !ok {
		return nil
	}
	s, err := ParseState(v.State)
	if err != nil {
		return fmt.Errorf("restore capability: %w", err)
	}
	if s == Unknown {
		return nil
	}
	if g.state.CompareAndSwap(int32(Unknown), int32(s)) {
		g.logTransition(Unknown, s, "restored")
	}
	return nil
}

func (g *Gate) save(s State) {
	if g.config.Store == nil {
		return
	}
	err := g.config.Store.Put(g.config.Interface, Verdict{State: s.String(), ProbedAt: time.Now()})
	if err != nil {
		g.logger.Warn("failed to persist capability verdict",
			slog.String("iface", g.config.Interface),
			slog.Any("error", err))
	}
}

func (g *Gate) logTransition(from, to State, reason string) {
	g.logger.Debug("twt capability changed",
		slog.String("iface", g.config.Interface),
		slog.String("from", from.String()),
		slog.String("to", to.String()))

	g.plog.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerService,
		Category:  log.CategoryCapability,
		Interface: g.config.Interface,
		Capability: &log.CapabilityEvent{
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}
