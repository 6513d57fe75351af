package replay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/wlanshim/twt-go/pkg/capability"
	"github.com/wlanshim/twt-go/pkg/interaction"
	"github.com/wlanshim/twt-go/pkg/log"
	"github.com/wlanshim/twt-go/pkg/notify"
	"github.com/wlanshim/twt-go/pkg/service"
	"github.com/wlanshim/twt-go/pkg/twt"
)

// Result is the outcome of one scenario.
type Result struct {
	Scenario *Scenario
	Steps    []StepResult
}

// Passed reports whether every step met its expectations.
func (r *Result) Passed() bool {
	for _, s := range r.Steps {
		if !s.Passed() {
			return false
		}
	}
	return true
}

// Failures lists all step failures prefixed with the step number.
func (r *Result) Failures() []string {
	var out []string
	for _, s := range r.Steps {
		for _, f := range s.Failures {
			out = append(out, fmt.Sprintf("step %d: %s", s.Index+1, f))
		}
	}
	return out
}

// StepResult records what happened during one step.
type StepResult struct {
	Index       int
	Description string

	// Code and Output are set for command steps.
	Code   int
	Output string

	// Sent holds the requests sent during the step.
	Sent [][]byte

	// Notifications holds the events delivered during the step.
	Notifications []notify.Notification

	// Err is the event handling error of an event step.
	Err error

	Failures []string
}

// Passed reports whether the step met its expectations.
func (s StepResult) Passed() bool {
	return len(s.Failures) == 0
}

func (s *StepResult) failf(format string, args ...any) {
	s.Failures = append(s.Failures, fmt.Sprintf(format, args...))
}

// Options configures a run.
type Options struct {
	// ProtocolLogger receives protocol events from every layer.
	ProtocolLogger log.Logger

	// Logger is the operational logger. Nil discards.
	Logger *slog.Logger
}

// stack is the command path under test, wired the way twtctl wires it.
type stack struct {
	driver *Driver
	gate   *capability.Gate
	svc    *service.Service
	sink   *notify.ChanSink
}

func newStack(sc *Scenario, opts Options) *stack {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	driver := NewDriver()
	engine := interaction.NewEngine(driver, interaction.Config{
		MaxReplies:     interaction.DefaultConfig().MaxReplies,
		ReplyCapacity:  twt.DefaultReplyCapacity,
		Interface:      sc.Interface,
		ProtocolLogger: opts.ProtocolLogger,
		Logger:         logger,
	})

	var probe capability.Prober
	switch sc.Capability {
	case "probe":
		probe = capability.FeatureProber(engine, sc.IfIndex, twt.FeatureTWTAsync)
	default:
		supported := sc.Capability == "supported"
		probe = func(context.Context) (bool, error) { return supported, nil }
	}
	gate := capability.NewGate(probe, capability.Config{
		Interface:      sc.Interface,
		ProtocolLogger: opts.ProtocolLogger,
		Logger:         logger,
	})

	sink := notify.NewChanSink(16)
	svc := service.New(engine, gate, service.Config{
		Interface:      sc.Interface,
		ReplyCapacity:  twt.DefaultReplyCapacity,
		Resolver:       service.StaticIfIndex(sc.IfIndex),
		Sink:           sink,
		ProtocolLogger: opts.ProtocolLogger,
		Logger:         logger,
	})

	return &stack{driver: driver, gate: gate, svc: svc, sink: sink}
}

// Run executes every step of sc against a fresh command stack. It
// returns an error only when the scenario itself is invalid; unmet
// expectations are reported in the result.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Result, error) {
	st := newStack(sc, opts)
	res := &Result{Scenario: sc}

	for i, step := range sc.Steps {
		sr, err := st.runStep(ctx, sc, i, step)
		if err != nil {
			return nil, fmt.Errorf("%s step %d: %w", sc.ID, i+1, err)
		}
		res.Steps = append(res.Steps, sr)
	}
	return res, nil
}

func (st *stack) runStep(ctx context.Context, sc *Scenario, i int, step Step) (StepResult, error) {
	sr := StepResult{Index: i, Description: step.Description}

	if step.Invalidate {
		st.gate.Invalidate()
	}

	for _, r := range step.Replies {
		reply, err := r.reply()
		if err != nil {
			return sr, err
		}
		st.driver.Script(reply)
	}
	before := len(st.driver.Sent())

	if step.Command != "" {
		buf := make([]byte, sc.BufferSize)
		sr.Code = st.svc.Handle(ctx, step.Command, buf)
		if sr.Code >= 0 {
			sr.Output = string(buf[:sr.Code])
		} else if n := bytes.IndexByte(buf, 0); n >= 0 {
			sr.Output = string(buf[:n])
		} else {
			sr.Output = string(buf)
		}
	} else {
		data, err := payload(step.Event.Hex, step.Event.Attrs)
		if err != nil {
			return sr, err
		}
		ev := service.VendorEvent{VendorID: twt.OUIQCA, SubCmd: twt.SubcmdConfigTWT, Data: data}
		if step.Event.VendorID != 0 {
			ev.VendorID = step.Event.VendorID
		}
		if step.Event.SubCmd != 0 {
			ev.SubCmd = step.Event.SubCmd
		}
		sr.Err = st.svc.OnVendorEvent(ctx, ev)
	}

	sr.Sent = st.driver.Sent()[before:]
	sr.Notifications = st.drain()
	if n := st.driver.Pending(); n > 0 {
		sr.failf("%d scripted replies not consumed", n)
		st.driver.Reset()
	}

	st.verify(&sr, step)
	return sr, nil
}

func (st *stack) drain() []notify.Notification {
	var out []notify.Notification
	for {
		select {
		case n := <-st.sink.C():
			out = append(out, n)
		default:
			return out
		}
	}
}

func (st *stack) verify(sr *StepResult, step Step) {
	exp := step.Expect

	if step.Command != "" {
		if exp.Code != nil && sr.Code != *exp.Code {
			sr.failf("code %d, want %d (output %q)", sr.Code, *exp.Code, sr.Output)
		}
		if exp.Output != nil && sr.Output != *exp.Output {
			sr.failf("output %q, want %q", sr.Output, *exp.Output)
		}
		if exp.OutputContains != "" && !strings.Contains(sr.Output, exp.OutputContains) {
			sr.failf("output %q, want it to contain %q", sr.Output, exp.OutputContains)
		}
	} else {
		switch {
		case exp.Error == "" && sr.Err != nil:
			sr.failf("unexpected event error: %v", sr.Err)
		case exp.Error != "" && sr.Err == nil:
			sr.failf("event handled, want error containing %q", exp.Error)
		case exp.Error != "" && !strings.Contains(sr.Err.Error(), exp.Error):
			sr.failf("event error %q, want it to contain %q", sr.Err, exp.Error)
		}
	}

	if exp.Requests != nil && len(sr.Sent) != *exp.Requests {
		sr.failf("%d requests sent, want %d", len(sr.Sent), *exp.Requests)
	}
	if len(exp.Sent) > 0 {
		if len(sr.Sent) == 0 {
			sr.failf("no request sent")
		} else {
			last := sr.Sent[len(sr.Sent)-1]
			for _, c := range exp.Sent {
				if err := c.Verify(last); err != nil {
					sr.failf("sent request: %v", err)
				}
			}
		}
	}

	if exp.Notification != nil {
		if len(sr.Notifications) == 0 {
			sr.failf("no notification delivered, want %q", *exp.Notification)
		} else if got := sr.Notifications[len(sr.Notifications)-1].Text; got != *exp.Notification {
			sr.failf("notification %q, want %q", got, *exp.Notification)
		}
	}

	if exp.Capability != "" {
		if got := st.gate.State(); !strings.EqualFold(got.String(), exp.Capability) {
			sr.failf("capability %s, want %s", got, exp.Capability)
		}
	}
}
