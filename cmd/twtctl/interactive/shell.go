// Package interactive provides the interactive command-line interface
// for twtctl.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/wlanshim/twt-go/pkg/capability"
	"github.com/wlanshim/twt-go/pkg/service"
	"github.com/wlanshim/twt-go/pkg/twt"
)

// Runner executes TWT command lines.
type Runner interface {
	Execute(ctx context.Context, line string) (service.Result, error)
	Interface() string
}

// Gate exposes the capability gate to the shell.
type Gate interface {
	State() capability.State
	Query(ctx context.Context) capability.State
	Invalidate()
}

// Shell handles interactive mode for twtctl.
type Shell struct {
	svc  Runner
	gate Gate
	rl   *readline.Instance
}

// New creates a new interactive shell.
func New(svc Runner, gate Gate) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("twt(%s)> ", svc.Interface()),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{svc: svc, gate: gate, rl: rl}, nil
}

func completer() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("caps", readline.PcItem("probe"), readline.PcItem("reset")),
		readline.PcItem("quit"),
	}
	for _, word := range twt.CommandWords() {
		op, _ := twt.LookupCommand(word)
		var kws []readline.PrefixCompleterInterface
		for _, kw := range twt.Keywords(op) {
			kws = append(kws, readline.PcItem(kw))
		}
		items = append(items, readline.PcItem(word, kws...))
	}
	return readline.NewPrefixCompleter(items...)
}

// Stdout returns a writer that coordinates with the readline input.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Stderr returns a writer that coordinates with the readline input.
// Use this for log output to avoid interfering with the prompt.
func (s *Shell) Stderr() io.Writer {
	return s.rl.Stderr()
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp(s.rl.Stdout())

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		if !s.Dispatch(ctx, s.rl.Stdout(), line) {
			cancel()
			return
		}
	}
}

// Dispatch runs one input line and writes its output to w. It returns
// false when the shell should exit.
func (s *Shell) Dispatch(ctx context.Context, w io.Writer, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case "help", "?":
		s.printHelp(w)
	case "caps":
		s.cmdCaps(ctx, w, parts[1:])
	case "quit", "exit", "q":
		fmt.Fprintln(w, "Exiting...")
		return false
	default:
		res, err := s.svc.Execute(ctx, input)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return true
		}
		if res.Text != "" {
			fmt.Fprintln(w, res.Text)
		}
	}
	return true
}

func (s *Shell) cmdCaps(ctx context.Context, w io.Writer, args []string) {
	if len(args) == 0 {
		fmt.Fprintf(w, "Async TWT: %s\n", s.gate.State())
		return
	}
	switch args[0] {
	case "probe":
		fmt.Fprintf(w, "Async TWT: %s\n", s.gate.Query(ctx))
	case "reset":
		s.gate.Invalidate()
		fmt.Fprintln(w, "Capability verdict cleared")
	default:
		fmt.Fprintln(w, "Usage: caps [probe|reset]")
	}
}

func (s *Shell) printHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	for _, word := range twt.CommandWords() {
		op, _ := twt.LookupCommand(word)
		args := twt.Keywords(op)
		if len(args) == 0 {
			fmt.Fprintf(w, "  %s\n", word)
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", word, strings.Join(withValues(args), " "))
	}
	fmt.Fprintln(w, "  caps [probe|reset]   Show, probe or clear the async TWT capability")
	fmt.Fprintln(w, "  help                 Show this help")
	fmt.Fprintln(w, "  quit                 Exit")
}

func withValues(kws []string) []string {
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = "[" + kw + " <n>]"
	}
	return out
}
