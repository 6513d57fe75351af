// Command twtctl controls Target Wake Time sessions on a wireless
// interface through nl80211 vendor commands.
//
// Usage:
//
//	twtctl [flags] [command [arguments]]
//
// Flags:
//
//	-config string        Configuration file (.yaml or .toml)
//	-iface string         Wireless interface (default "wlan0")
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write a CBOR protocol capture to this file
//	-state-file string    Persist the capability verdict in this file
//	-journal string       Append events as JSON lines to this file
//	-mqtt-broker string   Publish events to this MQTT broker
//	-interactive          Start an interactive shell
//	-listen               Keep running and print asynchronous events
//
// Examples:
//
//	# Query the session capabilities
//	twtctl twt_get_capability
//
//	# Set up a session and wait for the setup event
//	twtctl -listen twt_session_setup dialog_id 1 wake_dur 200 wake_intr_mantissa 512
//
//	# Interactive shell with protocol capture
//	twtctl -interactive -protocol-log /var/log/twt/wlan0.tlog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wlanshim/twt-go/cmd/twtctl/interactive"
	"github.com/wlanshim/twt-go/pkg/capability"
	"github.com/wlanshim/twt-go/pkg/interaction"
	"github.com/wlanshim/twt-go/pkg/log"
	"github.com/wlanshim/twt-go/pkg/notify"
	"github.com/wlanshim/twt-go/pkg/service"
	"github.com/wlanshim/twt-go/pkg/transport/genl"
	"github.com/wlanshim/twt-go/pkg/twt"
)

var (
	configFile      string
	interactiveMode bool
	listen          bool
	flagConfig      = DefaultConfig()
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file (.yaml or .toml)")
	flag.StringVar(&flagConfig.Interface, "iface", flagConfig.Interface, "Wireless interface")
	flag.StringVar(&flagConfig.LogLevel, "log-level", flagConfig.LogLevel, "Log level: debug, info, warn, error")
	flag.StringVar(&flagConfig.ProtocolLog, "protocol-log", "", "Write a CBOR protocol capture to this file")
	flag.StringVar(&flagConfig.StateFile, "state-file", "", "Persist the capability verdict in this file")
	flag.StringVar(&flagConfig.Journal, "journal", "", "Append events as JSON lines to this file")
	flag.StringVar(&flagConfig.MQTT.Broker, "mqtt-broker", "", "Publish events to this MQTT broker")
	flag.BoolVar(&interactiveMode, "interactive", false, "Start an interactive shell")
	flag.BoolVar(&listen, "listen", false, "Keep running and print asynchronous events")
}

func main() {
	flag.Parse()

	cfg, err := resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "twtctl: %v\n", err)
		os.Exit(2)
	}
	os.Exit(run(cfg, strings.Join(flag.Args(), " ")))
}

// resolveConfig loads the config file, if any, and applies the flags the
// user set explicitly.
func resolveConfig() (Config, error) {
	cfg := DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = LoadConfig(configFile); err != nil {
			return Config{}, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "iface":
			cfg.Interface = flagConfig.Interface
		case "log-level":
			cfg.LogLevel = flagConfig.LogLevel
		case "protocol-log":
			cfg.ProtocolLog = flagConfig.ProtocolLog
		case "state-file":
			cfg.StateFile = flagConfig.StateFile
		case "journal":
			cfg.Journal = flagConfig.Journal
		case "mqtt-broker":
			cfg.MQTT.Broker = flagConfig.MQTT.Broker
		}
	})
	return cfg, cfg.Validate()
}

func run(cfg Config, line string) int {
	level, _ := parseLevel(cfg.LogLevel)
	stdout, stderr := newSwitchWriter(os.Stdout), newSwitchWriter(os.Stderr)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var plog log.Logger
	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			logger.Error("failed to open protocol log", slog.Any("error", err))
			return 1
		}
		defer fl.Close()
		plog = fl
	}

	conn, err := genl.Dial(logger)
	if err != nil {
		logger.Error("failed to open nl80211", slog.Any("error", err))
		return 1
	}
	defer conn.Close()

	engine := interaction.NewEngine(conn, interaction.Config{
		MaxReplies:     cfg.MaxReplies,
		ReplyCapacity:  cfg.ReplyCapacity,
		Timeout:        cfg.Timeout,
		Interface:      cfg.Interface,
		ProtocolLogger: plog,
		Logger:         logger,
	})
	defer engine.Close()

	resolver := service.NetResolver{}
	ifindex, err := resolver.IfIndex(cfg.Interface)
	if err != nil {
		logger.Error("failed to resolve interface", slog.Any("error", err))
		return 1
	}

	gateCfg := capability.Config{
		Interface:      cfg.Interface,
		ProtocolLogger: plog,
		Logger:         logger,
	}
	if cfg.StateFile != "" {
		gateCfg.Store = capability.NewStore(cfg.StateFile)
	}
	gate := capability.NewGate(capability.FeatureProber(engine, ifindex, twt.FeatureTWTAsync), gateCfg)
	if err := gate.Restore(); err != nil {
		logger.Warn("ignoring saved capability verdict", slog.Any("error", err))
	}

	sinks, closeSinks, err := buildSinks(cfg, stdout, logger)
	if err != nil {
		logger.Error("failed to set up event sinks", slog.Any("error", err))
		return 1
	}
	defer closeSinks()

	svc := service.New(engine, gate, service.Config{
		Interface:      cfg.Interface,
		ReplyCapacity:  cfg.ReplyCapacity,
		Resolver:       resolver,
		Sink:           sinks,
		ProtocolLogger: plog,
		Logger:         logger,
	})

	if listen || interactiveMode {
		go func() {
			err := genl.Events(ctx, ifindex, func(ctx context.Context, ev service.VendorEvent) {
				if err := svc.OnVendorEvent(ctx, ev); err != nil && !isIgnorable(err) {
					logger.Warn("event not delivered", slog.Any("error", err))
				}
			}, logger)
			if err != nil && ctx.Err() == nil {
				logger.Error("event listener stopped", slog.Any("error", err))
			}
		}()
	}

	code := 0
	if line != "" {
		res, err := svc.Execute(ctx, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			code = 1
		} else if res.Text != "" {
			fmt.Println(res.Text)
		}
	}

	switch {
	case interactiveMode:
		shell, err := interactive.New(svc, gate)
		if err != nil {
			logger.Error("failed to start shell", slog.Any("error", err))
			return 1
		}
		stdout.Set(shell.Stdout())
		stderr.Set(shell.Stderr())
		shell.Run(ctx, cancel)
	case listen:
		<-ctx.Done()
	}
	return code
}

// buildSinks assembles the configured event sinks. Events are always
// printed to out.
func buildSinks(cfg Config, out io.Writer, logger *slog.Logger) (notify.Sink, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	sinks := []notify.Sink{
		notify.SinkFunc(func(_ context.Context, n notify.Notification) error {
			_, err := fmt.Fprintln(out, n.Text)
			return err
		}),
		notify.NewSlogSink(logger.With(slog.String("component", "events"))),
	}

	if cfg.Journal != "" {
		f, err := os.OpenFile(cfg.Journal, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, closeAll, fmt.Errorf("open journal: %w", err)
		}
		closers = append(closers, func() { _ = f.Close() })
		sinks = append(sinks, notify.NewJournalSink(f))
	}

	if cfg.MQTT.Broker != "" {
		m, err := notify.DialMQTT(cfg.MQTT, logger)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = m.Close() })
		sinks = append(sinks, m)
	}

	return notify.NewMulti(sinks...), closeAll, nil
}

func isIgnorable(err error) bool {
	return errors.Is(err, service.ErrNotTWTEvent)
}
