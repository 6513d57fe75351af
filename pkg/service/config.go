package service

import (
	"log/slog"

	"github.com/wlanshim/twt-go/pkg/log"
	"github.com/wlanshim/twt-go/pkg/notify"
	"github.com/wlanshim/twt-go/pkg/twt"
)

// DefaultInterface is the wireless interface used when none is configured.
const DefaultInterface = "wlan0"

// Config configures a Service.
type Config struct {
	// Interface is the wireless interface commands are addressed to.
	Interface string

	// ReplyCapacity bounds the rendered text of one event.
	ReplyCapacity int

	// Resolver maps Interface to its index. Nil uses NetResolver.
	Resolver IfIndexResolver

	// Sink receives decoded events. Nil drops them after logging.
	Sink notify.Sink

	// ProtocolLogger receives service-layer protocol events.
	ProtocolLogger log.Logger

	// Logger is the operational logger. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		Interface:     DefaultInterface,
		ReplyCapacity: twt.DefaultReplyCapacity,
	}
}
