package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wlanshim/twt-go/pkg/interaction"
	"github.com/wlanshim/twt-go/pkg/notify"
	"github.com/wlanshim/twt-go/pkg/service"
	"github.com/wlanshim/twt-go/pkg/twt"
)

// Config holds the twtctl configuration. A file provides the base values
// and explicitly set flags override them.
type Config struct {
	Interface     string        `yaml:"iface" toml:"iface"`
	ReplyCapacity int           `yaml:"reply_capacity" toml:"reply_capacity"`
	MaxReplies    int           `yaml:"max_replies" toml:"max_replies"`
	Timeout       time.Duration `yaml:"timeout" toml:"timeout"`
	LogLevel      string        `yaml:"log_level" toml:"log_level"`

	// ProtocolLog is the CBOR protocol capture file. Empty disables it.
	ProtocolLog string `yaml:"protocol_log" toml:"protocol_log"`

	// StateFile persists the capability verdict. Empty disables it.
	StateFile string `yaml:"state_file" toml:"state_file"`

	// Journal is the JSON line event journal. Empty disables it.
	Journal string `yaml:"journal" toml:"journal"`

	MQTT notify.MQTTConfig `yaml:"mqtt" toml:"mqtt"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Interface:     service.DefaultInterface,
		ReplyCapacity: twt.DefaultReplyCapacity,
		MaxReplies:    interaction.DefaultConfig().MaxReplies,
		Timeout:       interaction.DefaultConfig().Timeout,
		LogLevel:      "info",
		MQTT:          notify.DefaultMQTTConfig(),
	}
}

// LoadConfig reads path over the defaults. The format follows the file
// extension: .yaml/.yml or .toml.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("load config %s: unsupported format %q (use .yaml or .toml)", path, ext)
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.Interface == "" {
		errs = append(errs, errors.New("iface must not be empty"))
	}
	if c.ReplyCapacity <= 0 {
		errs = append(errs, fmt.Errorf("reply_capacity must be positive, got %d", c.ReplyCapacity))
	}
	if c.MaxReplies <= 0 {
		errs = append(errs, fmt.Errorf("max_replies must be positive, got %d", c.MaxReplies))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (use: debug, info, warn, error)", s)
	}
}
