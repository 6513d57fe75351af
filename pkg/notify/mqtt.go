package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
)

// ErrPublishTimeout is returned when the broker does not confirm a
// publish in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// MQTTConfig configures an MQTT sink.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883".
	Broker   string `yaml:"broker" toml:"broker"`
	ClientID string `yaml:"client_id" toml:"client_id"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`

	// TopicPrefix is the first topic level. Events are published to
	// <prefix>/<iface>/<tag>.
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`

	QoS      byte `yaml:"qos" toml:"qos"`
	Retained bool `yaml:"retained" toml:"retained"`

	// Timeout bounds connecting and each publish.
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// DefaultMQTTConfig returns the default MQTT configuration.
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		ClientID:    "twtctl",
		TopicPrefix: "twt",
		Timeout:     5 * time.Second,
	}
}

// Publisher is the part of mqtt.Client used by MQTTSink.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqttlib.Token
}

// MQTTSink publishes notifications as JSON to an MQTT broker.
type MQTTSink struct {
	client Publisher
	config MQTTConfig
	close  func()
}

// NewMQTTSink creates a sink publishing through client.
func NewMQTTSink(client Publisher, config MQTTConfig) *MQTTSink {
	if config.TopicPrefix == "" {
		config.TopicPrefix = DefaultMQTTConfig().TopicPrefix
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultMQTTConfig().Timeout
	}
	return &MQTTSink{client: client, config: config, close: func() {}}
}

// DialMQTT connects to the configured broker and returns a sink using
// the connection.
func DialMQTT(config MQTTConfig, logger *slog.Logger) (*MQTTSink, error) {
	if config.Broker == "" {
		return nil, errors.New("mqtt: broker not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultMQTTConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.ClientID == "" {
		config.ClientID = def.ClientID
	}

	opts := mqttlib.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectTimeout(config.Timeout)
	opts.SetOnConnectHandler(func(mqttlib.Client) {
		logger.Info("mqtt connected", slog.String("broker", config.Broker))
	})
	opts.SetConnectionLostHandler(func(_ mqttlib.Client, err error) {
		logger.Warn("mqtt connection lost", slog.String("broker", config.Broker), slog.Any("error", err))
	})

	client := mqttlib.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(config.Timeout) {
		return nil, fmt.Errorf("mqtt connect %s: %w", config.Broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", config.Broker, err)
	}

	s := NewMQTTSink(client, config)
	s.close = func() { client.Disconnect(250) }
	return s, nil
}

// Topic returns the topic for n.
func (s *MQTTSink) Topic(n Notification) string {
	tag := strings.ToLower(n.Tag)
	if tag == "" {
		tag = "unknown"
	}
	iface := n.Interface
	if iface == "" {
		iface = "unknown"
	}
	return s.config.TopicPrefix + "/" + iface + "/" + tag
}

// Deliver publishes n and waits for the broker to confirm.
func (s *MQTTSink) Deliver(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("mqtt: encode notification: %w", err)
	}

	token := s.client.Publish(s.Topic(n), s.config.QoS, s.config.Retained, payload)

	timer := time.NewTimer(s.config.Timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-timer.C:
		return ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

// Close disconnects a sink created by DialMQTT.
func (s *MQTTSink) Close() error {
	s.close()
	return nil
}

var _ Sink = (*MQTTSink)(nil)
