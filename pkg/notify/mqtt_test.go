package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubToken is an mqtt.Token that completes when done is closed.
type stubToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *stubToken {
	t := &stubToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *stubToken) Wait() bool {
	<-t.done
	return true
}

func (t *stubToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *stubToken) Done() <-chan struct{} { return t.done }
func (t *stubToken) Error() error          { return t.err }

type stubPublisher struct {
	mock.Mock
}

func (p *stubPublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqttlib.Token {
	args := p.Called(topic, qos, retained, payload)
	return args.Get(0).(mqttlib.Token)
}

func TestMQTTSink_Deliver(t *testing.T) {
	pub := &stubPublisher{}
	pub.On("Publish", "home/twt/wlan0/terminate", byte(1), true, mock.Anything).
		Return(completedToken(nil)).Once()

	s := NewMQTTSink(pub, MQTTConfig{TopicPrefix: "home/twt", QoS: 1, Retained: true})
	require.NoError(t, s.Deliver(context.Background(), sampleNotification()))
	pub.AssertExpectations(t)

	payload := pub.Calls[0].Arguments.Get(3).([]byte)
	var got map[string]any
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "TERMINATE", got["tag"])
	assert.Equal(t, "wlan0", got["iface"])
	assert.Equal(t, float64(3), got["dialog_id"])
}

func TestMQTTSink_Topic(t *testing.T) {
	s := NewMQTTSink(&stubPublisher{}, MQTTConfig{})

	tests := []struct {
		name string
		n    Notification
		want string
	}{
		{"default prefix", Notification{Interface: "wlan0", Tag: "SETUP"}, "twt/wlan0/setup"},
		{"notify", Notification{Interface: "wlan1", Tag: "NOTIFY"}, "twt/wlan1/notify"},
		{"missing fields", Notification{}, "twt/unknown/unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Topic(tt.n))
		})
	}
}

func TestMQTTSink_PublishError(t *testing.T) {
	boom := errors.New("not connected")
	pub := &stubPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(completedToken(boom))

	err := NewMQTTSink(pub, MQTTConfig{}).Deliver(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, boom)
}

func TestMQTTSink_Timeout(t *testing.T) {
	pub := &stubPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&stubToken{done: make(chan struct{})})

	s := NewMQTTSink(pub, MQTTConfig{Timeout: 10 * time.Millisecond})
	assert.ErrorIs(t, s.Deliver(context.Background(), sampleNotification()), ErrPublishTimeout)
}

func TestMQTTSink_ContextCanceled(t *testing.T) {
	pub := &stubPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&stubToken{done: make(chan struct{})})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMQTTSink(pub, MQTTConfig{Timeout: time.Minute}).Deliver(ctx, sampleNotification())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDialMQTT_NoBroker(t *testing.T) {
	_, err := DialMQTT(MQTTConfig{}, nil)
	assert.Error(t, err)
}
