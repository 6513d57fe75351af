package log

import (
	"time"

	"github.com/wlanshim/twt-go/pkg/twt"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// TransactionID correlates a request with its replies (UUID).
	// Empty for asynchronous notifications.
	TransactionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow relative to the driver.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Interface is the wireless interface name.
	Interface string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Message      *MessageEvent      `cbor:"10,keyasint,omitempty"` // Outgoing request
	Reply        *ReplyEvent        `cbor:"11,keyasint,omitempty"` // Transport reply
	Notification *NotificationEvent `cbor:"12,keyasint,omitempty"` // Async vendor event
	Capability   *CapabilityEvent   `cbor:"13,keyasint,omitempty"` // Gate state change
	Error        *ErrorEventData    `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates a message from the driver.
	DirectionIn Direction = 0
	// DirectionOut indicates a message to the driver.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the netlink socket layer.
	LayerTransport Layer = 0
	// LayerWire is the attribute codec layer.
	LayerWire Layer = 1
	// LayerService is the command dispatch layer.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates an outgoing vendor request.
	CategoryMessage Category = 0
	// CategoryReply indicates a reply to a request.
	CategoryReply Category = 1
	// CategoryNotification indicates an asynchronous vendor event.
	CategoryNotification Category = 2
	// CategoryCapability indicates a capability gate change.
	CategoryCapability Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryReply:
		return "REPLY"
	case CategoryNotification:
		return "NOTIFICATION"
	case CategoryCapability:
		return "CAPABILITY"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MaxDataSize caps the raw bytes kept per message event.
const MaxDataSize = 256

// MessageEvent captures an outgoing vendor request.
type MessageEvent struct {
	// Operation is the TWT operation tag.
	Operation twt.Operation `cbor:"1,keyasint"`

	// Size is the encoded attribute size in bytes.
	Size int `cbor:"2,keyasint"`

	// Data is the encoded attributes (may be truncated).
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}

// NewMessageEvent captures data, truncated to MaxDataSize.
func NewMessageEvent(op twt.Operation, data []byte) *MessageEvent {
	m := &MessageEvent{Operation: op, Size: len(data)}
	if len(data) > MaxDataSize {
		m.Data = append([]byte(nil), data[:MaxDataSize]...)
		m.Truncated = true
	} else {
		m.Data = append([]byte(nil), data...)
	}
	return m
}

// ReplyEvent captures one reply received for a request.
type ReplyEvent struct {
	// Kind is the reply kind (ACK, ERROR, FINISH, DATA).
	Kind string `cbor:"1,keyasint"`

	// Code is the errno carried by ERROR replies.
	Code int `cbor:"2,keyasint,omitempty"`

	// Size is the payload size of DATA replies.
	Size int `cbor:"3,keyasint,omitempty"`
}

// NotificationEvent captures a decoded asynchronous TWT event.
type NotificationEvent struct {
	Operation twt.Operation `cbor:"1,keyasint"`
	DialogID  uint8         `cbor:"2,keyasint"`
	Status    twt.Status    `cbor:"3,keyasint"`

	// Text is the rendered event line.
	Text string `cbor:"4,keyasint,omitempty"`
}

// CapabilityEvent captures a capability gate transition.
type CapabilityEvent struct {
	OldState string `cbor:"1,keyasint,omitempty"`
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the errno (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
