package twt

import (
	"errors"
	"fmt"

	"github.com/wlanshim/twt-go/pkg/wire"
)

// Decode errors.
var (
	// ErrMissingField matches any *MissingFieldError.
	ErrMissingField = errors.New("missing required field")

	// ErrUnknownOperation is returned for operation tags that have no
	// reply or event layout.
	ErrUnknownOperation = errors.New("unknown operation")
)

// MissingFieldError reports a required attribute absent from a reply or
// event.
type MissingFieldError struct {
	Op   Operation
	Name string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %s", e.Op, e.Name)
}

// Is reports whether target is ErrMissingField.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Event is a decoded asynchronous notification.
type Event struct {
	Op       Operation
	DialogID uint8
	Status   Status
	Text     string
}

// DecodeReply renders the inline reply of a read-style operation into w.
// data is the complete nl80211 attribute set of the reply. For Get and
// GetStats one line is written per session and the number of sessions
// rendered is returned.
func DecodeReply(op Operation, data []byte, w *ReplyWriter) (int, error) {
	if !op.ReadStyle() {
		return 0, fmt.Errorf("%w: %s has no reply data", ErrUnknownOperation, op)
	}

	top, err := wire.Decode(data, NL80211AttrVendorData)
	if err != nil {
		return 0, err
	}
	if !top.Has(NL80211AttrVendorData) {
		return 0, &MissingFieldError{Op: op, Name: "vendor_data"}
	}
	cfg, err := top.Nested(NL80211AttrVendorData, configMaxID)
	if err != nil {
		return 0, err
	}
	if !cfg.Has(configParams) {
		return 0, &MissingFieldError{Op: op, Name: "params"}
	}

	switch op {
	case OpGet:
		return renderSessions(op, cfg, setupMaxID, getFields, w)
	case OpGetStats:
		return renderSessions(op, cfg, statsMaxID, statsFields, w)
	default:
		params, err := cfg.Nested(configParams, capabilitiesMaxID)
		if err != nil {
			return 0, err
		}
		line, err := renderCapabilities(params)
		if err != nil {
			return 0, err
		}
		if err := w.AppendLine(line); err != nil {
			return 0, err
		}
		return 1, nil
	}
}

func renderSessions(op Operation, cfg *wire.Table, maxID uint16, fields []field, w *ReplyWriter) (int, error) {
	sessions, err := cfg.List(configParams, maxID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range sessions {
		line, err := renderFields(op, s.Table, fields)
		if err != nil {
			return n, fmt.Errorf("session %d: %w", n, err)
		}
		if err := w.AppendLine(line); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// DecodeEvent renders an asynchronous CONFIG_TWT notification into w.
// data is the vendor data payload of the event.
func DecodeEvent(data []byte, w *ReplyWriter) (Event, error) {
	cfg, err := wire.Decode(data, configMaxID)
	if err != nil {
		return Event{}, err
	}
	if !cfg.Has(configOperation) {
		return Event{}, &MissingFieldError{Name: "operation"}
	}
	tag, err := cfg.Uint8(configOperation)
	if err != nil {
		return Event{}, err
	}
	op := Operation(tag)

	layout, ok := eventLayouts[op]
	if !ok {
		return Event{}, fmt.Errorf("%w: %d", ErrUnknownOperation, tag)
	}

	ev := Event{Op: op, Text: EventPrefix + " " + op.EventTag()}
	if len(layout.fields) > 0 {
		if !cfg.Has(configParams) {
			return Event{}, &MissingFieldError{Op: op, Name: "params"}
		}
		params, err := cfg.Nested(configParams, setupMaxID)
		if err != nil {
			return Event{}, err
		}
		line, err := renderFields(op, params, layout.fields)
		if err != nil {
			return Event{}, err
		}
		ev.Text += " " + line

		// Both are required fields and were validated by the render.
		ev.DialogID, _ = params.Uint8(layout.dialog)
		if ev.DialogID == 255 && op != OpSetup {
			ev.DialogID = 0
		}
		st, _ := params.Uint8(setupStatus)
		ev.Status = Status(st)
	}

	if err := w.AppendLine(ev.Text); err != nil {
		return Event{}, err
	}
	return ev, nil
}
