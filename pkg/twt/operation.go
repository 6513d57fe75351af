package twt

import (
	"fmt"
	"strings"
)

// Operation identifies a TWT operation. The value is the operation tag
// carried on the wire.
type Operation uint8

const (
	OpSetup           Operation = 0
	OpGet             Operation = 1
	OpTerminate       Operation = 2
	OpSuspend         Operation = 3
	OpResume          Operation = 4
	OpNudge           Operation = 5
	OpGetStats        Operation = 6
	OpClearStats      Operation = 7
	OpGetCapabilities Operation = 8

	// OpSetupReadyNotify only appears in events, announcing that the
	// driver is ready to accept a new setup.
	OpSetupReadyNotify Operation = 9

	// OpFeatureProbe labels the GET_FEATURES request of the capability
	// probe. It is never sent as a CONFIG_TWT operation.
	OpFeatureProbe Operation = 0xff
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpSetup:
		return "SETUP"
	case OpGet:
		return "GET"
	case OpTerminate:
		return "TERMINATE"
	case OpSuspend:
		return "SUSPEND"
	case OpResume:
		return "RESUME"
	case OpNudge:
		return "NUDGE"
	case OpGetStats:
		return "GET_STATS"
	case OpClearStats:
		return "CLEAR_STATS"
	case OpGetCapabilities:
		return "GET_CAPABILITIES"
	case OpSetupReadyNotify:
		return "SETUP_READY_NOTIFY"
	case OpFeatureProbe:
		return "FEATURE_PROBE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(o))
	}
}

// Async reports whether the operation completes through a vendor event
// and therefore requires asynchronous TWT support.
func (o Operation) Async() bool {
	switch o {
	case OpSetup, OpTerminate, OpSuspend, OpResume, OpNudge:
		return true
	}
	return false
}

// ReadStyle reports whether the operation returns data inline.
func (o Operation) ReadStyle() bool {
	switch o {
	case OpGet, OpGetStats, OpGetCapabilities:
		return true
	}
	return false
}

// EventTag returns the tag used in rendered event lines, or "" for
// operations that never produce events.
func (o Operation) EventTag() string {
	switch o {
	case OpSetup:
		return "SETUP"
	case OpTerminate:
		return "TERMINATE"
	case OpSuspend:
		return "PAUSE"
	case OpResume:
		return "RESUME"
	case OpNudge:
		return "NUDGE"
	case OpSetupReadyNotify:
		return "NOTIFY"
	default:
		return ""
	}
}

// commandWords maps command-line verbs to operations.
var commandWords = []struct {
	word string
	op   Operation
}{
	{"twt_session_setup", OpSetup},
	{"twt_session_terminate", OpTerminate},
	{"twt_session_pause", OpSuspend},
	{"twt_session_resume", OpResume},
	{"twt_session_nudge", OpNudge},
	{"twt_session_get_params", OpGet},
	{"twt_session_get_stats", OpGetStats},
	{"twt_session_clear_stats", OpClearStats},
	{"twt_get_capability", OpGetCapabilities},
}

// LookupCommand returns the operation for a command verb. Matching is
// case-insensitive.
func LookupCommand(word string) (Operation, bool) {
	for _, c := range commandWords {
		if strings.EqualFold(c.word, word) {
			return c.op, true
		}
	}
	return 0, false
}

// CommandWord returns the command verb for op.
func (o Operation) CommandWord() string {
	for _, c := range commandWords {
		if c.op == o {
			return c.word
		}
	}
	return ""
}

// CommandWords returns all command verbs in table order.
func CommandWords() []string {
	out := make([]string, len(commandWords))
	for i, c := range commandWords {
		out[i] = c.word
	}
	return out
}
