package twt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parse errors. A *ParseError wraps exactly one of these.
var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMissingDialogID  = errors.New("dialog_id is required")
	ErrMissingParameter = errors.New("required parameter missing")
	ErrMissingValue     = errors.New("missing value")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrInvalidFlagValue = errors.New("value must be 0 or 1")
	ErrInvalidRange     = errors.New("value out of range")
	ErrUnexpectedToken  = errors.New("unexpected token")
)

// ParseError describes why a command line was rejected. Field names the
// first offending keyword.
type ParseError struct {
	Op    Operation
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	cmd := e.Op.CommandWord()
	if cmd == "" || errors.Is(e.Err, ErrUnknownCommand) {
		cmd = "twt"
	}
	switch {
	case e.Field == "":
		return fmt.Sprintf("%s: %v", cmd, e.Err)
	case e.Value == "":
		return fmt.Sprintf("%s: %s: %v", cmd, e.Field, e.Err)
	default:
		return fmt.Sprintf("%s: %s %q: %v", cmd, e.Field, e.Value, e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// keyword describes one "name value" pair accepted by a command.
type keyword struct {
	name     string
	bits     int // 8 or 32; ignored for binary keywords
	binary   bool
	required bool
	min, max uint64 // inclusive; max 0 means the width limit
}

var setupKeywords = []keyword{
	{name: "dialog_id", bits: 8, required: true},
	{name: "req_type", bits: 8},
	{name: "trig_type", binary: true},
	{name: "flow_type", binary: true},
	{name: "wake_intr_exp", bits: 8, max: 31},
	{name: "protection", binary: true},
	{name: "wake_time", bits: 32},
	{name: "wake_dur", bits: 32, min: 1, max: 255},
	{name: "wake_intr_mantissa", bits: 32, max: 0xFFFF},
	{name: "broadcast", binary: true},
	{name: "min_wake_intvl", bits: 32},
	{name: "max_wake_intvl", bits: 32},
	{name: "min_wake_duration", bits: 32},
	{name: "max_wake_duration", bits: 32},
}

var resumeKeywords = []keyword{
	{name: "dialog_id", bits: 8, required: true},
	{name: "next_twt", bits: 8},
	{name: "next2_twt", bits: 32},
	{name: "next_twt_size", bits: 32, required: true},
}

var nudgeKeywords = []keyword{
	{name: "dialog_id", bits: 8, required: true},
	{name: "pause_duration", bits: 32},
	{name: "next_twt_size", bits: 32, required: true},
}

var dialogKeywords = []keyword{
	{name: "dialog_id", bits: 8, required: true},
}

// ParseCommand parses a full command line such as
// "twt_session_pause dialog_id 3".
func ParseCommand(line string) (Params, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, &ParseError{Field: "command", Err: ErrUnknownCommand}
	}
	op, ok := LookupCommand(tokens[0])
	if !ok {
		return nil, &ParseError{Field: "command", Value: tokens[0], Err: ErrUnknownCommand}
	}
	return parseTokens(op, tokens[1:])
}

// ParseParams parses the arguments of op, without the command verb.
func ParseParams(op Operation, args string) (Params, error) {
	return parseTokens(op, strings.Fields(args))
}

func parseTokens(op Operation, tokens []string) (Params, error) {
	switch {
	case op == OpSetup:
		v, err := scan(op, tokens, setupKeywords)
		if err != nil {
			return nil, err
		}
		return SetupParams{
			DialogID:          uint8(v["dialog_id"]),
			ReqType:           uint8(v["req_type"]),
			Trigger:           v["trig_type"] == 1,
			FlowType:          uint8(v["flow_type"]),
			WakeIntvlExp:      uint8(v["wake_intr_exp"]),
			Protection:        v["protection"] == 1,
			WakeTime:          uint32(v["wake_time"]),
			WakeDuration:      uint32(v["wake_dur"]),
			WakeIntvlMantissa: uint32(v["wake_intr_mantissa"]),
			Broadcast:         v["broadcast"] == 1,
			MinWakeIntvl:      uint32(v["min_wake_intvl"]),
			MaxWakeIntvl:      uint32(v["max_wake_intvl"]),
			MinWakeDuration:   uint32(v["min_wake_duration"]),
			MaxWakeDuration:   uint32(v["max_wake_duration"]),
		}, nil

	case op == OpResume:
		v, err := scan(op, tokens, resumeKeywords)
		if err != nil {
			return nil, err
		}
		return ResumeParams{
			DialogID:    uint8(v["dialog_id"]),
			NextTWT:     uint8(v["next_twt"]),
			Next2TWT:    uint32(v["next2_twt"]),
			NextTWTSize: uint32(v["next_twt_size"]),
		}, nil

	case op == OpNudge:
		v, err := scan(op, tokens, nudgeKeywords)
		if err != nil {
			return nil, err
		}
		return NudgeParams{
			DialogID:      uint8(v["dialog_id"]),
			PauseDuration: uint32(v["pause_duration"]),
			NextTWTSize:   uint32(v["next_twt_size"]),
		}, nil

	case op == OpGetCapabilities:
		if _, err := scan(op, tokens, nil); err != nil {
			return nil, err
		}
		return CapabilityParams{}, nil

	case isDialogOp(op):
		v, err := scan(op, tokens, dialogKeywords)
		if err != nil {
			return nil, err
		}
		return DialogParams{Op: op, DialogID: uint8(v["dialog_id"])}, nil

	default:
		return nil, &ParseError{Op: op, Field: "command", Value: op.String(), Err: ErrUnknownCommand}
	}
}

// scan matches tokens against kws in declared order. Keywords may be
// skipped unless required; a keyword may not appear twice or out of order.
func scan(op Operation, tokens []string, kws []keyword) (map[string]uint64, error) {
	vals := make(map[string]uint64, len(kws))
	next := 0

	for i := 0; i < len(tokens); i += 2 {
		tok := tokens[i]
		j := indexKeyword(kws, next, tok)
		if j < 0 {
			if next < len(kws) && kws[next].required {
				return nil, missing(op, kws[next])
			}
			return nil, &ParseError{Op: op, Field: tok, Err: ErrUnexpectedToken}
		}
		for k := next; k < j; k++ {
			if kws[k].required {
				return nil, missing(op, kws[k])
			}
		}

		kw := kws[j]
		if i+1 >= len(tokens) {
			return nil, &ParseError{Op: op, Field: kw.name, Err: ErrMissingValue}
		}
		v, err := parseValue(op, kw, tokens[i+1])
		if err != nil {
			return nil, err
		}
		vals[kw.name] = v
		next = j + 1
	}

	for k := next; k < len(kws); k++ {
		if kws[k].required {
			return nil, missing(op, kws[k])
		}
	}
	return vals, nil
}

func indexKeyword(kws []keyword, from int, tok string) int {
	for j := from; j < len(kws); j++ {
		if strings.EqualFold(kws[j].name, tok) {
			return j
		}
	}
	return -1
}

func missing(op Operation, kw keyword) error {
	if kw.name == "dialog_id" {
		return &ParseError{Op: op, Field: kw.name, Err: ErrMissingDialogID}
	}
	return &ParseError{Op: op, Field: kw.name, Err: ErrMissingParameter}
}

func parseValue(op Operation, kw keyword, s string) (uint64, error) {
	if kw.binary {
		switch s {
		case "0":
			return 0, nil
		case "1":
			return 1, nil
		}
		return 0, &ParseError{Op: op, Field: kw.name, Value: s, Err: ErrInvalidFlagValue}
	}

	v, err := strconv.ParseUint(s, 10, kw.bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &ParseError{Op: op, Field: kw.name, Value: s, Err: ErrInvalidRange}
		}
		return 0, &ParseError{Op: op, Field: kw.name, Value: s, Err: ErrInvalidNumber}
	}
	if v < kw.min || (kw.max != 0 && v > kw.max) {
		return 0, &ParseError{Op: op, Field: kw.name, Value: s, Err: ErrInvalidRange}
	}
	return v, nil
}

// Keywords returns the argument keywords accepted by op, in command-line
// order.
func Keywords(op Operation) []string {
	var kws []keyword
	switch op {
	case OpSetup:
		kws = setupKeywords
	case OpResume:
		kws = resumeKeywords
	case OpNudge:
		kws = nudgeKeywords
	default:
		if isDialogOp(op) {
			kws = dialogKeywords
		}
	}
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = kw.name
	}
	return out
}
