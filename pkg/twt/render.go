package twt

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/wlanshim/twt-go/pkg/wire"
)

// EventPrefix starts every rendered event line.
const EventPrefix = "CTRL-EVENT-TWT"

type fieldKind uint8

const (
	fieldDec fieldKind = iota
	fieldHex
	fieldFlag
	fieldStatus
	fieldMAC
	fieldMantissa // raw mantissa, or time units scaled to microseconds
	fieldDialog   // 255 means "all sessions" and renders as 0
)

// field describes how one attribute renders as a "name value" pair.
type field struct {
	name     string
	id       uint16
	kind     fieldKind
	width    uint8
	required bool
	omit     bool // optional and left out when absent

	prefix, suffix string
}

var getFields = []field{
	{name: "mac_addr", id: setupMACAddr, kind: fieldMAC, required: true, prefix: "<"},
	{name: "dialog_id", id: setupFlowID, kind: fieldDec, width: 1, required: true},
	{name: "bcast", id: setupBcast, kind: fieldFlag},
	{name: "trig_type", id: setupTrigger, kind: fieldFlag},
	{name: "flow_type", id: setupFlowType, kind: fieldDec, width: 1},
	{name: "protection", id: setupProtection, kind: fieldFlag},
	{name: "info_enabled", id: setupInfoEnabled, kind: fieldFlag},
	{name: "wake_dur", id: setupWakeDuration, kind: fieldDec, width: 4, required: true},
	{name: "wake_intvl_mantis", kind: fieldMantissa, required: true},
	{name: "wake_intvl_exp", id: setupWakeIntvlExp, kind: fieldDec, width: 1, required: true},
	{name: "wake_time_tsf", id: setupWakeTimeTSF, kind: fieldHex, width: 8, required: true, suffix: ">"},
	{name: "state", id: setupState, kind: fieldDec, width: 4, required: true},
}

var statsFields = []field{
	{name: "flow_id", id: statsFlowID, kind: fieldDec, width: 1, omit: true},
	{name: "num_sp_iteration", id: statsNumSPIterations, kind: fieldDec, width: 4, omit: true},
	{name: "min_wake_dur", id: statsMinWakeDuration, kind: fieldDec, width: 4, omit: true},
	{name: "max_wake_dur", id: statsMaxWakeDuration, kind: fieldDec, width: 4, omit: true},
	{name: "session_wake_dur", id: statsSessionWakeDur, kind: fieldDec, width: 4, required: true},
	{name: "avg_wake_dur", id: statsAvgWakeDuration, kind: fieldDec, width: 4, required: true},
	{name: "tx_mpdu", id: statsAverageTxMPDU, kind: fieldDec, width: 4, required: true},
	{name: "rx_mpdu", id: statsAverageRxMPDU, kind: fieldDec, width: 4, required: true},
	{name: "tx_pkt_size", id: statsAverageTxPktSize, kind: fieldDec, width: 4, required: true},
	{name: "rx_pkt_size", id: statsAverageRxPktSize, kind: fieldDec, width: 4, required: true},
}

var setupEventFields = []field{
	{name: "dialog_id", id: setupFlowID, kind: fieldDec, width: 1, required: true},
	{name: "status", id: setupStatus, kind: fieldStatus, width: 1, required: true},
	{name: "resp_reason", id: setupRespType, kind: fieldDec, width: 1, required: true},
	{name: "wake_intvl_exp", id: setupWakeIntvlExp, kind: fieldDec, width: 1, required: true},
	{name: "bcast", id: setupBcast, kind: fieldFlag},
	{name: "trig_type", id: setupTrigger, kind: fieldFlag},
	{name: "flow_type", id: setupFlowType, kind: fieldDec, width: 1, required: true},
	{name: "protection", id: setupProtection, kind: fieldFlag},
	{name: "wake_time", id: setupWakeTime, kind: fieldHex, width: 4},
	{name: "wake_dur", id: setupWakeDuration, kind: fieldDec, width: 4, required: true},
	{name: "wake_intvl", kind: fieldMantissa, required: true},
	{name: "wake_tsf", id: setupWakeTimeTSF, kind: fieldHex, width: 8},
	{name: "info_enabled", id: setupInfoEnabled, kind: fieldFlag},
}

func dialogStatusFields(dialogAttr uint16) []field {
	return []field{
		{name: "dialog_id", id: dialogAttr, kind: fieldDialog, width: 1, required: true},
		{name: "status", id: setupStatus, kind: fieldStatus, width: 1, required: true},
	}
}

// eventLayouts lists the rendered fields per event operation and the
// attribute carrying its dialog id.
var eventLayouts = map[Operation]struct {
	fields []field
	dialog uint16
}{
	OpSetup:            {setupEventFields, setupFlowID},
	OpTerminate:        {dialogStatusFields(setupFlowID), setupFlowID},
	OpSuspend:          {dialogStatusFields(setupFlowID), setupFlowID},
	OpResume:           {dialogStatusFields(resumeFlowID), resumeFlowID},
	OpNudge:            {dialogStatusFields(nudgeFlowID), nudgeFlowID},
	OpSetupReadyNotify: {},
}

// renderFields renders fields of t in order as one line.
func renderFields(op Operation, t *wire.Table, fields []field) (string, error) {
	var sb strings.Builder
	for _, f := range fields {
		val, ok, err := f.lookup(t)
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.name, err)
		}
		if !ok {
			if f.required {
				return "", &MissingFieldError{Op: op, Name: f.name}
			}
			if f.omit {
				continue
			}
			val = f.format(0)
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.prefix)
		sb.WriteString(f.name)
		sb.WriteByte(' ')
		sb.WriteString(val)
		sb.WriteString(f.suffix)
	}
	return sb.String(), nil
}

func (f field) lookup(t *wire.Table) (string, bool, error) {
	switch f.kind {
	case fieldFlag:
		if t.Flag(f.id) {
			return f.format(1), true, nil
		}
		return f.format(0), true, nil

	case fieldMAC:
		if !t.Has(f.id) {
			return "", false, nil
		}
		b, err := t.Bytes(f.id)
		if err != nil {
			return "", false, err
		}
		if len(b) != 6 {
			return "", false, fmt.Errorf("%w: have %d bytes, want 6", wire.ErrWidthMismatch, len(b))
		}
		return net.HardwareAddr(b).String(), true, nil

	case fieldMantissa:
		if t.Has(setupWakeIntvl2) {
			v, err := t.Uint32(setupWakeIntvl2)
			if err != nil {
				return "", false, err
			}
			return f.format(uint64(v)), true, nil
		}
		if t.Has(setupWakeIntvlMantissa) {
			v, err := t.Uint32(setupWakeIntvlMantissa)
			if err != nil {
				return "", false, err
			}
			return f.format(uint64(v) * wakeIntervalTUFactor), true, nil
		}
		return "", false, nil

	default:
		if !t.Has(f.id) {
			return "", false, nil
		}
		v, err := t.Uint(f.id, f.width)
		if err != nil {
			return "", false, err
		}
		return f.format(v), true, nil
	}
}

func (f field) format(v uint64) string {
	switch f.kind {
	case fieldHex:
		return "0x" + strconv.FormatUint(v, 16)
	case fieldStatus:
		return fmt.Sprintf("%d (%s)", v, Status(v))
	case fieldDialog:
		if v == 255 {
			v = 0
		}
		return strconv.FormatUint(v, 10)
	default:
		return strconv.FormatUint(v, 10)
	}
}

// renderCapabilities renders self and peer capabilities as one 32-bit
// hex value, self in the high half.
func renderCapabilities(t *wire.Table) (string, error) {
	if !t.Has(capabilitiesSelf) {
		return "", &MissingFieldError{Op: OpGetCapabilities, Name: "self"}
	}
	if !t.Has(capabilitiesPeer) {
		return "", &MissingFieldError{Op: OpGetCapabilities, Name: "peer"}
	}
	self, err := t.Uint16(capabilitiesSelf)
	if err != nil {
		return "", fmt.Errorf("self: %w", err)
	}
	peer, err := t.Uint16(capabilitiesPeer)
	if err != nil {
		return "", fmt.Errorf("peer: %w", err)
	}
	return fmt.Sprintf("0x%08x", uint32(self)<<16|uint32(peer)), nil
}
