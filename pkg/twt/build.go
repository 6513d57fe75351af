package twt

import (
	"fmt"

	"github.com/wlanshim/twt-go/pkg/wire"
)

// Build returns the CONFIG_TWT vendor request for p addressed to the
// interface with index ifindex.
func Build(ifindex uint32, p Params) ([]wire.Attr, error) {
	var params []wire.Attr

	switch v := p.(type) {
	case SetupParams:
		params = setupAttrs(v)
	case DialogParams:
		if !isDialogOp(v.Op) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, v.Op)
		}
		params = dialogAttrs(v)
	case ResumeParams:
		params = []wire.Attr{
			wire.U8(resumeFlowID, v.DialogID),
			wire.U8(resumeNextTWT, v.NextTWT),
			wire.U32(resumeNext2TWT, v.Next2TWT),
			wire.U32(resumeNextTWTSize, v.NextTWTSize),
		}
	case NudgeParams:
		params = []wire.Attr{
			wire.U8(nudgeFlowID, v.DialogID),
			wire.U32(nudgeWakeTime, v.PauseDuration),
			wire.U32(nudgeNextTWTSize, v.NextTWTSize),
		}
	case CapabilityParams:
		// Empty parameter block.
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownOperation, p)
	}

	return envelope(ifindex, SubcmdConfigTWT,
		wire.U8(configOperation, uint8(p.Operation())),
		wire.Nest(configParams, params...),
	), nil
}

func setupAttrs(p SetupParams) []wire.Attr {
	attrs := []wire.Attr{
		wire.U8(setupFlowID, p.DialogID),
		wire.U8(setupReqType, p.ReqType),
	}
	if p.Trigger {
		attrs = append(attrs, wire.Flag(setupTrigger))
	}
	attrs = append(attrs,
		wire.U8(setupFlowType, p.FlowType),
		wire.U8(setupWakeIntvlExp, p.WakeIntvlExp),
	)
	if p.Protection {
		attrs = append(attrs, wire.Flag(setupProtection))
	}
	attrs = append(attrs,
		wire.U32(setupWakeTime, p.WakeTime),
		wire.U32(setupWakeDuration, p.WakeDuration),
		// Newer firmware reads the mantissa in microseconds, older
		// firmware in time units. Both are sent.
		wire.U32(setupWakeIntvl2, p.WakeIntvlMantissa),
		wire.U32(setupWakeIntvlMantissa, p.WakeIntvlMantissa/wakeIntervalTUFactor),
	)
	if p.Broadcast {
		attrs = append(attrs, wire.Flag(setupBcast))
	}
	attrs = append(attrs,
		wire.U32(setupMinWakeIntvl, p.MinWakeIntvl),
		wire.U32(setupMaxWakeIntvl, p.MaxWakeIntvl),
		wire.U32(setupMinWakeDuration, p.MinWakeDuration),
		wire.U32(setupMaxWakeDuration, p.MaxWakeDuration),
	)
	return attrs
}

func dialogAttrs(p DialogParams) []wire.Attr {
	switch p.Op {
	case OpGetStats, OpClearStats:
		return []wire.Attr{wire.U8(statsFlowID, p.DialogID)}
	default:
		return []wire.Attr{wire.U8(setupFlowID, p.DialogID)}
	}
}

func envelope(ifindex, subcmd uint32, data ...wire.Attr) []wire.Attr {
	out := []wire.Attr{
		wire.U32(NL80211AttrVendorID, OUIQCA),
		wire.U32(NL80211AttrVendorSubcmd, subcmd),
		wire.U32(NL80211AttrIfIndex, ifindex),
	}
	if data != nil {
		out = append(out, wire.Nest(NL80211AttrVendorData, data...))
	}
	return out
}

// BuildFeatureProbe returns the GET_FEATURES vendor request used to
// discover driver capabilities.
func BuildFeatureProbe(ifindex uint32) []wire.Attr {
	return envelope(ifindex, SubcmdGetFeatures)
}

// DecodeFeatureFlags extracts the feature bit array from a GET_FEATURES
// reply. A reply without the array yields nil flags and no error.
func DecodeFeatureFlags(data []byte) ([]byte, error) {
	top, err := wire.Decode(data, NL80211AttrVendorData)
	if err != nil {
		return nil, err
	}
	if !top.Has(NL80211AttrVendorData) {
		return nil, nil
	}
	vd, err := top.Nested(NL80211AttrVendorData, featureMaxID)
	if err != nil {
		return nil, err
	}
	if !vd.Has(attrFeatureFlags) {
		return nil, nil
	}
	return vd.Bytes(attrFeatureFlags)
}

// HasFeature tests bit in a feature bit array. Bits past the end of the
// array are unset.
func HasFeature(flags []byte, bit int) bool {
	if bit < 0 || bit/8 >= len(flags) {
		return false
	}
	return flags[bit/8]&(1<<(bit%8)) != 0
}
