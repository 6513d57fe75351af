package twt

import "github.com/wlanshim/twt-go/pkg/wire"

// nl80211 command and envelope attributes.
const (
	NL80211CmdVendor uint8 = 103

	NL80211AttrIfIndex      uint16 = 3
	NL80211AttrVendorID     uint16 = 195
	NL80211AttrVendorSubcmd uint16 = 196
	NL80211AttrVendorData   uint16 = 197
)

// Vendor identifiers.
const (
	OUIQCA uint32 = 0x001374

	SubcmdGetFeatures uint32 = 55
	SubcmdConfigTWT   uint32 = 143
)

// GET_FEATURES reply attributes.
const (
	attrFeatureFlags uint16 = 7
	featureMaxID     uint16 = attrFeatureFlags

	// FeatureTWTAsync is the feature bit advertising asynchronous TWT.
	FeatureTWTAsync = 15
)

// CONFIG_TWT attributes.
const (
	configOperation uint16 = 1
	configParams    uint16 = 2
	configMaxID     uint16 = configParams
)

// TWT setup parameter block. Also used by Get, Terminate and Suspend,
// and by the status fields of every event.
const (
	setupBcast             uint16 = 1
	setupReqType           uint16 = 2
	setupTrigger           uint16 = 3
	setupWakeTime          uint16 = 4
	setupWakeDuration      uint16 = 5
	setupWakeIntvlMantissa uint16 = 6
	setupProtection        uint16 = 7
	setupWakeIntvlExp      uint16 = 8
	setupFlowType          uint16 = 9
	setupFlowID            uint16 = 10
	setupStatus            uint16 = 14
	setupRespType          uint16 = 15
	setupWakeTimeTSF       uint16 = 16
	setupMACAddr           uint16 = 17
	setupMinWakeIntvl      uint16 = 18
	setupMaxWakeIntvl      uint16 = 19
	setupMinWakeDuration   uint16 = 20
	setupMaxWakeDuration   uint16 = 21
	setupState             uint16 = 22
	setupWakeIntvl2        uint16 = 23
	setupInfoEnabled       uint16 = 24
	setupMaxID             uint16 = setupInfoEnabled
)

// TWT resume parameter block.
const (
	resumeNextTWT     uint16 = 1
	resumeNext2TWT    uint16 = 2
	resumeNextTWTSize uint16 = 3
	resumeFlowID      uint16 = 4
)

// TWT nudge parameter block.
const (
	nudgeFlowID      uint16 = 1
	nudgeWakeTime    uint16 = 2
	nudgeNextTWTSize uint16 = 3
)

// TWT statistics block.
const (
	statsNumSPIterations   uint16 = 1
	statsMinWakeDuration   uint16 = 2
	statsMaxWakeDuration   uint16 = 3
	statsSessionWakeDur    uint16 = 4
	statsAvgWakeDuration   uint16 = 5
	statsAverageTxMPDU     uint16 = 6
	statsAverageRxMPDU     uint16 = 7
	statsAverageTxPktSize  uint16 = 8
	statsAverageRxPktSize  uint16 = 9
	statsFlowID            uint16 = 10
	statsMaxID             uint16 = statsFlowID
)

// TWT capabilities block.
const (
	capabilitiesSelf  uint16 = 1
	capabilitiesPeer  uint16 = 2
	capabilitiesMaxID uint16 = capabilitiesPeer
)

// wakeIntervalTUFactor converts microseconds to 1024us time units.
const wakeIntervalTUFactor = 1024

var setupSchema = wire.Schema{
	setupBcast:             {Kind: wire.KindFlag},
	setupReqType:           {Kind: wire.KindScalar, Width: 1},
	setupTrigger:           {Kind: wire.KindFlag},
	setupWakeTime:          {Kind: wire.KindScalar, Width: 4},
	setupWakeDuration:      {Kind: wire.KindScalar, Width: 4},
	setupWakeIntvlMantissa: {Kind: wire.KindScalar, Width: 4},
	setupProtection:        {Kind: wire.KindFlag},
	setupWakeIntvlExp:      {Kind: wire.KindScalar, Width: 1},
	setupFlowType:          {Kind: wire.KindScalar, Width: 1},
	setupFlowID:            {Kind: wire.KindScalar, Width: 1},
	setupStatus:            {Kind: wire.KindScalar, Width: 1},
	setupRespType:          {Kind: wire.KindScalar, Width: 1},
	setupWakeTimeTSF:       {Kind: wire.KindScalar, Width: 8},
	setupMACAddr:           {Kind: wire.KindBytes},
	setupMinWakeIntvl:      {Kind: wire.KindScalar, Width: 4},
	setupMaxWakeIntvl:      {Kind: wire.KindScalar, Width: 4},
	setupMinWakeDuration:   {Kind: wire.KindScalar, Width: 4},
	setupMaxWakeDuration:   {Kind: wire.KindScalar, Width: 4},
	setupState:             {Kind: wire.KindScalar, Width: 4},
	setupWakeIntvl2:        {Kind: wire.KindScalar, Width: 4},
	setupInfoEnabled:       {Kind: wire.KindFlag},
}

var resumeSchema = wire.Schema{
	resumeNextTWT:     {Kind: wire.KindScalar, Width: 1},
	resumeNext2TWT:    {Kind: wire.KindScalar, Width: 4},
	resumeNextTWTSize: {Kind: wire.KindScalar, Width: 4},
	resumeFlowID:      {Kind: wire.KindScalar, Width: 1},
}

var nudgeSchema = wire.Schema{
	nudgeFlowID:      {Kind: wire.KindScalar, Width: 1},
	nudgeWakeTime:    {Kind: wire.KindScalar, Width: 4},
	nudgeNextTWTSize: {Kind: wire.KindScalar, Width: 4},
}

var statsSchema = wire.Schema{
	statsNumSPIterations:  {Kind: wire.KindScalar, Width: 4},
	statsMinWakeDuration:  {Kind: wire.KindScalar, Width: 4},
	statsMaxWakeDuration:  {Kind: wire.KindScalar, Width: 4},
	statsSessionWakeDur:   {Kind: wire.KindScalar, Width: 4},
	statsAvgWakeDuration:  {Kind: wire.KindScalar, Width: 4},
	statsAverageTxMPDU:    {Kind: wire.KindScalar, Width: 4},
	statsAverageRxMPDU:    {Kind: wire.KindScalar, Width: 4},
	statsAverageTxPktSize: {Kind: wire.KindScalar, Width: 4},
	statsAverageRxPktSize: {Kind: wire.KindScalar, Width: 4},
	statsFlowID:           {Kind: wire.KindScalar, Width: 1},
}

var capabilitiesSchema = wire.Schema{
	capabilitiesSelf: {Kind: wire.KindScalar, Width: 2},
	capabilitiesPeer: {Kind: wire.KindScalar, Width: 2},
}

// paramsSchema returns the declared layout of the parameter block an
// operation sends.
func paramsSchema(op Operation) wire.Schema {
	switch op {
	case OpResume:
		return resumeSchema
	case OpNudge:
		return nudgeSchema
	case OpGetStats, OpClearStats:
		return statsSchema
	case OpGetCapabilities:
		return capabilitiesSchema
	default:
		return setupSchema
	}
}

// RequestSchema returns the full attribute layout of a request for op,
// from the nl80211 envelope down to the parameter block.
func RequestSchema(op Operation) wire.Schema {
	return wire.Schema{
		NL80211AttrIfIndex:      {Kind: wire.KindScalar, Width: 4},
		NL80211AttrVendorID:     {Kind: wire.KindScalar, Width: 4},
		NL80211AttrVendorSubcmd: {Kind: wire.KindScalar, Width: 4},
		NL80211AttrVendorData: {Kind: wire.KindNested, Nested: wire.Schema{
			configOperation: {Kind: wire.KindScalar, Width: 1},
			configParams:    {Kind: wire.KindNested, Nested: paramsSchema(op)},
		}},
	}
}
