package twt

// Params is a validated parameter record for one operation.
// The set of implementations is closed.
type Params interface {
	Operation() Operation
	isParams()
}

// SetupParams configures a new TWT session.
type SetupParams struct {
	DialogID          uint8
	ReqType           uint8
	Trigger           bool
	FlowType          uint8 // 0 announced, 1 unannounced
	WakeIntvlExp      uint8
	Protection        bool
	WakeTime          uint32
	WakeDuration      uint32
	WakeIntvlMantissa uint32
	Broadcast         bool
	MinWakeIntvl      uint32
	MaxWakeIntvl      uint32
	MinWakeDuration   uint32
	MaxWakeDuration   uint32
}

// DialogParams addresses an existing session by dialog id. It serves
// Terminate, Suspend, Get, GetStats and ClearStats.
type DialogParams struct {
	Op       Operation
	DialogID uint8
}

// ResumeParams resumes a suspended session.
type ResumeParams struct {
	DialogID    uint8
	NextTWT     uint8
	Next2TWT    uint32
	NextTWTSize uint32
}

// NudgeParams shifts the next service period of a session.
type NudgeParams struct {
	DialogID      uint8
	PauseDuration uint32
	NextTWTSize   uint32
}

// CapabilityParams requests the self and peer TWT capabilities.
type CapabilityParams struct{}

func (SetupParams) Operation() Operation      { return OpSetup }
func (p DialogParams) Operation() Operation   { return p.Op }
func (ResumeParams) Operation() Operation     { return OpResume }
func (NudgeParams) Operation() Operation      { return OpNudge }
func (CapabilityParams) Operation() Operation { return OpGetCapabilities }

func (SetupParams) isParams()      {}
func (DialogParams) isParams()     {}
func (ResumeParams) isParams()     {}
func (NudgeParams) isParams()      {}
func (CapabilityParams) isParams() {}

// isDialogOp reports whether op takes only a dialog id.
func isDialogOp(op Operation) bool {
	switch op {
	case OpTerminate, OpSuspend, OpGet, OpGetStats, OpClearStats:
		return true
	}
	return false
}
