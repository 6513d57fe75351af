package twt

// Status is a TWT result code reported by the driver.
type Status uint8

const (
	StatusOK Status = iota
	StatusNotEnabled
	StatusUsedDialogID
	StatusSessionBusy
	StatusSessionNotExist
	StatusNotSuspended
	StatusInvalidParam
	StatusNotReady
	StatusNoResource
	StatusNoAck
	StatusNoResponse
	StatusDenied
	StatusUnknownError
	StatusAlreadySuspended
	StatusIEInvalid
	StatusParamsNotInRange
	StatusPeerInitiatedTerminate
	StatusRoamInitiatedTerminate
)

var statusText = [...]string{
	StatusOK:                     "success",
	StatusNotEnabled:             "TWT not enabled",
	StatusUsedDialogID:           "TWT dialog ID is already used",
	StatusSessionBusy:            "TWT session is busy",
	StatusSessionNotExist:        "TWT session does not exist",
	StatusNotSuspended:           "TWT session not in suspend state",
	StatusInvalidParam:           "TWT invalid parameters",
	StatusNotReady:               "TWT not ready",
	StatusNoResource:             "TWT resource unavailable",
	StatusNoAck:                  "TWT no ACK",
	StatusNoResponse:             "TWT no response",
	StatusDenied:                 "TWT denied",
	StatusUnknownError:           "TWT unknown error",
	StatusAlreadySuspended:       "TWT session already in suspend state",
	StatusIEInvalid:              "TWT IE invalid",
	StatusParamsNotInRange:       "TWT parameters not in range",
	StatusPeerInitiatedTerminate: "TWT peer initiated termination",
	StatusRoamInitiatedTerminate: "TWT roam initiated termination",
}

// String returns the description of s, or "invalid twt status" for codes
// outside the table.
func (s Status) String() string {
	if int(s) < len(statusText) {
		return statusText[s]
	}
	return "invalid twt status"
}
