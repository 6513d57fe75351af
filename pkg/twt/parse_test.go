package twt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand_Setup(t *testing.T) {
	line := "twt_session_setup dialog_id 1 req_type 0 trig_type 1 flow_type 0 " +
		"wake_intr_exp 10 protection 0 wake_time 0 wake_dur 255 " +
		"wake_intr_mantissa 512 broadcast 1"

	p, err := ParseCommand(line)
	require.NoError(t, err)

	assert.Equal(t, SetupParams{
		DialogID:          1,
		ReqType:           0,
		Trigger:           true,
		FlowType:          0,
		WakeIntvlExp:      10,
		WakeDuration:      255,
		WakeIntvlMantissa: 512,
		Broadcast:         true,
	}, p)
	assert.Equal(t, OpSetup, p.Operation())
}

func TestParseCommand_Operations(t *testing.T) {
	tests := []struct {
		line string
		want Params
	}{
		{"twt_session_terminate dialog_id 4", DialogParams{Op: OpTerminate, DialogID: 4}},
		{"twt_session_pause dialog_id 2", DialogParams{Op: OpSuspend, DialogID: 2}},
		{"twt_session_get_params dialog_id 0", DialogParams{Op: OpGet, DialogID: 0}},
		{"twt_session_get_stats dialog_id 255", DialogParams{Op: OpGetStats, DialogID: 255}},
		{"twt_session_clear_stats dialog_id 7", DialogParams{Op: OpClearStats, DialogID: 7}},
		{"twt_session_resume dialog_id 3 next_twt_size 2", ResumeParams{DialogID: 3, NextTWTSize: 2}},
		{"twt_session_resume dialog_id 3 next_twt 1 next2_twt 9 next_twt_size 2",
			ResumeParams{DialogID: 3, NextTWT: 1, Next2TWT: 9, NextTWTSize: 2}},
		{"twt_session_nudge dialog_id 1 pause_duration 40 next_twt_size 2",
			NudgeParams{DialogID: 1, PauseDuration: 40, NextTWTSize: 2}},
		{"twt_get_capability", CapabilityParams{}},
		{"TWT_SESSION_PAUSE DIALOG_ID 5", DialogParams{Op: OpSuspend, DialogID: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			p, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		err   error
		field string
	}{
		{"empty line", "", ErrUnknownCommand, "command"},
		{"unknown verb", "twt_session_fly dialog_id 1", ErrUnknownCommand, "command"},
		{"setup without dialog", "twt_session_setup req_type 1", ErrMissingDialogID, "dialog_id"},
		{"setup empty", "twt_session_setup", ErrMissingDialogID, "dialog_id"},
		{"setup junk first", "twt_session_setup foo 1", ErrMissingDialogID, "dialog_id"},
		{"pause without dialog", "twt_session_pause", ErrMissingDialogID, "dialog_id"},
		{"resume without size", "twt_session_resume dialog_id 1 next_twt 2", ErrMissingParameter, "next_twt_size"},
		{"nudge without size", "twt_session_nudge dialog_id 1", ErrMissingParameter, "next_twt_size"},
		{"missing value", "twt_session_pause dialog_id", ErrMissingValue, "dialog_id"},
		{"not a number", "twt_session_pause dialog_id abc", ErrInvalidNumber, "dialog_id"},
		{"negative number", "twt_session_pause dialog_id -1", ErrInvalidNumber, "dialog_id"},
		{"u8 overflow", "twt_session_pause dialog_id 256", ErrInvalidRange, "dialog_id"},
		{"u32 overflow", "twt_session_setup dialog_id 1 wake_time 4294967296", ErrInvalidRange, "wake_time"},
		{"flag 2", "twt_session_setup dialog_id 1 trig_type 2", ErrInvalidFlagValue, "trig_type"},
		{"flag negative", "twt_session_setup dialog_id 1 protection -1", ErrInvalidFlagValue, "protection"},
		{"flag text", "twt_session_setup dialog_id 1 broadcast abc", ErrInvalidFlagValue, "broadcast"},
		{"exponent 32", "twt_session_setup dialog_id 1 wake_intr_exp 32", ErrInvalidRange, "wake_intr_exp"},
		{"duration 0", "twt_session_setup dialog_id 1 wake_dur 0", ErrInvalidRange, "wake_dur"},
		{"duration 256", "twt_session_setup dialog_id 1 wake_dur 256", ErrInvalidRange, "wake_dur"},
		{"mantissa too large", "twt_session_setup dialog_id 1 wake_intr_mantissa 65536", ErrInvalidRange, "wake_intr_mantissa"},
		{"out of order", "twt_session_setup dialog_id 1 wake_dur 10 req_type 1", ErrUnexpectedToken, "req_type"},
		{"duplicate", "twt_session_pause dialog_id 1 dialog_id 2", ErrUnexpectedToken, "dialog_id"},
		{"trailing token", "twt_session_terminate dialog_id 1 extra", ErrUnexpectedToken, "extra"},
		{"capability with args", "twt_get_capability dialog_id 1", ErrUnexpectedToken, "dialog_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseCommand(tt.line)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestParseCommand_Boundaries(t *testing.T) {
	tests := []string{
		"twt_session_setup dialog_id 0 wake_intr_exp 31",
		"twt_session_setup dialog_id 0 wake_dur 1",
		"twt_session_setup dialog_id 0 wake_dur 255",
		"twt_session_setup dialog_id 0 wake_intr_mantissa 65535",
		"twt_session_setup dialog_id 255 wake_time 4294967295",
	}
	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			_, err := ParseCommand(line)
			assert.NoError(t, err)
		})
	}
}

func TestParseParams_Deterministic(t *testing.T) {
	args := "dialog_id 9 trig_type 1 wake_intr_exp 5 wake_dur 80 min_wake_intvl 100 max_wake_duration 200"

	a, err := ParseParams(OpSetup, args)
	require.NoError(t, err)
	b, err := ParseParams(OpSetup, args)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, uint32(100), a.(SetupParams).MinWakeIntvl)
	assert.Equal(t, uint32(200), a.(SetupParams).MaxWakeDuration)
}

func TestParseError_Message(t *testing.T) {
	_, err := ParseCommand("twt_session_setup dialog_id 1 wake_dur 0")
	require.Error(t, err)
	assert.Equal(t, `twt_session_setup: wake_dur "0": value out of range`, err.Error())

	_, err = ParseCommand("twt_session_pause")
	require.Error(t, err)
	assert.Equal(t, "twt_session_pause: dialog_id: dialog_id is required", err.Error())
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"dialog_id", "next_twt", "next2_twt", "next_twt_size"}, Keywords(OpResume))
	assert.Equal(t, []string{"dialog_id"}, Keywords(OpSuspend))
	assert.Empty(t, Keywords(OpGetCapabilities))
	assert.Len(t, Keywords(OpSetup), 14)
}
