package interactive

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wlanshim/twt-go/pkg/capability"
	"github.com/wlanshim/twt-go/pkg/service"
)

type stubRunner struct {
	mock.Mock
}

func (r *stubRunner) Execute(ctx context.Context, line string) (service.Result, error) {
	args := r.Called(line)
	return args.Get(0).(service.Result), args.Error(1)
}

func (r *stubRunner) Interface() string { return "wlan0" }

type stubGate struct {
	mock.Mock
}

func (g *stubGate) State() capability.State {
	return g.Called().Get(0).(capability.State)
}

func (g *stubGate) Query(ctx context.Context) capability.State {
	return g.Called().Get(0).(capability.State)
}

func (g *stubGate) Invalidate() {
	g.Called()
}

func TestShell_Dispatch(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		setup func(r *stubRunner, g *stubGate)
		want  string
		more  bool
	}{
		{
			name: "blank",
			line: "   ",
			more: true,
		},
		{
			name:  "command output",
			line:  "twt_session_get_params dialog_id 1",
			setup: func(r *stubRunner, _ *stubGate) {
				r.On("Execute", "twt_session_get_params dialog_id 1").
					Return(service.Result{Text: "TWT_GET_PARAMS dialog_id 1"}, nil)
			},
			want: "TWT_GET_PARAMS dialog_id 1\n",
			more: true,
		},
		{
			name:  "command error",
			line:  "twt_session_pause",
			setup: func(r *stubRunner, _ *stubGate) {
				r.On("Execute", "twt_session_pause").
					Return(service.Result{}, errors.New("TWT failed for operation 3: bad"))
			},
			want: "Error: TWT failed for operation 3: bad\n",
			more: true,
		},
		{
			name:  "caps",
			line:  "caps",
			setup: func(_ *stubRunner, g *stubGate) {
				g.On("State").Return(capability.Unknown)
			},
			want: "Async TWT: UNKNOWN\n",
			more: true,
		},
		{
			name:  "caps probe",
			line:  "caps probe",
			setup: func(_ *stubRunner, g *stubGate) {
				g.On("Query").Return(capability.Supported)
			},
			want: "Async TWT: SUPPORTED\n",
			more: true,
		},
		{
			name:  "caps reset",
			line:  "caps reset",
			setup: func(_ *stubRunner, g *stubGate) {
				g.On("Invalidate").Return()
			},
			want: "Capability verdict cleared\n",
			more: true,
		},
		{
			name: "caps usage",
			line: "caps what",
			want: "Usage: caps [probe|reset]\n",
			more: true,
		},
		{
			name: "quit",
			line: "quit",
			want: "Exiting...\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g := &stubRunner{}, &stubGate{}
			if tt.setup != nil {
				tt.setup(r, g)
			}
			s := &Shell{svc: r, gate: g}

			var out bytes.Buffer
			got := s.Dispatch(context.Background(), &out, tt.line)

			assert.Equal(t, tt.more, got)
			assert.Equal(t, tt.want, out.String())
			r.AssertExpectations(t)
			g.AssertExpectations(t)
		})
	}
}

func TestShell_Help(t *testing.T) {
	var out bytes.Buffer
	(&Shell{}).printHelp(&out)

	assert.Contains(t, out.String(), "  twt_get_capability\n")
	assert.Contains(t, out.String(), "  twt_session_pause [dialog_id <n>]\n")
	assert.Contains(t, out.String(), "[next_twt_size <n>]")
}
