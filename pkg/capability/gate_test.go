package capability

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlanshim/twt-go/pkg/log"
)

func countingProber(result bool, err error) (Prober, *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context) (bool, error) {
		calls.Add(1)
		return result, err
	}, &calls
}

func TestGate_ProbeFailureCachesUnsupported(t *testing.T) {
	probe, calls := countingProber(false, errors.New("transport down"))
	gate := NewGate(probe, Config{Interface: "wlan0"})

	assert.Equal(t, Unknown, gate.State())
	assert.Equal(t, Unsupported, gate.Query(context.Background()))
	assert.Equal(t, Unsupported, gate.Query(context.Background()))
	assert.Equal(t, int32(1), calls.Load(), "cached verdict must not re-probe")

	gate.Invalidate()
	assert.Equal(t, Unknown, gate.State())
	assert.Equal(t, Unsupported, gate.Query(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestGate_Supported(t *testing.T) {
	probe, calls := countingProber(true, nil)
	gate := NewGate(probe, Config{})

	assert.True(t, gate.Supported(context.Background()))
	assert.Equal(t, Supported, gate.State())
	assert.Equal(t, int32(1), calls.Load())
}

func TestGate_FeatureBitClear(t *testing.T) {
	probe, _ := countingProber(false, nil)
	gate := NewGate(probe, Config{})
	assert.False(t, gate.Supported(context.Background()))
}

func TestGate_ConcurrentFirstQueriesShareProbe(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	probe := func(context.Context) (bool, error) {
		calls.Add(1)
		<-release
		return true, nil
	}
	gate := NewGate(probe, Config{})

	const n = 16
	var wg sync.WaitGroup
	results := make([]State, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = gate.Query(context.Background())
		}(i)
	}

	// Let the callers pile up behind the in-flight probe.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, s := range results {
		assert.Equal(t, Supported, s)
	}
}

func TestGate_InvalidateUnknownIsNoop(t *testing.T) {
	var events []log.Event
	probe, _ := countingProber(true, nil)
	gate := NewGate(probe, Config{ProtocolLogger: log.LoggerFunc(func(e log.Event) {
		events = append(events, e)
	})})

	gate.Invalidate()
	assert.Empty(t, events)
}

func TestGate_LogsTransitions(t *testing.T) {
	var events []log.Event
	probe, _ := countingProber(true, nil)
	gate := NewGate(probe, Config{
		Interface: "wlan1",
		ProtocolLogger: log.LoggerFunc(func(e log.Event) {
			events = append(events, e)
		}),
	})

	gate.Query(context.Background())
	gate.Invalidate()

	require.Len(t, events, 2)
	assert.Equal(t, log.CategoryCapability, events[0].Category)
	assert.Equal(t, "wlan1", events[0].Interface)
	assert.Equal(t, "UNKNOWN", events[0].Capability.OldState)
	assert.Equal(t, "SUPPORTED", events[0].Capability.NewState)
	assert.Equal(t, "UNKNOWN", events[1].Capability.NewState)
	assert.Equal(t, "invalidated", events[1].Capability.Reason)
}

func TestGate_PersistAndRestore(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state", "capability.json"))

	probe, _ := countingProber(true, nil)
	first := NewGate(probe, Config{Interface: "wlan0", Store: store})
	require.Equal(t, Supported, first.Query(context.Background()))

	probe2, calls := countingProber(false, nil)
	second := NewGate(probe2, Config{Interface: "wlan0", Store: store})
	require.NoError(t, second.Restore())

	assert.Equal(t, Supported, second.Query(context.Background()))
	assert.Equal(t, int32(0), calls.Load(), "restored verdict must not probe")

	second.Invalidate()
	snap, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.NotContains(t, snap.Interfaces, "wlan0")
}

func TestGate_FailedProbeIsNotPersisted(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "capability.json"))

	failing, _ := countingProber(false, errors.New("transport down"))
	first := NewGate(failing, Config{Interface: "wlan0", Store: store})
	require.Equal(t, Unsupported, first.Query(context.Background()))

	snap, err := store.Load()
	require.NoError(t, err)
	if snap != nil {
		assert.NotContains(t, snap.Interfaces, "wlan0")
	}

	healthy, calls := countingProber(true, nil)
	second := NewGate(healthy, Config{Interface: "wlan0", Store: store})
	require.NoError(t, second.Restore())
	assert.Equal(t, Unknown, second.State())

	assert.Equal(t, Supported, second.Query(context.Background()))
	assert.Equal(t, int32(1), calls.Load(), "restart after a failed probe must probe again")
}

func TestGate_StoredVerdicts(t *testing.T) {
	tests := []struct {
		name      string
		supported bool
		want      State
	}{
		{"feature bit set", true, Supported},
		{"feature bit clear", false, Unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(filepath.Join(t.TempDir(), "capability.json"))

			probe, _ := countingProber(tt.supported, nil)
			first := NewGate(probe, Config{Interface: "wlan0", Store: store})
			require.Equal(t, tt.want, first.Query(context.Background()))

			snap, err := store.Load()
			require.NoError(t, err)
			require.NotNil(t, snap)
			assert.Equal(t, tt.want.String(), snap.Interfaces["wlan0"].State)

			other, calls := countingProber(!tt.supported, nil)
			second := NewGate(other, Config{Interface: "wlan0", Store: store})
			require.NoError(t, second.Restore())
			assert.Equal(t, tt.want, second.Query(context.Background()))
			assert.Equal(t, int32(0), calls.Load())
		})
	}
}

func TestGate_RestoreOtherInterface(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "capability.json"))
	require.NoError(t, store.Put("wlan1", Verdict{State: "UNSUPPORTED"}))

	probe, _ := countingProber(true, nil)
	gate := NewGate(probe, Config{Interface: "wlan0", Store: store})
	require.NoError(t, gate.Restore())
	assert.Equal(t, Unknown, gate.State())
}

func TestGate_RestoreWithoutStore(t *testing.T) {
	probe, _ := countingProber(true, nil)
	gate := NewGate(probe, Config{})
	assert.NoError(t, gate.Restore())
}

func TestGate_RestoreBadState(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "capability.json"))
	require.NoError(t, store.Put("wlan0", Verdict{State: "MAYBE"}))

	probe, _ := countingProber(true, nil)
	gate := NewGate(probe, Config{Interface: "wlan0", Store: store})
	assert.Error(t, gate.Restore())
	assert.Equal(t, Unknown, gate.State())
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Unknown, "UNKNOWN"},
		{Supported, "SUPPORTED"},
		{Unsupported, "UNSUPPORTED"},
		{State(9), "STATE(9)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
			if tt.state <= Unsupported {
				got, err := ParseState(tt.want)
				require.NoError(t, err)
				assert.Equal(t, tt.state, got)
			}
		})
	}
}
