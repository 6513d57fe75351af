package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wlanshim/twt-go/internal/replay"
)

// TestService_Replay drives the service through the scripted scenarios
// with a real engine and capability gate.
func TestService_Replay(t *testing.T) {
	scenarios, err := replay.LoadDirectory("../../internal/replay/testdata")
	require.NoError(t, err)

	for _, sc := range scenarios {
		t.Run(sc.ID, func(t *testing.T) {
			res, err := replay.Run(context.Background(), sc, replay.Options{})
			require.NoError(t, err)
			require.True(t, res.Passed(), "%v", res.Failures())
		})
	}
}
