package capability

import (
	"context"
	"fmt"

	"github.com/wlanshim/twt-go/pkg/interaction"
	"github.com/wlanshim/twt-go/pkg/twt"
	"github.com/wlanshim/twt-go/pkg/wire"
)

// Executor runs one vendor transaction. *interaction.Engine implements it.
type Executor interface {
	Execute(ctx context.Context, req interaction.Request) (*interaction.Transaction, error)
}

// FeatureProber returns a Prober that sends GET_FEATURES on the interface
// with index ifindex and tests bit in the returned feature array.
func FeatureProber(exec Executor, ifindex uint32, bit int) Prober {
	return func(ctx context.Context) (bool, error) {
		payload, err := wire.Encode(twt.BuildFeatureProbe(ifindex))
		if err != nil {
			return false, fmt.Errorf("encode feature probe: %w", err)
		}

		var supported bool
		_, err = exec.Execute(ctx, interaction.Request{
			Op:      twt.OpFeatureProbe,
			Payload: payload,
			Decode: func(data []byte, _ *twt.ReplyWriter) (int, error) {
				flags, err := twt.DecodeFeatureFlags(data)
				if err != nil {
					return 0, err
				}
				supported = supported || twt.HasFeature(flags, bit)
				return 0, nil
			},
		})
		if err != nil {
			return false, err
		}
		return supported, nil
	}
}
