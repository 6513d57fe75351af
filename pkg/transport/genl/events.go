package genl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mdlayher/genetlink"
	"golang.org/x/sys/unix"

	"github.com/wlanshim/twt-go/pkg/service"
	"github.com/wlanshim/twt-go/pkg/twt"
	"github.com/wlanshim/twt-go/pkg/wire"
)

// ErrGroupNotFound is returned when nl80211 has no vendor multicast group.
var ErrGroupNotFound = errors.New("vendor multicast group unavailable")

// EventHandler receives vendor events in arrival order.
type EventHandler func(ctx context.Context, ev service.VendorEvent)

// Events listens for nl80211 vendor events on a dedicated socket until
// ctx ends. When ifindex is non-zero, events for other interfaces are
// skipped.
func Events(ctx context.Context, ifindex uint32, handler EventHandler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	c, err := genetlink.Dial(nil)
	if err != nil {
		return err
	}
	defer c.Close()

	family, err := c.GetFamily(unix.NL80211_GENL_NAME)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", unix.NL80211_GENL_NAME, err)
	}

	joined := false
	for _, g := range family.Groups {
		if g.Name == unix.NL80211_MULTICAST_GROUP_VENDOR {
			if err := c.JoinGroup(g.ID); err != nil {
				return fmt.Errorf("join %s group: %w", g.Name, err)
			}
			joined = true
		}
	}
	if !joined {
		return ErrGroupNotFound
	}

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		msgs, _, err := c.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		for _, m := range msgs {
			ev, ok, err := vendorEvent(m, ifindex)
			if err != nil {
				logger.Warn("dropping malformed vendor event", slog.Any("error", err))
				continue
			}
			if ok {
				handler(ctx, ev)
			}
		}
	}
}

// vendorEvent extracts a vendor event from m. ok is false for other
// commands and other interfaces.
func vendorEvent(m genetlink.Message, ifindex uint32) (service.VendorEvent, bool, error) {
	if m.Header.Command != twt.NL80211CmdVendor {
		return service.VendorEvent{}, false, nil
	}

	t, err := wire.Decode(m.Data, twt.NL80211AttrVendorData)
	if err != nil {
		return service.VendorEvent{}, false, err
	}
	if ifindex != 0 && t.Has(twt.NL80211AttrIfIndex) {
		idx, err := t.Uint32(twt.NL80211AttrIfIndex)
		if err != nil {
			return service.VendorEvent{}, false, err
		}
		if idx != ifindex {
			return service.VendorEvent{}, false, nil
		}
	}

	var ev service.VendorEvent
	if ev.VendorID, err = t.Uint32(twt.NL80211AttrVendorID); err != nil {
		return service.VendorEvent{}, false, err
	}
	if ev.SubCmd, err = t.Uint32(twt.NL80211AttrVendorSubcmd); err != nil {
		return service.VendorEvent{}, false, err
	}
	if t.Has(twt.NL80211AttrVendorData) {
		if ev.Data, err = t.Bytes(twt.NL80211AttrVendorData); err != nil {
			return service.VendorEvent{}, false, err
		}
	}
	return ev, true, nil
}
