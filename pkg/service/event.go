package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wlanshim/twt-go/pkg/log"
	"github.com/wlanshim/twt-go/pkg/notify"
	"github.com/wlanshim/twt-go/pkg/twt"
)

// VendorEvent is an asynchronous nl80211 vendor event.
type VendorEvent struct {
	VendorID uint32
	SubCmd   uint32

	// Data is the vendor data payload: the CONFIG_TWT attribute table.
	Data []byte
}

// OnVendorEvent decodes a TWT event, renders it and delivers it to the
// configured sink. Events for other vendors or sub-commands are ignored
// with ErrNotTWTEvent.
func (s *Service) OnVendorEvent(ctx context.Context, ev VendorEvent) error {
	if ev.VendorID != twt.OUIQCA || ev.SubCmd != twt.SubcmdConfigTWT {
		return fmt.Errorf("%w: vendor 0x%06x subcmd %d", ErrNotTWTEvent, ev.VendorID, ev.SubCmd)
	}

	w := twt.NewReplyWriter(s.config.ReplyCapacity)
	decoded, err := twt.DecodeEvent(ev.Data, w)
	if err != nil {
		err = fmt.Errorf("async event parsing failed: %w", err)
		s.logError("event", err)
		s.logger.Warn("dropping twt event",
			slog.String("iface", s.config.Interface),
			slog.Any("error", err))
		return err
	}

	s.plog.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerService,
		Category:  log.CategoryNotification,
		Interface: s.config.Interface,
		Notification: &log.NotificationEvent{
			Operation: decoded.Op,
			DialogID:  decoded.DialogID,
			Status:    decoded.Status,
			Text:      decoded.Text,
		},
	})

	if s.sink == nil {
		return nil
	}
	if err := s.sink.Deliver(ctx, notify.FromEvent(s.config.Interface, decoded)); err != nil {
		return fmt.Errorf("deliver %s event: %w", decoded.Op.EventTag(), err)
	}
	return nil
}
