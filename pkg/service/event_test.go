package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wlanshim/twt-go/pkg/log"
	"github.com/wlanshim/twt-go/pkg/notify"
	"github.com/wlanshim/twt-go/pkg/twt"
	"github.com/wlanshim/twt-go/pkg/wire"
)

type stubSink struct {
	mock.Mock
}

func (s *stubSink) Deliver(ctx context.Context, n notify.Notification) error {
	return s.Called(ctx, n).Error(0)
}

// terminateEvent encodes a TERMINATE event (operation id 1, params id 2,
// flow id 10, status id 14).
func terminateEvent(t *testing.T, dialog, status uint8) []byte {
	t.Helper()
	b, err := wire.Encode([]wire.Attr{
		wire.U8(1, uint8(twt.OpTerminate)),
		wire.Nest(2, wire.U8(10, dialog), wire.U8(14, status)),
	})
	require.NoError(t, err)
	return b
}

func newEventService(sink notify.Sink, plog log.Logger) *Service {
	cfg := DefaultConfig()
	cfg.Resolver = StaticIfIndex(4)
	cfg.Sink = sink
	cfg.ProtocolLogger = plog
	return New(nil, nil, cfg)
}

func TestOnVendorEvent_Delivers(t *testing.T) {
	sink := notify.NewChanSink(4)
	var events []log.Event
	svc := newEventService(sink, log.LoggerFunc(func(e log.Event) { events = append(events, e) }))

	err := svc.OnVendorEvent(context.Background(), VendorEvent{
		VendorID: twt.OUIQCA,
		SubCmd:   twt.SubcmdConfigTWT,
		Data:     terminateEvent(t, 255, 4),
	})
	require.NoError(t, err)

	n := <-sink.C()
	assert.Equal(t, "wlan0", n.Interface)
	assert.Equal(t, "TERMINATE", n.Tag)
	assert.Equal(t, uint8(0), n.DialogID)
	assert.Equal(t, twt.StatusSessionNotExist, n.Status)
	assert.Equal(t, "CTRL-EVENT-TWT TERMINATE dialog_id 0 status 4 (TWT session does not exist)", n.Text)

	require.Len(t, events, 1)
	assert.Equal(t, log.CategoryNotification, events[0].Category)
	assert.Equal(t, twt.OpTerminate, events[0].Notification.Operation)
}

func TestOnVendorEvent_IgnoresOtherEvents(t *testing.T) {
	sink := &stubSink{}
	svc := newEventService(sink, nil)

	tests := []VendorEvent{
		{VendorID: 0x001018, SubCmd: twt.SubcmdConfigTWT},
		{VendorID: twt.OUIQCA, SubCmd: twt.SubcmdGetFeatures},
	}
	for _, ev := range tests {
		assert.ErrorIs(t, svc.OnVendorEvent(context.Background(), ev), ErrNotTWTEvent)
	}
	sink.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestOnVendorEvent_DecodeFailure(t *testing.T) {
	sink := &stubSink{}
	var logged []log.Event
	svc := newEventService(sink, log.LoggerFunc(func(e log.Event) { logged = append(logged, e) }))

	data, err := wire.Encode([]wire.Attr{wire.U8(1, 42)})
	require.NoError(t, err)

	err = svc.OnVendorEvent(context.Background(), VendorEvent{
		VendorID: twt.OUIQCA, SubCmd: twt.SubcmdConfigTWT, Data: data,
	})
	assert.ErrorIs(t, err, twt.ErrUnknownOperation)
	sink.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
	require.Len(t, logged, 1)
	assert.Equal(t, log.CategoryError, logged[0].Category)
}

func TestOnVendorEvent_SinkError(t *testing.T) {
	sink := &stubSink{}
	sink.On("Deliver", mock.Anything, mock.Anything).Return(notify.ErrSinkFull)

	err := newEventService(sink, nil).OnVendorEvent(context.Background(), VendorEvent{
		VendorID: twt.OUIQCA, SubCmd: twt.SubcmdConfigTWT, Data: terminateEvent(t, 1, 0),
	})
	assert.ErrorIs(t, err, notify.ErrSinkFull)
}

func TestOnVendorEvent_NoSink(t *testing.T) {
	err := newEventService(nil, nil).OnVendorEvent(context.Background(), VendorEvent{
		VendorID: twt.OUIQCA, SubCmd: twt.SubcmdConfigTWT, Data: terminateEvent(t, 1, 0),
	})
	assert.NoError(t, err)
}

func TestOnVendorEvent_JournalSink(t *testing.T) {
	var buf bytes.Buffer
	svc := newEventService(notify.NewJournalSink(&buf), nil)

	err := svc.OnVendorEvent(context.Background(), VendorEvent{
		VendorID: twt.OUIQCA, SubCmd: twt.SubcmdConfigTWT, Data: terminateEvent(t, 9, 0),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"dialog_id":9`)
	assert.False(t, errors.Is(err, ErrNotTWTEvent))
}
