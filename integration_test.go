package twt_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/wlanshim/twt-go/internal/replay"
	"github.com/wlanshim/twt-go/pkg/capability"
	"github.com/wlanshim/twt-go/pkg/interaction"
	"github.com/wlanshim/twt-go/pkg/log"
	"github.com/wlanshim/twt-go/pkg/notify"
	"github.com/wlanshim/twt-go/pkg/service"
	"github.com/wlanshim/twt-go/pkg/twt"
	"github.com/wlanshim/twt-go/pkg/wire"
)

const testIfIndex = 7

// node is the command path twtctl builds, over a scripted driver.
type node struct {
	driver  *replay.Driver
	engine  *interaction.Engine
	gate    *capability.Gate
	svc     *service.Service
	events  *notify.ChanSink
	journal *bytes.Buffer
}

func newNode(t *testing.T, plog log.Logger, store *capability.Store) *node {
	t.Helper()

	n := &node{
		driver:  replay.NewDriver(),
		events:  notify.NewChanSink(8),
		journal: &bytes.Buffer{},
	}

	cfg := interaction.DefaultConfig()
	cfg.Interface = "wlan0"
	cfg.ProtocolLogger = plog
	n.engine = interaction.NewEngine(n.driver, cfg)

	n.gate = capability.NewGate(
		capability.FeatureProber(n.engine, testIfIndex, twt.FeatureTWTAsync),
		capability.Config{Interface: "wlan0", Store: store, ProtocolLogger: plog},
	)
	require.NoError(t, n.gate.Restore())

	svcCfg := service.DefaultConfig()
	svcCfg.Resolver = service.StaticIfIndex(testIfIndex)
	svcCfg.Sink = notify.NewMulti(n.events, notify.NewJournalSink(n.journal))
	svcCfg.ProtocolLogger = plog
	n.svc = service.New(n.engine, n.gate, svcCfg)
	return n
}

func encode(t *testing.T, attrs ...wire.Attr) []byte {
	t.Helper()
	b, err := wire.Encode(attrs)
	require.NoError(t, err)
	return b
}

// featureReply advertises asynchronous TWT support.
func featureReply(t *testing.T) interaction.Reply {
	flags := make([]byte, 2)
	flags[twt.FeatureTWTAsync/8] |= 1 << (twt.FeatureTWTAsync % 8)
	return interaction.Reply{
		Kind: interaction.ReplyData,
		Data: encode(t, wire.Nest(twt.NL80211AttrVendorData, wire.Raw(7, flags))),
	}
}

var ack = interaction.Reply{Kind: interaction.ReplyAck}

// TestE2E_SessionLifecycle runs a setup, a pause and a resume with their
// events through the full stack and checks the protocol capture.
func TestE2E_SessionLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "wlan0.tlog")
	flog, err := log.NewFileLogger(logPath)
	require.NoError(t, err)

	n := newNode(t, flog, capability.NewStore(filepath.Join(dir, "caps.json")))

	// Setup: the first async command probes the driver.
	n.driver.Script(featureReply(t), ack, ack)
	res, err := n.svc.Execute(ctx, "twt_session_setup dialog_id 1 wake_dur 100 wake_intr_mantissa 2048")
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	require.Equal(t, capability.Supported, n.gate.State())
	require.Len(t, n.driver.Sent(), 2, "probe and setup requests")

	err = n.svc.OnVendorEvent(ctx, service.VendorEvent{
		VendorID: twt.OUIQCA,
		SubCmd:   twt.SubcmdConfigTWT,
		Data: encode(t,
			wire.U8(1, uint8(twt.OpSetup)),
			wire.Nest(2,
				wire.U8(10, 1),
				wire.U8(14, 0),
				wire.U8(15, 0),
				wire.U8(8, 0),
				wire.U8(9, 1),
				wire.U32(5, 100),
				wire.U32(23, 2048),
			),
		),
	})
	require.NoError(t, err)
	setup := <-n.events.C()
	assert.Equal(t, "SETUP", setup.Tag)
	assert.Equal(t, uint8(1), setup.DialogID)
	assert.Equal(t, twt.StatusOK, setup.Status)

	// Pause and resume complete on ack; the gate is not probed again.
	n.driver.Script(ack)
	_, err = n.svc.Execute(ctx, "twt_session_pause dialog_id 1")
	require.NoError(t, err)
	n.driver.Script(ack)
	_, err = n.svc.Execute(ctx, "twt_session_resume dialog_id 1 next_twt_size 2")
	require.NoError(t, err)
	require.Len(t, n.driver.Sent(), 4)

	err = n.svc.OnVendorEvent(ctx, service.VendorEvent{
		VendorID: twt.OUIQCA,
		SubCmd:   twt.SubcmdConfigTWT,
		Data: encode(t,
			wire.U8(1, uint8(twt.OpResume)),
			wire.Nest(2, wire.U8(4, 1), wire.U8(14, 13)),
		),
	})
	require.NoError(t, err)
	resume := <-n.events.C()
	want := "CTRL-EVENT-TWT RESUME dialog_id 1 status 13 (TWT session already in suspend state)"
	assert.Equal(t, want, resume.Text)

	// Journal: one JSON line per event.
	var lines []map[string]any
	sc := bufio.NewScanner(n.journal)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), "journal line is not JSON")
		lines = append(lines, m)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "RESUME", lines[1]["tag"])
	assert.Equal(t, want, lines[1]["message"])

	// Protocol capture: requests, replies, the capability change and both
	// events, readable back from the file.
	require.NoError(t, flog.Close())
	reader, err := log.NewReader(logPath)
	require.NoError(t, err)
	defer reader.Close()

	counts := map[log.Category]int{}
	for {
		e, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		counts[e.Category]++
	}
	expected := map[log.Category]int{
		log.CategoryMessage:      4,
		log.CategoryReply:        5,
		log.CategoryCapability:   1,
		log.CategoryNotification: 2,
	}
	for cat, want := range expected {
		assert.Equal(t, want, counts[cat], "%s events", cat)
	}
}

// TestE2E_CapabilityPersists verifies that a second process reuses the
// saved verdict instead of probing.
func TestE2E_CapabilityPersists(t *testing.T) {
	ctx := context.Background()
	store := capability.NewStore(filepath.Join(t.TempDir(), "caps.json"))

	first := newNode(t, nil, store)
	first.driver.Script(featureReply(t), ack, ack)
	_, err := first.svc.Execute(ctx, "twt_session_terminate dialog_id 2")
	require.NoError(t, err)

	second := newNode(t, nil, store)
	require.Equal(t, capability.Supported, second.gate.State())
	second.driver.Script(ack)
	_, err = second.svc.Execute(ctx, "twt_session_terminate dialog_id 2")
	require.NoError(t, err)
	assert.Len(t, second.driver.Sent(), 1, "only the terminate request")

	// Invalidating clears the saved verdict for the next process too.
	second.gate.Invalidate()
	third := newNode(t, nil, store)
	assert.Equal(t, capability.Unknown, third.gate.State())
}

// TestE2E_FailedProbeNotPersisted verifies that a probe that fails in one
// process does not keep the next process from probing.
func TestE2E_FailedProbeNotPersisted(t *testing.T) {
	ctx := context.Background()
	store := capability.NewStore(filepath.Join(t.TempDir(), "caps.json"))

	first := newNode(t, nil, store)
	first.driver.Script(interaction.Reply{Kind: interaction.ReplyError, Code: int(unix.EBUSY)})
	code := first.svc.Handle(ctx, "twt_session_pause dialog_id 1", make([]byte, 128))
	assert.Equal(t, -int(unix.EOPNOTSUPP), code)
	assert.Equal(t, capability.Unsupported, first.gate.State())

	second := newNode(t, nil, store)
	require.Equal(t, capability.Unknown, second.gate.State())
	second.driver.Script(featureReply(t), ack, ack)
	_, err := second.svc.Execute(ctx, "twt_session_pause dialog_id 1")
	require.NoError(t, err)
	assert.Equal(t, capability.Supported, second.gate.State())
	assert.Len(t, second.driver.Sent(), 2, "probe and pause requests")
}

// TestE2E_HandleBuffer checks the fixed-buffer entry point used by the
// driver shim.
func TestE2E_HandleBuffer(t *testing.T) {
	n := newNode(t, nil, nil)
	n.driver.Script(interaction.Reply{
		Kind: interaction.ReplyData,
		Data: encode(t, wire.Nest(twt.NL80211AttrVendorData,
			wire.U8(1, uint8(twt.OpGetCapabilities)),
			wire.Nest(2, wire.U16(1, 0x0002), wire.U16(2, 0x0001)),
		)),
	}, ack)

	buf := make([]byte, twt.DefaultReplyCapacity)
	code := n.svc.Handle(context.Background(), "twt_get_capability", buf)
	require.Equal(t, 10, code, "%q", buf)
	assert.Equal(t, "0x00020001", string(buf[:code]))
}
