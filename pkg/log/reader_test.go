package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wlanshim/twt-go/pkg/twt"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.tlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func readAll(t *testing.T, path string, filter Filter) []Event {
	t.Helper()

	reader, err := NewFilteredReader(path, filter)
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	var out []Event
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, event)
	}
}

func sampleTrace(base time.Time) []Event {
	return []Event{
		{
			Timestamp: base, TransactionID: "txn-1", Direction: DirectionOut,
			Layer: LayerWire, Category: CategoryMessage, Interface: "wlan0",
			Message: NewMessageEvent(twt.OpSetup, []byte{1}),
		},
		{
			Timestamp: base.Add(time.Second), TransactionID: "txn-1", Direction: DirectionIn,
			Layer: LayerTransport, Category: CategoryReply, Interface: "wlan0",
			Reply: &ReplyEvent{Kind: "ACK"},
		},
		{
			Timestamp: base.Add(2 * time.Second), Direction: DirectionIn,
			Layer: LayerService, Category: CategoryNotification, Interface: "wlan0",
			Notification: &NotificationEvent{Operation: twt.OpSetup, DialogID: 1},
		},
		{
			Timestamp: base.Add(3 * time.Second), TransactionID: "txn-2", Direction: DirectionOut,
			Layer: LayerWire, Category: CategoryMessage, Interface: "wlan1",
			Message: NewMessageEvent(twt.OpGetStats, []byte{2}),
		},
	}
}

func TestReaderIteratesEvents(t *testing.T) {
	path := createTestLogFile(t, sampleTrace(time.Now()))

	read := readAll(t, path, Filter{})
	if len(read) != 4 {
		t.Fatalf("got %d events, want 4", len(read))
	}
	if read[0].Category != CategoryMessage || read[3].TransactionID != "txn-2" {
		t.Errorf("unexpected order: %+v", read)
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	if got := readAll(t, path, Filter{}); len(got) != 0 {
		t.Errorf("got %d events from empty file", len(got))
	}
}

func TestReaderHandlesTruncatedFile(t *testing.T) {
	path := createTestLogFile(t, sampleTrace(time.Now())[:1])

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)-3], 0o644); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Next(); err == nil || errors.Is(err, io.EOF) {
		t.Errorf("expected decode error for truncated file, got %v", err)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, sampleTrace(base))

	out := DirectionOut
	transport := LayerTransport
	notification := CategoryNotification
	setup := twt.OpSetup
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"transaction", Filter{TransactionID: "txn-1"}, 2},
		{"direction", Filter{Direction: &out}, 2},
		{"layer", Filter{Layer: &transport}, 1},
		{"category", Filter{Category: &notification}, 1},
		{"operation", Filter{Operation: &setup}, 2},
		{"time range", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"interface", Filter{Interface: "wlan1"}, 1},
		{"combined", Filter{TransactionID: "txn-1", Direction: &out}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(readAll(t, path, tt.filter)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}
