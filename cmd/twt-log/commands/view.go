// Package commands implements the twt-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/wlanshim/twt-go/pkg/log"
	"github.com/wlanshim/twt-go/pkg/twt"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
}

func (f ViewFilter) matches(e log.Event) bool {
	if f.Layer != nil && e.Layer != *f.Layer {
		return false
	}
	if f.Direction != nil && e.Direction != *f.Direction {
		return false
	}
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	return true
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [txn:id] iface DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	txn := shortenID(event.TransactionID)
	if txn == "" {
		txn = "-"
	}

	var typeLabel string
	switch {
	case event.Message != nil:
		typeLabel = "Request " + event.Message.Operation.String()
	case event.Reply != nil:
		typeLabel = "Reply " + event.Reply.Kind
	case event.Notification != nil:
		typeLabel = "Event " + event.Notification.Operation.EventTag()
	case event.Capability != nil:
		typeLabel = "Capability"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [txn:%s] %s %-3s %s %s\n",
		ts, txn, event.Interface, event.Direction, event.Layer, typeLabel)

	switch {
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.Reply != nil:
		formatReplyDetails(w, event.Reply)
	case event.Notification != nil:
		formatNotificationDetails(w, event.Notification)
	case event.Capability != nil:
		formatCapabilityDetails(w, event.Capability)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a transaction ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", msg.Size)
	if len(msg.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(msg.Data))
		if msg.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatReplyDetails(w io.Writer, r *log.ReplyEvent) {
	if r.Code != 0 {
		fmt.Fprintf(w, "  Code: %d\n", r.Code)
	}
	if r.Size != 0 {
		fmt.Fprintf(w, "  Size: %d bytes\n", r.Size)
	}
}

func formatNotificationDetails(w io.Writer, n *log.NotificationEvent) {
	fmt.Fprintf(w, "  Dialog: %d\n", n.DialogID)
	fmt.Fprintf(w, "  Status: %s (%d)\n", n.Status, uint8(n.Status))
	if n.Text != "" {
		fmt.Fprintf(w, "  Text: %s\n", n.Text)
	}
}

func formatCapabilityDetails(w io.Writer, c *log.CapabilityEvent) {
	if c.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", c.OldState, c.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", c.NewState)
	}
	if c.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", c.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "service":
		return log.LayerService, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, wire, or service)", s)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	for _, c := range categories {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid category: %s (must be message, reply, notification, capability, or error)", s)
}

var categories = []log.Category{
	log.CategoryMessage,
	log.CategoryReply,
	log.CategoryNotification,
	log.CategoryCapability,
	log.CategoryError,
}

// ParseOperationFlag parses an operation name such as "SUSPEND" or a
// command verb such as "twt_session_pause".
func ParseOperationFlag(s string) (twt.Operation, error) {
	if op, ok := twt.LookupCommand(s); ok {
		return op, nil
	}
	for op := twt.OpSetup; op <= twt.OpSetupReadyNotify; op++ {
		if strings.EqualFold(op.String(), s) {
			return op, nil
		}
	}
	if strings.EqualFold(twt.OpFeatureProbe.String(), s) {
		return twt.OpFeatureProbe, nil
	}
	return 0, fmt.Errorf("invalid operation: %s", s)
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if !filter.matches(event) {
			continue
		}
		formatEvent(output, event)
	}
	return nil
}
