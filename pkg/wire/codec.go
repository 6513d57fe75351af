package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mdlayher/netlink"
)

// Codec errors.
var (
	// ErrMalformedMessage is returned when a buffer contains a truncated
	// or over-length record.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrWidthMismatch is returned when a scalar is read with a width
	// different from its payload length.
	ErrWidthMismatch = errors.New("attribute width mismatch")

	// ErrAttributeNotFound is returned when a requested id is absent.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrInvalidWidth is returned when encoding a scalar whose width is
	// not 1, 2, 4 or 8.
	ErrInvalidWidth = errors.New("invalid scalar width")

	// ErrUnknownAttribute is returned when a schema-directed conversion
	// meets an id the schema does not declare.
	ErrUnknownAttribute = errors.New("attribute not in schema")
)

// headerLen is the size of an attribute header (length + type).
const headerLen = 4

// align rounds n up to the attribute alignment boundary.
func align(n int) int {
	return (n + headerLen - 1) &^ (headerLen - 1)
}

// Encode serializes an attribute tree into netlink attribute bytes.
func Encode(attrs []Attr) ([]byte, error) {
	ae := netlink.NewAttributeEncoder()
	if err := encodeInto(ae, attrs); err != nil {
		return nil, err
	}
	b, err := ae.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode attributes: %w", err)
	}
	return b, nil
}

func encodeInto(ae *netlink.AttributeEncoder, attrs []Attr) error {
	for _, a := range attrs {
		switch a.Kind {
		case KindScalar:
			switch a.Width {
			case 1:
				ae.Uint8(a.ID, uint8(a.Value))
			case 2:
				ae.Uint16(a.ID, uint16(a.Value))
			case 4:
				ae.Uint32(a.ID, uint32(a.Value))
			case 8:
				ae.Uint64(a.ID, a.Value)
			default:
				return fmt.Errorf("attribute %d: %w: %d", a.ID, ErrInvalidWidth, a.Width)
			}
		case KindFlag:
			ae.Flag(a.ID, true)
		case KindBytes:
			ae.Bytes(a.ID, a.Data)
		case KindNested:
			children := a.Children
			var inner error
			ae.Nested(a.ID, func(nae *netlink.AttributeEncoder) error {
				inner = encodeInto(nae, children)
				return inner
			})
			if inner != nil {
				return inner
			}
		default:
			return fmt.Errorf("attribute %d: unknown kind %d", a.ID, a.Kind)
		}
	}
	return nil
}

// Validate walks every record header in b and checks that each declared
// length fits inside the buffer. It never reads past len(b).
func Validate(b []byte) error {
	for i := 0; i < len(b); {
		if len(b)-i < headerLen {
			return fmt.Errorf("%w: %d trailing bytes at offset %d", ErrMalformedMessage, len(b)-i, i)
		}
		l := int(binary.NativeEndian.Uint16(b[i : i+2]))
		if l < headerLen {
			return fmt.Errorf("%w: record length %d at offset %d", ErrMalformedMessage, l, i)
		}
		if l > len(b)-i {
			return fmt.Errorf("%w: record length %d exceeds %d remaining bytes at offset %d",
				ErrMalformedMessage, l, len(b)-i, i)
		}
		i += align(l)
	}
	return nil
}

// Decode parses b into a table of attributes with ids up to maxID.
// Attributes with larger ids are skipped. Nested payloads are kept as raw
// bytes until Nested or List is called.
func Decode(b []byte, maxID uint16) (*Table, error) {
	if err := Validate(b); err != nil {
		return nil, err
	}

	t := &Table{
		maxID:   maxID,
		entries: make(map[uint16]entry),
	}
	if len(b) == 0 {
		return t, nil
	}

	ad, err := netlink.NewAttributeDecoder(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	for ad.Next() {
		id := ad.Type()
		if id > maxID {
			continue
		}
		if _, seen := t.entries[id]; !seen {
			t.order = append(t.order, id)
		}
		t.entries[id] = entry{
			nested: ad.TypeFlags()&netlink.Nested != 0,
			data:   ad.Bytes(),
		}
	}
	if err := ad.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return t, nil
}
