package wire

import "fmt"

// Kind identifies the payload shape of an attribute.
type Kind uint8

const (
	// KindScalar is an unsigned integer of 1, 2, 4 or 8 bytes.
	KindScalar Kind = iota
	// KindFlag is a zero-length attribute whose presence means true.
	KindFlag
	// KindNested holds an ordered list of child attributes.
	KindNested
	// KindBytes is an opaque byte string (MAC addresses, bit arrays).
	KindBytes
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindFlag:
		return "flag"
	case KindNested:
		return "nested"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Attr is one node of an attribute tree.
//
// Ids are only unique within one nesting level. Children keep their
// order on the wire, which matters for multi-instance lists.
type Attr struct {
	ID   uint16
	Kind Kind

	// Width and Value are set for KindScalar.
	Width uint8
	Value uint64

	// Children is set for KindNested.
	Children []Attr

	// Data is set for KindBytes.
	Data []byte
}

// U8 returns a 1-byte scalar attribute.
func U8(id uint16, v uint8) Attr {
	return Attr{ID: id, Kind: KindScalar, Width: 1, Value: uint64(v)}
}

// U16 returns a 2-byte scalar attribute.
func U16(id uint16, v uint16) Attr {
	return Attr{ID: id, Kind: KindScalar, Width: 2, Value: uint64(v)}
}

// U32 returns a 4-byte scalar attribute.
func U32(id uint16, v uint32) Attr {
	return Attr{ID: id, Kind: KindScalar, Width: 4, Value: uint64(v)}
}

// U64 returns an 8-byte scalar attribute.
func U64(id uint16, v uint64) Attr {
	return Attr{ID: id, Kind: KindScalar, Width: 8, Value: v}
}

// Flag returns a presence flag attribute.
func Flag(id uint16) Attr {
	return Attr{ID: id, Kind: KindFlag}
}

// Raw returns an opaque byte string attribute.
func Raw(id uint16, b []byte) Attr {
	return Attr{ID: id, Kind: KindBytes, Data: b}
}

// Nest returns a nested attribute holding children in order.
func Nest(id uint16, children ...Attr) Attr {
	return Attr{ID: id, Kind: KindNested, Children: children}
}

// String returns a compact representation for debugging.
func (a Attr) String() string {
	switch a.Kind {
	case KindScalar:
		return fmt.Sprintf("%d:u%d=%d", a.ID, a.Width*8, a.Value)
	case KindFlag:
		return fmt.Sprintf("%d:flag", a.ID)
	case KindBytes:
		return fmt.Sprintf("%d:bytes=%x", a.ID, a.Data)
	case KindNested:
		return fmt.Sprintf("%d:%v", a.ID, a.Children)
	default:
		return fmt.Sprintf("%d:?", a.ID)
	}
}

// Find returns the first direct child with the given id.
func (a Attr) Find(id uint16) (Attr, bool) {
	for _, c := range a.Children {
		if c.ID == id {
			return c, true
		}
	}
	return Attr{}, false
}

// FindIn returns the first attribute with the given id in attrs.
func FindIn(attrs []Attr, id uint16) (Attr, bool) {
	for _, a := range attrs {
		if a.ID == id {
			return a, true
		}
	}
	return Attr{}, false
}
