package wire

import (
	"encoding/binary"
	"fmt"
)

type entry struct {
	nested bool
	data   []byte
}

// Table is a decoded attribute level indexed by id.
//
// When an id repeats within one level the last occurrence wins, matching
// kernel attribute parsing. Wire order of first occurrence is kept.
type Table struct {
	maxID   uint16
	entries map[uint16]entry
	order   []uint16
}

// Has reports whether id is present.
func (t *Table) Has(id uint16) bool {
	_, ok := t.entries[id]
	return ok
}

// Len returns the number of distinct ids.
func (t *Table) Len() int {
	return len(t.order)
}

// IDs returns the present ids in wire order.
func (t *Table) IDs() []uint16 {
	out := make([]uint16, len(t.order))
	copy(out, t.order)
	return out
}

// Flag reports whether the flag id is present.
func (t *Table) Flag(id uint16) bool {
	return t.Has(id)
}

// Bytes returns the raw payload of id.
func (t *Table) Bytes(id uint16) ([]byte, error) {
	e, ok := t.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAttributeNotFound, id)
	}
	return e.data, nil
}

func (t *Table) scalar(id uint16, width int) ([]byte, error) {
	e, ok := t.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAttributeNotFound, id)
	}
	if len(e.data) != width {
		return nil, fmt.Errorf("attribute %d: %w: have %d bytes, want %d",
			id, ErrWidthMismatch, len(e.data), width)
	}
	return e.data, nil
}

// Uint8 reads id as a 1-byte scalar.
func (t *Table) Uint8(id uint16) (uint8, error) {
	b, err := t.scalar(id, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads id as a 2-byte scalar.
func (t *Table) Uint16(id uint16) (uint16, error) {
	b, err := t.scalar(id, 2)
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint16(b), nil
}

// Uint32 reads id as a 4-byte scalar.
func (t *Table) Uint32(id uint16) (uint32, error) {
	b, err := t.scalar(id, 4)
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(b), nil
}

// Uint64 reads id as an 8-byte scalar.
func (t *Table) Uint64(id uint16) (uint64, error) {
	b, err := t.scalar(id, 8)
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint64(b), nil
}

// Uint reads id as a scalar of the given width and widens it.
func (t *Table) Uint(id uint16, width uint8) (uint64, error) {
	switch width {
	case 1:
		v, err := t.Uint8(id)
		return uint64(v), err
	case 2:
		v, err := t.Uint16(id)
		return uint64(v), err
	case 4:
		v, err := t.Uint32(id)
		return uint64(v), err
	case 8:
		return t.Uint64(id)
	default:
		return 0, fmt.Errorf("attribute %d: %w: %d", id, ErrInvalidWidth, width)
	}
}

// Nested decodes the payload of id as a table with ids up to maxID.
func (t *Table) Nested(id, maxID uint16) (*Table, error) {
	e, ok := t.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAttributeNotFound, id)
	}
	nt, err := Decode(e.data, maxID)
	if err != nil {
		return nil, fmt.Errorf("attribute %d: %w", id, err)
	}
	return nt, nil
}

// ListEntry is one element of a nested multi-instance list.
type ListEntry struct {
	// Index is the attribute id the element was sent under.
	Index uint16
	Table *Table
}

// List decodes the payload of id as a list of nested elements, each a
// table with ids up to maxID. Elements are returned in wire order.
func (t *Table) List(id, maxID uint16) ([]ListEntry, error) {
	e, ok := t.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAttributeNotFound, id)
	}
	return decodeList(e.data, maxID)
}

func decodeList(b []byte, maxID uint16) ([]ListEntry, error) {
	if err := Validate(b); err != nil {
		return nil, err
	}

	var out []ListEntry
	for i := 0; i < len(b); {
		l := int(binary.NativeEndian.Uint16(b[i : i+2]))
		typ := binary.NativeEndian.Uint16(b[i+2:i+4]) &^ (1<<15 | 1<<14)
		nt, err := Decode(b[i+headerLen:i+l], maxID)
		if err != nil {
			return nil, fmt.Errorf("list element %d: %w", len(out), err)
		}
		out = append(out, ListEntry{Index: typ, Table: nt})
		i += align(l)
	}
	return out, nil
}
