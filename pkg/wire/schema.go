package wire

import "fmt"

// Field declares the type of one attribute id.
type Field struct {
	Kind  Kind
	Width uint8 // KindScalar only

	// Nested is the schema of the children for KindNested. When List is
	// set, each child is itself a nested element described by Nested.
	Nested Schema
	List   bool
}

// Schema maps attribute ids to their declared types at one level.
type Schema map[uint16]Field

// MaxID returns the largest declared id.
func (s Schema) MaxID() uint16 {
	var m uint16
	for id := range s {
		if id > m {
			m = id
		}
	}
	return m
}

// ToTree rebuilds an attribute tree from t using the declared schema.
// Ids absent from the schema are reported as ErrUnknownAttribute.
func (t *Table) ToTree(s Schema) ([]Attr, error) {
	var out []Attr
	for _, id := range t.order {
		f, ok := s[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownAttribute, id)
		}
		a, err := t.field(id, f)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (t *Table) field(id uint16, f Field) (Attr, error) {
	switch f.Kind {
	case KindScalar:
		v, err := t.Uint(id, f.Width)
		if err != nil {
			return Attr{}, err
		}
		return Attr{ID: id, Kind: KindScalar, Width: f.Width, Value: v}, nil
	case KindFlag:
		return Flag(id), nil
	case KindBytes:
		b, err := t.Bytes(id)
		if err != nil {
			return Attr{}, err
		}
		return Raw(id, b), nil
	case KindNested:
		if f.List {
			elems, err := t.List(id, f.Nested.MaxID())
			if err != nil {
				return Attr{}, err
			}
			var children []Attr
			for _, el := range elems {
				sub, err := el.Table.ToTree(f.Nested)
				if err != nil {
					return Attr{}, err
				}
				children = append(children, Nest(el.Index, sub...))
			}
			return Nest(id, children...), nil
		}
		nt, err := t.Nested(id, f.Nested.MaxID())
		if err != nil {
			return Attr{}, err
		}
		sub, err := nt.ToTree(f.Nested)
		if err != nil {
			return Attr{}, err
		}
		return Nest(id, sub...), nil
	default:
		return Attr{}, fmt.Errorf("attribute %d: unknown kind %d", id, f.Kind)
	}
}
