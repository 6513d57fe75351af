package replay

import (
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wlanshim/twt-go/pkg/wire"
)

// LoadError reports a scenario that could not be loaded.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseScenario parses a scenario from YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	if sc.ID == "" {
		return nil, &LoadError{Message: "scenario ID is required"}
	}
	if len(sc.Steps) == 0 {
		return nil, &LoadError{Message: "scenario must have at least one step"}
	}
	switch sc.Capability {
	case "", "supported", "unsupported", "probe":
	default:
		return nil, &LoadError{Message: fmt.Sprintf("invalid capability %q", sc.Capability)}
	}
	for i, st := range sc.Steps {
		if (st.Command == "") == (st.Event == nil) {
			return nil, &LoadError{Message: fmt.Sprintf("step %d: exactly one of command or event is required", i+1)}
		}
	}

	if sc.Interface == "" {
		sc.Interface = "wlan0"
	}
	if sc.IfIndex == 0 {
		sc.IfIndex = 4
	}
	if sc.Capability == "" {
		sc.Capability = "supported"
	}
	if sc.BufferSize == 0 {
		sc.BufferSize = 512
	}
	return &sc, nil
}

// LoadScenario loads a scenario from a file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	sc, err := ParseScenario(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return sc, nil
}

// LoadDirectory loads all scenarios from a directory, sorted by ID.
// Only files with .yaml or .yml extensions are loaded.
func LoadDirectory(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{File: dir, Message: "failed to read directory", Cause: err}
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		sc, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}

	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })
	return scenarios, nil
}

// Attr converts the node to a wire attribute.
func (n Node) Attr() (wire.Attr, error) {
	set := 0
	for _, ok := range []bool{n.U8 != nil, n.U16 != nil, n.U32 != nil, n.U64 != nil, n.Flag, n.Hex != nil, n.Nest != nil} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return wire.Attr{}, fmt.Errorf("attribute %d: more than one value", n.ID)
	}

	switch {
	case n.U8 != nil:
		return wire.U8(n.ID, *n.U8), nil
	case n.U16 != nil:
		return wire.U16(n.ID, *n.U16), nil
	case n.U32 != nil:
		return wire.U32(n.ID, *n.U32), nil
	case n.U64 != nil:
		return wire.U64(n.ID, *n.U64), nil
	case n.Flag:
		return wire.Flag(n.ID), nil
	case n.Hex != nil:
		b, err := hex.DecodeString(*n.Hex)
		if err != nil {
			return wire.Attr{}, fmt.Errorf("attribute %d: %w", n.ID, err)
		}
		return wire.Raw(n.ID, b), nil
	default:
		children, err := Attrs(n.Nest)
		if err != nil {
			return wire.Attr{}, fmt.Errorf("attribute %d: %w", n.ID, err)
		}
		return wire.Nest(n.ID, children...), nil
	}
}

// Attrs converts a list of nodes to wire attributes.
func Attrs(nodes []Node) ([]wire.Attr, error) {
	out := make([]wire.Attr, 0, len(nodes))
	for _, n := range nodes {
		a, err := n.Attr()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// payload returns the encoded bytes of a scripted reply or event.
func payload(rawHex string, nodes []Node) ([]byte, error) {
	if rawHex != "" {
		return hex.DecodeString(strings.Join(strings.Fields(rawHex), ""))
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	attrs, err := Attrs(nodes)
	if err != nil {
		return nil, err
	}
	return wire.Encode(attrs)
}

// Verify matches the check against an encoded request.
func (c Check) Verify(msg []byte) error {
	if len(c.Path) == 0 {
		return fmt.Errorf("check has an empty path")
	}

	t, err := wire.Decode(msg, math.MaxUint16)
	if err != nil {
		return err
	}
	for _, id := range c.Path[:len(c.Path)-1] {
		if t, err = t.Nested(id, math.MaxUint16); err != nil {
			return fmt.Errorf("path %v: %w", c.Path, err)
		}
	}
	id := c.Path[len(c.Path)-1]

	if c.Absent {
		if t.Has(id) {
			return fmt.Errorf("path %v: present, want absent", c.Path)
		}
		return nil
	}

	var got, want uint64
	switch {
	case c.Flag != nil:
		if t.Flag(id) != *c.Flag {
			return fmt.Errorf("path %v: flag %t, want %t", c.Path, t.Flag(id), *c.Flag)
		}
		return nil
	case c.U8 != nil:
		want = uint64(*c.U8)
		got, err = t.Uint(id, 1)
	case c.U16 != nil:
		want = uint64(*c.U16)
		got, err = t.Uint(id, 2)
	case c.U32 != nil:
		want = uint64(*c.U32)
		got, err = t.Uint(id, 4)
	case c.U64 != nil:
		want = *c.U64
		got, err = t.Uint(id, 8)
	default:
		if !t.Has(id) {
			return fmt.Errorf("path %v: absent", c.Path)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("path %v: %w", c.Path, err)
	}
	if got != want {
		return fmt.Errorf("path %v: got %d, want %d", c.Path, got, want)
	}
	return nil
}
