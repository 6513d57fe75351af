package replay_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wlanshim/twt-go/internal/replay"
	"github.com/wlanshim/twt-go/pkg/wire"
)

// TestParseScenarioDefaults tests that omitted fields get their defaults.
func TestParseScenarioDefaults(t *testing.T) {
	data := `
id: TWT-TEST-001
name: Defaults
steps:
  - command: twt_get_capability
`
	sc, err := replay.ParseScenario([]byte(data))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}

	if sc.Interface != "wlan0" {
		t.Errorf("Interface: expected wlan0, got %s", sc.Interface)
	}
	if sc.IfIndex != 4 {
		t.Errorf("IfIndex: expected 4, got %d", sc.IfIndex)
	}
	if sc.Capability != "supported" {
		t.Errorf("Capability: expected supported, got %s", sc.Capability)
	}
	if sc.BufferSize != 512 {
		t.Errorf("BufferSize: expected 512, got %d", sc.BufferSize)
	}
}

// TestParseScenarioErrors tests rejection of invalid scenarios.
func TestParseScenarioErrors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":   "id: [",
		"missing id": "steps:\n  - command: twt_get_capability\n",
		"no steps":   "id: X\n",
		"bad capability": `
id: X
capability: maybe
steps:
  - command: twt_get_capability
`,
		"command and event": `
id: X
steps:
  - command: twt_get_capability
    event:
      attrs: [{id: 1, u8: 9}]
`,
		"neither command nor event": `
id: X
steps:
  - description: nothing
`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := replay.ParseScenario([]byte(data))
			var le *replay.LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected LoadError, got %v", err)
			}
		})
	}
}

// TestLoadScenarioSetsFile tests that load errors name the file.
func TestLoadScenarioSetsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("name: no id\nsteps: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := replay.LoadScenario(path)
	var le *replay.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if le.File != path {
		t.Errorf("File: expected %s, got %s", path, le.File)
	}
}

// TestLoadDirectorySkipsOtherFiles tests extension filtering and ordering.
func TestLoadDirectorySkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.yaml":    "id: B\nsteps:\n  - command: twt_get_capability\n",
		"a.yml":     "id: A\nsteps:\n  - command: twt_get_capability\n",
		"notes.txt": "not a scenario",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	scenarios, err := replay.LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(scenarios))
	}
	if scenarios[0].ID != "A" || scenarios[1].ID != "B" {
		t.Errorf("expected scenarios sorted by ID, got %s, %s", scenarios[0].ID, scenarios[1].ID)
	}
}

// TestNodeAttr tests conversion of scripted nodes to wire attributes.
func TestNodeAttr(t *testing.T) {
	u8, u32 := uint8(5), uint32(200)
	mac := "001122334455"
	nodes := []replay.Node{
		{ID: 1, U8: &u8},
		{ID: 2, Nest: []replay.Node{
			{ID: 3, Flag: true},
			{ID: 5, U32: &u32},
			{ID: 17, Hex: &mac},
		}},
		{ID: 4, Nest: []replay.Node{}},
	}

	got, err := replay.Attrs(nodes)
	if err != nil {
		t.Fatalf("Attrs failed: %v", err)
	}
	want := []wire.Attr{
		wire.U8(1, 5),
		wire.Nest(2,
			wire.Flag(3),
			wire.U32(5, 200),
			wire.Raw(17, []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}),
		),
		wire.Nest(4),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d attrs, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].String() != want[i].String() {
			t.Errorf("attr %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

// TestNodeAttrErrors tests that ambiguous or invalid nodes are rejected.
func TestNodeAttrErrors(t *testing.T) {
	u8 := uint8(1)
	bad := "zz"
	for name, n := range map[string]replay.Node{
		"two values": {ID: 1, U8: &u8, Flag: true},
		"bad hex":    {ID: 1, Hex: &bad},
		"bad child":  {ID: 1, Nest: []replay.Node{{ID: 2, Hex: &bad}}},
	} {
		if _, err := n.Attr(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

// TestCheckVerify tests request attribute checks.
func TestCheckVerify(t *testing.T) {
	msg, err := wire.Encode([]wire.Attr{
		wire.U32(196, 143),
		wire.Nest(197,
			wire.U8(1, 3),
			wire.Nest(2, wire.U8(10, 7), wire.Flag(3)),
		),
	})
	if err != nil {
		t.Fatal(err)
	}

	u8, wrong, u32 := uint8(7), uint8(8), uint32(143)
	yes, no := true, false
	tests := []struct {
		name  string
		check replay.Check
		ok    bool
	}{
		{"top scalar", replay.Check{Path: []uint16{196}, U32: &u32}, true},
		{"nested scalar", replay.Check{Path: []uint16{197, 2, 10}, U8: &u8}, true},
		{"wrong value", replay.Check{Path: []uint16{197, 2, 10}, U8: &wrong}, false},
		{"wrong width", replay.Check{Path: []uint16{196}, U8: &u8}, false},
		{"flag set", replay.Check{Path: []uint16{197, 2, 3}, Flag: &yes}, true},
		{"flag clear", replay.Check{Path: []uint16{197, 2, 1}, Flag: &no}, true},
		{"absent", replay.Check{Path: []uint16{195}, Absent: true}, true},
		{"not absent", replay.Check{Path: []uint16{197}, Absent: true}, false},
		{"present", replay.Check{Path: []uint16{197, 1}}, true},
		{"missing", replay.Check{Path: []uint16{197, 9}}, false},
		{"missing parent", replay.Check{Path: []uint16{198, 1}}, false},
		{"empty path", replay.Check{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check.Verify(msg)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}
