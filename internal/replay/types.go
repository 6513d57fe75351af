// Package replay runs scripted TWT scenarios against the full command
// stack with a fake driver.
//
// A scenario is a YAML file listing steps. Each step either runs a
// command line, with the driver replies it should receive, or injects an
// asynchronous vendor event. Expectations cover the return code, the
// reply text, the request attributes sent and the rendered
// notification.
package replay

// Scenario is a single scripted session loaded from YAML.
type Scenario struct {
	// ID is the unique scenario identifier (e.g., "TWT-SETUP-001").
	ID string `yaml:"id"`

	// Name is a human-readable name for the scenario.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// Interface defaults to wlan0.
	Interface string `yaml:"interface,omitempty"`

	// IfIndex is the interface index placed in requests. Defaults to 4.
	IfIndex uint32 `yaml:"ifindex,omitempty"`

	// Capability seeds the async TWT gate: "supported", "unsupported" or
	// "probe". With "probe" the first async command sends a feature
	// probe that consumes the step's first replies.
	Capability string `yaml:"capability,omitempty"`

	// BufferSize is the reply buffer handed to the command handler.
	BufferSize int `yaml:"buffer_size,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step is one action in a scenario.
type Step struct {
	Description string `yaml:"description,omitempty"`

	// Command is a command line such as "twt_session_pause dialog_id 3".
	Command string `yaml:"command,omitempty"`

	// Replies are returned by the fake driver, in order, for this step.
	Replies []Reply `yaml:"replies,omitempty"`

	// Event is injected as an asynchronous vendor event.
	Event *Event `yaml:"event,omitempty"`

	// Invalidate clears the capability verdict before the step runs.
	Invalidate bool `yaml:"invalidate,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Reply is a scripted driver reply.
type Reply struct {
	// Kind is ack, error, finish or data.
	Kind string `yaml:"kind"`

	// Code is the errno of an error reply. Zero means the driver gave none.
	Code int `yaml:"code,omitempty"`

	// Attrs is the payload of a data reply.
	Attrs []Node `yaml:"attrs,omitempty"`

	// Hex is a raw data payload. It takes precedence over Attrs.
	Hex string `yaml:"hex,omitempty"`
}

// Event is a scripted asynchronous vendor event.
type Event struct {
	// VendorID defaults to the QCA OUI.
	VendorID uint32 `yaml:"vendor_id,omitempty"`

	// SubCmd defaults to CONFIG_TWT.
	SubCmd uint32 `yaml:"subcmd,omitempty"`

	Attrs []Node `yaml:"attrs,omitempty"`
	Hex   string `yaml:"hex,omitempty"`
}

// Node is one attribute of a scripted tree. Exactly one of the value
// fields is set; a node with none of them is an empty nest.
type Node struct {
	ID uint16 `yaml:"id"`

	U8   *uint8  `yaml:"u8,omitempty"`
	U16  *uint16 `yaml:"u16,omitempty"`
	U32  *uint32 `yaml:"u32,omitempty"`
	U64  *uint64 `yaml:"u64,omitempty"`
	Flag bool    `yaml:"flag,omitempty"`
	Hex  *string `yaml:"hex,omitempty"`
	Nest []Node  `yaml:"nest,omitempty"`
}

// Expect defines the expected outcome of a step.
type Expect struct {
	// Code is the handler return value: the reply length on success or a
	// negative errno. Only checked for command steps.
	Code *int `yaml:"code,omitempty"`

	// Output is the exact reply or failure text.
	Output *string `yaml:"output,omitempty"`

	// OutputContains is a substring of the reply or failure text.
	OutputContains string `yaml:"output_contains,omitempty"`

	// Requests is the number of requests sent during the step.
	Requests *int `yaml:"requests,omitempty"`

	// Sent checks attributes of the last request sent during the step.
	Sent []Check `yaml:"sent,omitempty"`

	// Notification is the rendered text of the delivered event.
	Notification *string `yaml:"notification,omitempty"`

	// Error is a substring of the event handling error. Empty means the
	// event must be handled without error.
	Error string `yaml:"error,omitempty"`

	// Capability is the gate state after the step.
	Capability string `yaml:"capability,omitempty"`
}

// Check matches one attribute of a sent request. Path lists the ids from
// the top level down; the last id names the attribute itself.
type Check struct {
	Path []uint16 `yaml:"path"`

	U8     *uint8  `yaml:"u8,omitempty"`
	U16    *uint16 `yaml:"u16,omitempty"`
	U32    *uint32 `yaml:"u32,omitempty"`
	U64    *uint64 `yaml:"u64,omitempty"`
	Flag   *bool   `yaml:"flag,omitempty"`
	Absent bool    `yaml:"absent,omitempty"`
}
