package graph

// Node is one live instance of a template. Input and output slot arrays are
// created fresh per instance; nothing is shared with the template or with
// sibling instances.
type Node struct {
	ID     int
	Schema string
	Class  string
	Pos    [2]float64
	Size   [2]float64

	Inputs  []*Input
	Outputs []*Output

	template *Template
}

// Input is one input slot of a node instance. Exactly one of the three
// value sources is meaningful at a time: a single link, a multi-input link
// list, or a native value.
type Input struct {
	Slot InputSlot

	// Link is the incoming link id for single-input slots; 0 when unlinked
	Link int

	// Links holds incoming link ids for multi-input slots, in arrival order
	Links []int

	// Value is the native value for native slots
	Value interface{}

	// Set records whether Value was explicitly written. A seeded default is
	// not "set": optional unset fields are omitted from built configs while
	// explicitly written false/0 values are preserved.
	Set bool
}

// Output is one output slot of a node instance.
type Output struct {
	Type  string
	Links []int
}

// Link connects an output slot of one node to an input slot of another.
// Links exist only between live nodes and are destroyed atomically with
// either endpoint.
type Link struct {
	ID         int    `json:"id"`
	Origin     int    `json:"origin"`
	OriginSlot int    `json:"origin_slot"`
	Target     int    `json:"target"`
	TargetSlot int    `json:"target_slot"`
	Type       string `json:"type"`
}

// Template returns the template this node was instantiated from.
func (n *Node) Template() *Template {
	return n.template
}

// InputIndex returns the input slot index for a field name, or -1.
func (n *Node) InputIndex(name string) int {
	for i, in := range n.Inputs {
		if in.Slot.Name == name {
			return i
		}
	}
	return -1
}

// SetNative writes a native value to the slot and marks it as set.
// Booleans and numeric zero are valid values and are preserved.
func (n *Node) SetNative(slot int, v interface{}) {
	if slot < 0 || slot >= len(n.Inputs) {
		return
	}
	n.Inputs[slot].Value = v
	n.Inputs[slot].Set = true
}
