package graph

import (
	"time"
)

// Document is the serialized graph exchanged with editor clients. It is
// plain JSON: nodes carry identity, class, geometry, and explicitly set
// native values; links carry endpoint ids and slots.
type Document struct {
	Nodes []NodeState `json:"nodes"`
	Links []LinkState `json:"links"`
	Meta  Meta        `json:"meta"`
}

// NodeState is the serialized form of one node.
type NodeState struct {
	ID     int                    `json:"id"`
	Schema string                 `json:"schema"`
	Class  string                 `json:"class"`
	Pos    [2]float64             `json:"pos"`
	Size   [2]float64             `json:"size"`
	Values map[string]interface{} `json:"values,omitempty"`
}

// LinkState is the serialized form of one link.
type LinkState struct {
	ID         int    `json:"id"`
	Origin     int    `json:"origin"`
	OriginSlot int    `json:"origin_slot"`
	Target     int    `json:"target"`
	TargetSlot int    `json:"target_slot"`
	Type       string `json:"type"`
}

// Meta carries document metadata.
type Meta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Stats       Stats     `json:"stats"`
}

// Stats provides graph statistics.
type Stats struct {
	TotalNodes int `json:"total_nodes"`
	TotalLinks int `json:"total_links"`
}

// Serialize captures the graph as a document.
func (g *Graph) Serialize() *Document {
	doc := &Document{
		Nodes: make([]NodeState, 0, len(g.nodes)),
		Links: make([]LinkState, 0, len(g.links)),
		Meta: Meta{
			GeneratedAt: time.Now(),
			Stats: Stats{
				TotalNodes: len(g.nodes),
				TotalLinks: len(g.links),
			},
		},
	}

	for _, n := range g.nodes {
		state := NodeState{
			ID:     n.ID,
			Schema: n.Schema,
			Class:  n.Class,
			Pos:    n.Pos,
			Size:   n.Size,
		}
		for _, in := range n.Inputs {
			if in.Slot.Native && in.Set {
				if state.Values == nil {
					state.Values = make(map[string]interface{})
				}
				state.Values[in.Slot.Name] = in.Value
			}
		}
		doc.Nodes = append(doc.Nodes, state)
	}

	for _, l := range g.LinkList() {
		doc.Links = append(doc.Links, LinkState{
			ID:         l.ID,
			Origin:     l.Origin,
			OriginSlot: l.OriginSlot,
			Target:     l.Target,
			TargetSlot: l.TargetSlot,
			Type:       l.Type,
		})
	}

	return doc
}

// Deserialize restores a document into the graph, replacing its current
// contents. A node referencing a class absent from the loaded templates is
// skipped and its would-be links are not created; restoration continues.
// Id counters advance past the restored maximum so restored ids are never
// reissued.
func (g *Graph) Deserialize(doc *Document) *ImportReport {
	report := &ImportReport{}
	g.Clear()

	restored := make(map[int]*Node, len(doc.Nodes))
	for _, state := range doc.Nodes {
		t, ok := g.catalog.Get(state.Schema, state.Class)
		if !ok {
			report.warnf("skipping node %d: unknown class %s.%s", state.ID, state.Schema, state.Class)
			g.logger.Warnw("Unknown node class in document",
				"node_id", state.ID,
				"schema", state.Schema,
				"class", state.Class,
			)
			continue
		}

		n := &Node{
			ID:       state.ID,
			Schema:   t.Schema,
			Class:    t.Class,
			Pos:      state.Pos,
			Size:     state.Size,
			template: t,
			Inputs:   make([]*Input, 0, len(t.Inputs)),
			Outputs:  []*Output{{Type: t.OutputType}},
		}
		for _, slot := range t.Inputs {
			n.Inputs = append(n.Inputs, &Input{Slot: slot, Value: slot.Default})
		}
		for i, in := range n.Inputs {
			if v, ok := state.Values[in.Slot.Name]; ok {
				n.SetNative(i, v)
			}
		}
		g.nodes = append(g.nodes, n)
		restored[n.ID] = n
		if state.ID > g.nextNodeID {
			g.nextNodeID = state.ID
		}
		report.NodesCreated++
	}

	for _, state := range doc.Links {
		origin, target := restored[state.Origin], restored[state.Target]
		if origin == nil || target == nil {
			report.warnf("skipping link %d: missing endpoint", state.ID)
			continue
		}
		if state.OriginSlot < 0 || state.OriginSlot >= len(origin.Outputs) ||
			state.TargetSlot < 0 || state.TargetSlot >= len(target.Inputs) {
			report.warnf("skipping link %d: slot out of range", state.ID)
			continue
		}

		l := &Link{
			ID:         state.ID,
			Origin:     state.Origin,
			OriginSlot: state.OriginSlot,
			Target:     state.Target,
			TargetSlot: state.TargetSlot,
			Type:       state.Type,
		}
		g.links[l.ID] = l
		origin.Outputs[l.OriginSlot].Links = append(origin.Outputs[l.OriginSlot].Links, l.ID)
		in := target.Inputs[l.TargetSlot]
		if in.Slot.MultiInput {
			in.Links = append(in.Links, l.ID)
		} else {
			in.Link = l.ID
		}
		if state.ID > g.nextLinkID {
			g.nextLinkID = state.ID
		}
		report.LinksCreated++
	}

	return report
}
