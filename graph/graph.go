package graph

import (
	"sort"

	"go.uber.org/zap"

	"github.com/nodecfg/nodecfg/errors"
	"github.com/nodecfg/nodecfg/schema"
)

// Graph owns the live node and link collections plus the id counters. All
// state is explicit and per-instance; there are no process-wide registries.
//
// The graph is single-writer: operations run to completion on the calling
// goroutine and the host owns all entry points. Node and link ids increase
// monotonically per instance and are never reused, even across deletion, so
// externally cached ids can never silently alias a newer object.
type Graph struct {
	catalog *Catalog
	nodes   []*Node
	links   map[int]*Link

	nextNodeID int
	nextLinkID int

	logger *zap.SugaredLogger
}

// NewGraph creates an empty graph drawing templates from the catalog.
func NewGraph(catalog *Catalog, log *zap.SugaredLogger) *Graph {
	return &Graph{
		catalog: catalog,
		links:   make(map[int]*Link),
		logger:  log.Named("graph"),
	}
}

// Catalog returns the template catalog backing this graph.
func (g *Graph) Catalog() *Catalog {
	return g.catalog
}

// CreateNode instantiates the (schemaName, class) template. Each call
// produces fresh input/output slot arrays with seeded native defaults.
func (g *Graph) CreateNode(schemaName, class string) (*Node, error) {
	t, ok := g.catalog.Get(schemaName, class)
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownClass, "no template for %s.%s", schemaName, class)
	}

	g.nextNodeID++
	n := &Node{
		ID:       g.nextNodeID,
		Schema:   t.Schema,
		Class:    t.Class,
		Size:     [2]float64{200, 60},
		template: t,
		Inputs:   make([]*Input, 0, len(t.Inputs)),
		Outputs:  []*Output{{Type: t.OutputType}},
	}
	for _, slot := range t.Inputs {
		n.Inputs = append(n.Inputs, &Input{Slot: slot, Value: slot.Default})
	}
	g.nodes = append(g.nodes, n)
	return n, nil
}

// RemoveNode destroys a node and every link touching it.
func (g *Graph) RemoveNode(n *Node) {
	for id, l := range g.links {
		if l.Origin == n.ID || l.Target == n.ID {
			g.RemoveLink(id)
		}
	}
	for i, candidate := range g.nodes {
		if candidate == n {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
}

// Connect links an output slot of origin to an input slot of target. The
// type compatibility checker gates the connection; on mismatch the link is
// not created and ErrTypeMismatch is returned. Connecting to an occupied
// single-input slot replaces the existing link; multi-input slots append.
func (g *Graph) Connect(origin *Node, originSlot int, target *Node, targetSlot int) (*Link, error) {
	if origin == nil || target == nil {
		return nil, errors.NewInvalidRequestError("connect requires two nodes")
	}
	if originSlot < 0 || originSlot >= len(origin.Outputs) {
		return nil, errors.NewInvalidRequestError("origin slot %d out of range on node %d", originSlot, origin.ID)
	}
	if targetSlot < 0 || targetSlot >= len(target.Inputs) {
		return nil, errors.NewInvalidRequestError("target slot %d out of range on node %d", targetSlot, target.ID)
	}

	outType := origin.Outputs[originSlot].Type
	in := target.Inputs[targetSlot]
	if !schema.Compatible(outType, in.Slot.Type) {
		return nil, errors.Wrapf(errors.ErrTypeMismatch, "%s does not fit slot %q (%s)", outType, in.Slot.Name, in.Slot.Type)
	}

	if !in.Slot.MultiInput && in.Link != 0 {
		g.RemoveLink(in.Link)
	}

	g.nextLinkID++
	l := &Link{
		ID:         g.nextLinkID,
		Origin:     origin.ID,
		OriginSlot: originSlot,
		Target:     target.ID,
		TargetSlot: targetSlot,
		Type:       outType,
	}
	g.links[l.ID] = l
	origin.Outputs[originSlot].Links = append(origin.Outputs[originSlot].Links, l.ID)
	if in.Slot.MultiInput {
		in.Links = append(in.Links, l.ID)
	} else {
		in.Link = l.ID
	}
	return l, nil
}

// RemoveLink destroys a link and detaches it from both endpoints.
func (g *Graph) RemoveLink(id int) {
	l, ok := g.links[id]
	if !ok {
		return
	}
	delete(g.links, id)

	if origin := g.NodeByID(l.Origin); origin != nil && l.OriginSlot < len(origin.Outputs) {
		origin.Outputs[l.OriginSlot].Links = removeID(origin.Outputs[l.OriginSlot].Links, id)
	}
	if target := g.NodeByID(l.Target); target != nil && l.TargetSlot < len(target.Inputs) {
		in := target.Inputs[l.TargetSlot]
		if in.Link == id {
			in.Link = 0
		}
		in.Links = removeID(in.Links, id)
	}
}

// NodeByID returns the live node with the given id, or nil.
func (g *Graph) NodeByID(id int) *Node {
	for _, n := range g.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Nodes returns the live nodes in creation order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Link returns the link with the given id, or nil.
func (g *Graph) Link(id int) *Link {
	return g.links[id]
}

// LinkList returns all links sorted by id.
func (g *Graph) LinkList() []*Link {
	out := make([]*Link, 0, len(g.links))
	for _, l := range g.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear removes every node and link. Id counters are not reset: ids from a
// cleared graph never reappear within this instance's lifetime.
func (g *Graph) Clear() {
	g.nodes = nil
	g.links = make(map[int]*Link)
}

func removeID(ids []int, id int) []int {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
