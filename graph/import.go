package graph

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/nodecfg/nodecfg/schema"
)

// Importer materializes a nested config document into graph nodes and
// links. The import is best effort: unresolved references and unknown
// classes are reported and skipped, never fatal.
//
// Back-reference indices are deterministic: they are assigned only to nodes
// created by the top-level pass, in sorted-key document order within each
// class. Embedded nodes synthesized for inline objects never participate in
// index numbering.
type Importer struct {
	graph  *Graph
	schema *schema.Schema
	logger *zap.SugaredLogger

	byClass map[string][]*Node
	report  *ImportReport
	col     int
}

// ImportReport accumulates the outcome of one import run.
type ImportReport struct {
	NodesCreated int
	LinksCreated int
	Warnings     []string
}

func (r *ImportReport) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// NewImporter creates a config importer for one schema over one graph.
func NewImporter(g *Graph, s *schema.Schema, log *zap.SugaredLogger) *Importer {
	return &Importer{
		graph:  g,
		schema: s,
		logger: log.Named("graph.importer"),
	}
}

// Import runs the three import passes: top-level instantiation, population,
// and root synthesis. The graph is mutated in place.
func (im *Importer) Import(doc map[string]interface{}) (*ImportReport, error) {
	im.byClass = make(map[string][]*Node)
	im.report = &ImportReport{}
	im.col = 0

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Pass 1: one node per top-level field entry (or array element)
	created := make(map[string][]*Node)
	fragments := make(map[*Node]interface{})
	for _, key := range keys {
		class, ok := im.schema.Mapping.ClassForField(key)
		if !ok {
			// May still be a root-owned native field; resolved in pass 3
			continue
		}
		value := doc[key]
		elements, isArray := value.([]interface{})
		if !isArray {
			elements = []interface{}{value}
		}
		for row, element := range elements {
			n, err := im.graph.CreateNode(im.schema.Name, class)
			if err != nil {
				im.report.warnf("skipping %q entry: %v", key, err)
				im.logger.Warnw("Node creation failed during import",
					"key", key,
					"class", class,
					"error", err,
				)
				continue
			}
			n.Pos = [2]float64{60 + 280*float64(im.col), 100 + 150*float64(row)}
			created[key] = append(created[key], n)
			im.byClass[class] = append(im.byClass[class], n)
			fragments[n] = element
			im.report.NodesCreated++
		}
		im.col++
	}

	// Pass 2: populate fields, resolving integer back-references as links
	// and synthesizing embedded nodes for inline objects
	for _, key := range keys {
		for _, n := range created[key] {
			if frag, ok := fragments[n].(map[string]interface{}); ok {
				im.populate(n, frag)
			}
		}
	}

	// Pass 3: synthesize the root node and wire it to every field group
	if im.schema.RootClass != "" {
		im.synthesizeRoot(doc, keys, created)
	}

	im.logger.Infow("Config imported",
		"schema", im.schema.Name,
		"nodes", im.report.NodesCreated,
		"links", im.report.LinksCreated,
		"warnings", len(im.report.Warnings),
	)
	return im.report, nil
}

// populate writes one document fragment into a node's input slots.
func (im *Importer) populate(n *Node, frag map[string]interface{}) {
	for i, in := range n.Inputs {
		raw, present := frag[in.Slot.Name]
		if !present {
			continue
		}
		im.assign(n, i, raw)
	}
}

// assign routes one field value to the right slot mechanism: native write,
// back-reference link, or embedded node synthesis.
func (im *Importer) assign(n *Node, slot int, raw interface{}) {
	in := n.Inputs[slot]
	if in.Slot.Native {
		// Booleans and numeric zero are valid non-empty values
		n.SetNative(slot, raw)
		return
	}

	switch classify(raw) {
	case valueScalar:
		if idx, ok := asIndex(raw); ok {
			im.linkReference(n, slot, idx)
			return
		}
		im.report.warnf("node %d field %q: scalar %v cannot fill a reference slot", n.ID, in.Slot.Name, raw)
	case valueArray:
		for _, element := range raw.([]interface{}) {
			switch classify(element) {
			case valueScalar:
				if idx, ok := asIndex(element); ok {
					im.linkReference(n, slot, idx)
				} else {
					im.report.warnf("node %d field %q: array element %v is neither index nor object", n.ID, in.Slot.Name, element)
				}
			case valueObject:
				im.embed(n, slot, element.(map[string]interface{}))
			default:
				im.report.warnf("node %d field %q: unsupported array element", n.ID, in.Slot.Name)
			}
		}
	case valueObject:
		im.embed(n, slot, raw.(map[string]interface{}))
	}
}

// linkReference resolves a class-local index against the top-level node
// registry and wires it as a link. Failures leave the slot unconnected.
func (im *Importer) linkReference(n *Node, slot int, idx int) {
	class := im.targetClass(n, slot, nil)
	if class == "" {
		im.report.warnf("node %d field %q: cannot derive reference class", n.ID, n.Inputs[slot].Slot.Name)
		return
	}
	group := im.byClass[class]
	if idx < 0 || idx >= len(group) {
		im.report.warnf("node %d field %q: index %d out of range for class %s", n.ID, n.Inputs[slot].Slot.Name, idx, class)
		im.logger.Warnw("Unresolved back-reference",
			"node_id", n.ID,
			"field", n.Inputs[slot].Slot.Name,
			"index", idx,
			"class", class,
		)
		return
	}
	im.connect(group[idx], n, slot)
}

// embed synthesizes an embedded node for an inline object, populates it
// recursively, then links it. Embedded nodes are positioned beside their
// parent and never join the index registry.
func (im *Importer) embed(n *Node, slot int, obj map[string]interface{}) {
	class := im.targetClass(n, slot, obj)
	if class == "" {
		im.report.warnf("node %d field %q: cannot resolve embedded object class", n.ID, n.Inputs[slot].Slot.Name)
		return
	}
	child, err := im.graph.CreateNode(im.schema.Name, class)
	if err != nil {
		im.report.warnf("node %d field %q: %v", n.ID, n.Inputs[slot].Slot.Name, err)
		return
	}
	child.Pos = [2]float64{n.Pos[0] - 300, n.Pos[1] + 80*float64(slot)}
	im.report.NodesCreated++
	im.populate(child, obj)
	im.connect(child, n, slot)
}

// connect wires origin's output into target's input, recording the report.
func (im *Importer) connect(origin *Node, target *Node, slot int) {
	if _, err := im.graph.Connect(origin, 0, target, slot); err != nil {
		im.report.warnf("node %d field %q: %v", target.ID, target.Inputs[slot].Slot.Name, err)
		return
	}
	im.report.LinksCreated++
}

// targetClass derives the class a reference slot points at from its
// declared graph type, unwrapping Optional/List/Set/Dict layers and
// selecting the Union member that is not the reference type. When that
// fails and an inline object is available, falls back to matching a class
// whose field-name set is a superset of the object's keys.
func (im *Importer) targetClass(n *Node, slot int, obj map[string]interface{}) string {
	declared := schema.ParseType(n.Inputs[slot].Slot.Type)
	if class := im.declaredClass(declared); class != "" {
		return class
	}
	if obj == nil {
		return ""
	}

	// Best-effort structural match; ambiguity is logged, never silent
	var matches []string
	for _, name := range im.schema.Order {
		cls := im.schema.Classes[name]
		names := cls.FieldNames()
		covered := true
		for key := range obj {
			if !names[key] {
				covered = false
				break
			}
		}
		if covered {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return ""
	case 1:
		return matches[0]
	default:
		im.logger.Warnw("Ambiguous embedded object class, using first declared match",
			"node_id", n.ID,
			"field", n.Inputs[slot].Slot.Name,
			"candidates", matches,
		)
		im.report.warnf("node %d field %q: ambiguous embedded class, guessed %s", n.ID, n.Inputs[slot].Slot.Name, matches[0])
		return matches[0]
	}
}

func (im *Importer) declaredClass(t *schema.Type) string {
	u := t.Unwrap()
	switch u.Kind {
	case schema.KindBasic:
		if im.schema.IsModel(u.Name) {
			return u.Name
		}
	case schema.KindList, schema.KindSet, schema.KindTuple:
		return im.declaredClass(u.Elem)
	case schema.KindDict:
		return dictModel(im.schema, u.Inner)
	case schema.KindUnion:
		for _, member := range u.Members {
			if member.String() == im.schema.RefType {
				continue
			}
			if class := im.declaredClass(member); class != "" {
				return class
			}
		}
	}
	return ""
}

// synthesizeRoot creates the root node and connects it to every top-level
// field group. Multi-input fields receive every node in the group;
// single-valued fields connect only the first.
func (im *Importer) synthesizeRoot(doc map[string]interface{}, keys []string, created map[string][]*Node) {
	root, err := im.graph.CreateNode(im.schema.Name, im.schema.RootClass)
	if err != nil {
		im.report.warnf("root synthesis: %v", err)
		return
	}
	root.Pos = [2]float64{60 + 280*float64(im.col), 100}
	im.report.NodesCreated++

	for _, key := range keys {
		slot := root.InputIndex(key)
		if slot < 0 {
			if len(created[key]) > 0 {
				im.report.warnf("root class has no slot for key %q", key)
			}
			continue
		}
		group := created[key]
		if len(group) == 0 {
			if root.Inputs[slot].Slot.Native {
				root.SetNative(slot, doc[key])
			}
			continue
		}
		if root.Inputs[slot].Slot.MultiInput {
			for _, n := range group {
				im.connect(n, root, slot)
			}
		} else {
			im.connect(group[0], root, slot)
		}
	}
}

// asIndex extracts an integer back-reference from a JSON scalar. JSON
// numbers decode as float64; only whole values count as indices.
func asIndex(v interface{}) (int, bool) {
	switch num := v.(type) {
	case int:
		return num, true
	case float64:
		if num == float64(int(num)) {
			return int(num), true
		}
	}
	return 0, false
}
