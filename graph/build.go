package graph

import (
	"go.uber.org/zap"

	"github.com/nodecfg/nodecfg/schema"
)

// Builder turns a populated graph into a nested config document. Nodes of
// the same class become a keyed group; cross-references become class-local
// integer indices assigned in node encounter order, so rebuilding an
// unchanged graph always yields the same document.
type Builder struct {
	graph  *Graph
	schema *schema.Schema
	logger *zap.SugaredLogger
}

// NewBuilder creates a config builder for one schema over one graph.
func NewBuilder(g *Graph, s *schema.Schema, log *zap.SugaredLogger) *Builder {
	return &Builder{
		graph:  g,
		schema: s,
		logger: log.Named("graph.builder"),
	}
}

// Build walks all live nodes belonging to the schema and emits the nested
// document. Same-class list-typed fields serialize as index arrays;
// references to tracked nodes serialize as integers.
func (b *Builder) Build() (map[string]interface{}, error) {
	// Pass 1: partition nodes by class and assign each a zero-based index
	// equal to its encounter order. Index assignment is purely a function
	// of the current node array order.
	indexes := make(map[int]int)
	groups := make(map[string][]*Node)
	var rootNode *Node

	for _, n := range b.graph.Nodes() {
		if n.Schema != b.schema.Name {
			continue
		}
		if b.schema.RootClass != "" && n.Class == b.schema.RootClass {
			if rootNode == nil {
				rootNode = n
			}
			continue
		}
		indexes[n.ID] = len(groups[n.Class])
		groups[n.Class] = append(groups[n.Class], n)
	}

	doc := make(map[string]interface{})

	// Pass 2: evaluate and rewrite each class group, keyed through the
	// field-mapping table
	for _, class := range b.schema.Order {
		nodes := groups[class]
		if len(nodes) == 0 {
			continue
		}
		key := b.schema.Mapping.FieldForClass(class)
		entries := make([]interface{}, 0, len(nodes))
		for _, n := range nodes {
			entries = append(entries, b.evaluate(n, indexes))
		}
		if b.rootFieldIsList(key) {
			doc[key] = entries
		} else {
			doc[key] = entries[0]
		}
	}

	// Root-owned native fields appear as top-level scalars
	if rootNode != nil {
		for _, in := range rootNode.Inputs {
			if !in.Slot.Native {
				continue
			}
			if v, ok := b.nativeValue(in, indexes); ok {
				doc[in.Slot.Name] = v
			}
		}
	}

	b.logger.Debugw("Config built",
		"schema", b.schema.Name,
		"classes", len(groups),
		"keys", len(doc),
	)
	return doc, nil
}

// evaluate re-evaluates one node: every connected input pulls its upstream
// node, every native input falls back to its stored value honoring
// optionality. The result is rewritten so node references become indices.
func (b *Builder) evaluate(n *Node, indexes map[int]int) map[string]interface{} {
	values := make(map[string]interface{}, len(n.Inputs))
	for _, in := range n.Inputs {
		if in.Slot.MultiInput {
			if len(in.Links) == 0 {
				continue
			}
			upstream := make([]interface{}, 0, len(in.Links))
			for _, id := range in.Links {
				if origin := b.originOf(id); origin != nil {
					upstream = append(upstream, origin)
				}
			}
			if v, ok := b.rewrite(upstream, indexes); ok {
				values[in.Slot.Name] = v
			}
			continue
		}
		if in.Link != 0 {
			if origin := b.originOf(in.Link); origin != nil {
				if v, ok := b.rewrite(origin, indexes); ok {
					values[in.Slot.Name] = v
				}
			}
			continue
		}
		if in.Slot.Native {
			if v, ok := b.nativeValue(in, indexes); ok {
				values[in.Slot.Name] = v
			}
		}
	}
	return values
}

// nativeValue resolves a native slot honoring optionality: an unset
// optional field is omitted entirely; an unset required field coerces to
// the type's zero value (the seeded default). Explicitly set false and 0
// are valid values and survive.
func (b *Builder) nativeValue(in *Input, indexes map[int]int) (interface{}, bool) {
	if !in.Set && in.Slot.Optional {
		return nil, false
	}
	return b.rewrite(in.Value, indexes)
}

// rewrite recursively replaces tracked node references with their
// class-local index, walks plain collections element-wise, and parses
// JSON-looking native strings back into structured data. The boolean is
// false when the value resolves to nothing (untracked node reference).
func (b *Builder) rewrite(v interface{}, indexes map[int]int) (interface{}, bool) {
	switch classify(v) {
	case valueNodeRef:
		n := v.(*Node)
		if idx, ok := indexes[n.ID]; ok {
			return idx, true
		}
		b.logger.Warnw("Reference to untracked node dropped",
			"node_id", n.ID,
			"class", n.Class,
		)
		return nil, false
	case valueArray:
		arr := v.([]interface{})
		out := make([]interface{}, 0, len(arr))
		for _, el := range arr {
			if rewritten, ok := b.rewrite(el, indexes); ok {
				out = append(out, rewritten)
			}
		}
		return out, true
	case valueObject:
		obj := v.(map[string]interface{})
		out := make(map[string]interface{}, len(obj))
		for k, el := range obj {
			if rewritten, ok := b.rewrite(el, indexes); ok {
				out[k] = rewritten
			}
		}
		return out, true
	default:
		if s, ok := v.(string); ok {
			if parsed, ok := parseJSONish(s); ok {
				return b.rewrite(parsed, indexes)
			}
		}
		return v, true
	}
}

// originOf returns the origin node of a link id, or nil.
func (b *Builder) originOf(linkID int) *Node {
	l := b.graph.Link(linkID)
	if l == nil {
		return nil
	}
	return b.graph.NodeByID(l.Origin)
}

// rootFieldIsList reports whether the root class declares the document key
// as a collection. Groups default to arrays when no root class is
// designated or the key is not a root field.
func (b *Builder) rootFieldIsList(key string) bool {
	root, ok := b.schema.Class(b.schema.RootClass)
	if !ok {
		return true
	}
	f, ok := root.Field(key)
	if !ok {
		return true
	}
	u := f.Type.Unwrap()
	switch u.Kind {
	case schema.KindList, schema.KindSet, schema.KindTuple:
		return true
	}
	return false
}
