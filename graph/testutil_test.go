package graph

import (
	"testing"

	"go.uber.org/zap"

	"github.com/nodecfg/nodecfg/schema"
)

const pipelineSource = `
class Tool:
    type: str
    value: Optional[int]

class Rule:
    name: str
    tools: List[Union[Tool, Index]]

class Wrap:
    tool: Union[Tool, Index]

class App:
    title: str
    debug: Optional[bool]
    tools: Optional[List[Union[Tool, Index]]] = []
    rules: Optional[List[Union[Rule, Index]]] = []
    extras: List[Tool] = []
`

// newTestSchema registers the pipeline fixture schema.
func newTestSchema(t *testing.T) *schema.Schema {
	t.Helper()
	r := schema.NewRegistry(zap.NewNop().Sugar())
	s, err := r.Register("pipeline", pipelineSource, "Index", "App")
	if err != nil {
		t.Fatalf("Failed to register fixture schema: %v", err)
	}
	return s
}

// newTestGraph builds a catalog for the fixture schema and an empty graph.
func newTestGraph(t *testing.T) (*Graph, *schema.Schema) {
	t.Helper()
	s := newTestSchema(t)
	log := zap.NewNop().Sugar()
	catalog := NewCatalog(log)
	catalog.AddSchema(s)
	return NewGraph(catalog, log), s
}

// mustCreate instantiates a node or fails the test.
func mustCreate(t *testing.T, g *Graph, class string) *Node {
	t.Helper()
	n, err := g.CreateNode("pipeline", class)
	if err != nil {
		t.Fatalf("CreateNode(%s) failed: %v", class, err)
	}
	return n
}

// mustConnect wires origin output 0 into target's named slot or fails.
func mustConnect(t *testing.T, g *Graph, origin, target *Node, field string) *Link {
	t.Helper()
	slot := target.InputIndex(field)
	if slot < 0 {
		t.Fatalf("No slot %q on %s", field, target.Class)
	}
	l, err := g.Connect(origin, 0, target, slot)
	if err != nil {
		t.Fatalf("Connect %s -> %s.%s failed: %v", origin.Class, target.Class, field, err)
	}
	return l
}
