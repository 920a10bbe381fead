package graph

import (
	"testing"

	"github.com/nodecfg/nodecfg/errors"
)

func TestConnectTypeGate(t *testing.T) {
	g, _ := newTestGraph(t)
	tool := mustCreate(t, g, "Tool")
	rule := mustCreate(t, g, "Rule")

	// Tool output fits the Tool-typed multi slot
	l := mustConnect(t, g, tool, rule, "tools")
	if l.Type != "Tool" {
		t.Errorf("link type = %q", l.Type)
	}

	// Tool output does not fit the native str slot
	_, err := g.Connect(tool, 0, rule, rule.InputIndex("name"))
	if !errors.Is(err, errors.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	if len(g.LinkList()) != 1 {
		t.Errorf("rejected connection created a link: %d links", len(g.LinkList()))
	}

	// Rule output does not fit a Tool slot
	wrap := mustCreate(t, g, "Wrap")
	if _, err := g.Connect(rule, 0, wrap, 0); !errors.Is(err, errors.ErrTypeMismatch) {
		t.Errorf("Rule -> Wrap.tool should mismatch, got %v", err)
	}
}

func TestConnectSingleInputReplaces(t *testing.T) {
	g, _ := newTestGraph(t)
	a := mustCreate(t, g, "Tool")
	b := mustCreate(t, g, "Tool")
	wrap := mustCreate(t, g, "Wrap")

	first := mustConnect(t, g, a, wrap, "tool")
	second := mustConnect(t, g, b, wrap, "tool")

	if g.Link(first.ID) != nil {
		t.Error("replaced link still present")
	}
	if wrap.Inputs[0].Link != second.ID {
		t.Errorf("slot holds link %d, want %d", wrap.Inputs[0].Link, second.ID)
	}
	if len(a.Outputs[0].Links) != 0 {
		t.Errorf("old origin still references link: %v", a.Outputs[0].Links)
	}
}

func TestConnectMultiInputAppends(t *testing.T) {
	g, _ := newTestGraph(t)
	a := mustCreate(t, g, "Tool")
	b := mustCreate(t, g, "Tool")
	rule := mustCreate(t, g, "Rule")

	l1 := mustConnect(t, g, a, rule, "tools")
	l2 := mustConnect(t, g, b, rule, "tools")

	slot := rule.InputIndex("tools")
	links := rule.Inputs[slot].Links
	if len(links) != 2 || links[0] != l1.ID || links[1] != l2.ID {
		t.Errorf("multi slot links = %v", links)
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	g, _ := newTestGraph(t)
	tool := mustCreate(t, g, "Tool")
	rule := mustCreate(t, g, "Rule")
	app := mustCreate(t, g, "App")

	mustConnect(t, g, tool, rule, "tools")
	mustConnect(t, g, rule, app, "rules")
	mustConnect(t, g, tool, app, "tools")

	g.RemoveNode(tool)

	if g.NodeByID(tool.ID) != nil {
		t.Error("removed node still reachable")
	}
	if len(g.LinkList()) != 1 {
		t.Fatalf("expected 1 surviving link, got %d", len(g.LinkList()))
	}
	survivor := g.LinkList()[0]
	if survivor.Origin != rule.ID || survivor.Target != app.ID {
		t.Errorf("wrong surviving link: %+v", survivor)
	}
	// Detached endpoints hold no dangling ids
	if n := len(rule.Inputs[rule.InputIndex("tools")].Links); n != 0 {
		t.Errorf("rule retains %d dangling links", n)
	}
}

func TestIDsNeverReused(t *testing.T) {
	g, _ := newTestGraph(t)
	a := mustCreate(t, g, "Tool")
	wrap := mustCreate(t, g, "Wrap")
	l := mustConnect(t, g, a, wrap, "tool")

	seenNode, seenLink := wrap.ID, l.ID
	g.RemoveNode(a)
	g.RemoveNode(wrap)

	b := mustCreate(t, g, "Tool")
	wrap2 := mustCreate(t, g, "Wrap")
	l2 := mustConnect(t, g, b, wrap2, "tool")

	if b.ID <= seenNode || wrap2.ID <= seenNode {
		t.Errorf("node ids reused: %d %d after %d", b.ID, wrap2.ID, seenNode)
	}
	if l2.ID <= seenLink {
		t.Errorf("link id reused: %d after %d", l2.ID, seenLink)
	}
}

func TestClearKeepsCounters(t *testing.T) {
	g, _ := newTestGraph(t)
	a := mustCreate(t, g, "Tool")
	g.Clear()

	if len(g.Nodes()) != 0 || len(g.LinkList()) != 0 {
		t.Fatal("Clear left state behind")
	}
	b := mustCreate(t, g, "Tool")
	if b.ID <= a.ID {
		t.Errorf("id %d reissued after Clear (previous %d)", b.ID, a.ID)
	}
}

func TestCreateNodeUnknownClass(t *testing.T) {
	g, _ := newTestGraph(t)
	if _, err := g.CreateNode("pipeline", "Missing"); !errors.Is(err, errors.ErrUnknownClass) {
		t.Errorf("expected unknown class error, got %v", err)
	}
	if _, err := g.CreateNode("nope", "Tool"); err == nil {
		t.Error("unknown schema accepted")
	}
}
