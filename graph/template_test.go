package graph

import (
	"testing"

	"go.uber.org/zap"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	s := newTestSchema(t)
	c := NewCatalog(zap.NewNop().Sugar())
	c.AddSchema(s)
	return c
}

func TestTemplatePerClass(t *testing.T) {
	c := testCatalog(t)

	for _, class := range []string{"Tool", "Rule", "Wrap", "App"} {
		tmpl, ok := c.Get("pipeline", class)
		if !ok {
			t.Fatalf("no template for %s", class)
		}
		if tmpl.OutputType != class {
			t.Errorf("%s output type = %q", class, tmpl.OutputType)
		}
	}
	if _, ok := c.Get("pipeline", "Nope"); ok {
		t.Error("unknown class returned a template")
	}
}

func TestTemplateNativeSlots(t *testing.T) {
	c := testCatalog(t)
	tmpl, _ := c.Get("pipeline", "Tool")

	typ := tmpl.Inputs[0]
	if !typ.Native || typ.Type != "str" || typ.Default != "" {
		t.Errorf("Tool.type slot = %+v", typ)
	}
	if typ.Optional || typ.MultiInput {
		t.Errorf("Tool.type should be a plain required native slot: %+v", typ)
	}

	value := tmpl.Inputs[1]
	if !value.Native || !value.Optional || value.Default != 0 {
		t.Errorf("Tool.value slot = %+v", value)
	}
}

func TestTemplateReferenceUnionCollapses(t *testing.T) {
	c := testCatalog(t)

	// Single reference: Union[Tool, Index] types the slot as Tool so Tool
	// outputs pass the compatibility gate
	wrap, _ := c.Get("pipeline", "Wrap")
	slot := wrap.Inputs[0]
	if slot.Type != "Tool" {
		t.Errorf("Wrap.tool type = %q, want Tool", slot.Type)
	}
	if slot.MultiInput || slot.Native {
		t.Errorf("Wrap.tool should be a single reference slot: %+v", slot)
	}

	// Collection of references is multi-input
	rule, _ := c.Get("pipeline", "Rule")
	tools := rule.Inputs[1]
	if tools.Type != "Tool" || !tools.MultiInput {
		t.Errorf("Rule.tools slot = %+v", tools)
	}
}

func TestTemplateRootPlainListIsMultiInput(t *testing.T) {
	c := testCatalog(t)
	app, _ := c.Get("pipeline", "App")

	extras := app.Inputs[len(app.Inputs)-1]
	if extras.Name != "extras" {
		t.Fatalf("unexpected slot order: %+v", app.Inputs)
	}
	if !extras.MultiInput || extras.Type != "Tool" {
		t.Errorf("root plain list slot = %+v", extras)
	}

	tools := app.Inputs[2]
	if tools.Name != "tools" || !tools.MultiInput || !tools.Optional {
		t.Errorf("App.tools slot = %+v", tools)
	}
}

func TestInstancesShareNoState(t *testing.T) {
	g, _ := newTestGraph(t)

	a := mustCreate(t, g, "Tool")
	b := mustCreate(t, g, "Tool")
	if a.ID == b.ID {
		t.Fatal("node ids must be unique")
	}

	a.SetNative(0, "shell")
	if b.Inputs[0].Value != "" || b.Inputs[0].Set {
		t.Errorf("sibling instance saw mutation: %+v", b.Inputs[0])
	}

	// Templates stay pristine
	tmpl := a.Template()
	if tmpl.Inputs[0].Default != "" {
		t.Errorf("template default mutated: %v", tmpl.Inputs[0].Default)
	}
}

func TestAddSchemaReplacesTemplates(t *testing.T) {
	s := newTestSchema(t)
	c := NewCatalog(zap.NewNop().Sugar())
	c.AddSchema(s)
	c.AddSchema(s)

	count := 0
	for _, tmpl := range c.Templates() {
		if tmpl.Schema == "pipeline" {
			count++
		}
	}
	if count != 4 {
		t.Errorf("expected 4 templates after re-add, got %d", count)
	}

	c.RemoveSchema("pipeline")
	if len(c.Templates()) != 0 {
		t.Error("RemoveSchema left templates behind")
	}
}
