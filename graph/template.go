package graph

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nodecfg/nodecfg/schema"
)

// InputSlot describes one typed input of a node template.
type InputSlot struct {
	Name string `json:"name"`
	Type string `json:"type"` // resolved graph type string

	// Optional mirrors whether the declared field type was Optional[...]
	Optional bool `json:"optional,omitempty"`

	// MultiInput marks collection-of-references fields that accept more
	// than one incoming link
	MultiInput bool `json:"multi_input,omitempty"`

	// Native marks directly-edited primitive (or primitive-collection)
	// fields stored on the node rather than supplied via a link
	Native bool `json:"native,omitempty"`

	// Default is the seeded value for native slots
	Default interface{} `json:"default,omitempty"`
}

// Template is the reusable typed slot layout derived from one schema class:
// an output slot typed as the class and one input slot per field, in
// declaration order. Templates are data; instantiation never shares mutable
// state between node instances.
type Template struct {
	Schema     string      `json:"schema"`
	Class      string      `json:"class"`
	OutputType string      `json:"output_type"`
	Inputs     []InputSlot `json:"inputs"`
}

// TemplateKey identifies a template by (schema, class).
type TemplateKey struct {
	Schema string
	Class  string
}

// Catalog is the explicit registry mapping (schema, class) keys to node
// templates. It replaces any string-keyed dynamic dispatch: templates are
// built once per schema registration and looked up by tagged key.
type Catalog struct {
	templates map[TemplateKey]*Template
	logger    *zap.SugaredLogger
}

// NewCatalog creates an empty template catalog.
func NewCatalog(log *zap.SugaredLogger) *Catalog {
	return &Catalog{
		templates: make(map[TemplateKey]*Template),
		logger:    log.Named("graph.catalog"),
	}
}

// AddSchema derives and registers one template per class of the schema,
// replacing any previous templates for the same schema name.
func (c *Catalog) AddSchema(s *schema.Schema) {
	c.RemoveSchema(s.Name)
	for _, name := range s.Order {
		cls := s.Classes[name]
		t := buildTemplate(s, cls)
		c.templates[TemplateKey{Schema: s.Name, Class: cls.Name}] = t
	}
	c.logger.Debugw("Templates generated",
		"schema", s.Name,
		"count", len(s.Order),
	)
}

// RemoveSchema drops every template belonging to the named schema.
func (c *Catalog) RemoveSchema(name string) {
	for key := range c.templates {
		if key.Schema == name {
			delete(c.templates, key)
		}
	}
}

// Get returns the template for (schemaName, class).
func (c *Catalog) Get(schemaName, class string) (*Template, bool) {
	t, ok := c.templates[TemplateKey{Schema: schemaName, Class: class}]
	return t, ok
}

// Templates returns all registered templates sorted by schema then class.
func (c *Catalog) Templates() []*Template {
	out := make([]*Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Schema != out[j].Schema {
			return out[i].Schema < out[j].Schema
		}
		return out[i].Class < out[j].Class
	})
	return out
}

// buildTemplate derives the slot layout for one class.
func buildTemplate(s *schema.Schema, cls *schema.Class) *Template {
	isRoot := cls.Name == s.RootClass
	t := &Template{
		Schema:     s.Name,
		Class:      cls.Name,
		OutputType: cls.Name,
		Inputs:     make([]InputSlot, 0, len(cls.Fields)),
	}
	for _, f := range cls.Fields {
		t.Inputs = append(t.Inputs, resolveSlot(s, f, isRoot))
	}
	return t
}

// resolveSlot computes the graph-facing typing of one field.
func resolveSlot(s *schema.Schema, f schema.Field, isRoot bool) InputSlot {
	u := f.Type.Unwrap()
	slot := InputSlot{
		Name:       f.Name,
		Optional:   f.Type.Kind == schema.KindOptional,
		MultiInput: isMultiInput(s, u, isRoot),
	}

	if model := referenceModel(s, u, isRoot); model != "" {
		// Reference-typed fields connect by link; the slot is typed as the
		// model so outputs of that class are compatible
		slot.Type = model
		return slot
	}

	slot.Type = renderResolved(s, u)
	base := baseTypeName(s, u)
	if native, def := nativeDefault(base, u); native {
		slot.Native = true
		slot.Default = def
	}
	return slot
}

// isMultiInput classifies fan-in collection fields: a List/Set/Tuple of a
// Union, a Dict whose value unions in a model, or (on the root class only)
// any plain List, since the root aggregates same-class collections.
func isMultiInput(s *schema.Schema, u *schema.Type, isRoot bool) bool {
	switch u.Kind {
	case schema.KindList, schema.KindSet, schema.KindTuple:
		if u.Elem != nil && u.Elem.Kind == schema.KindUnion {
			return true
		}
		if isRoot && u.Kind == schema.KindList {
			return true
		}
	case schema.KindDict:
		return dictModel(s, u.Inner) != ""
	}
	return false
}

// referenceModel resolves the model a reference-typed field points at, or ""
// when the field is not a reference field. A two-member Union of
// {refType, model} collapses to the model: in the graph the reference member
// is represented as a link, not a value.
func referenceModel(s *schema.Schema, u *schema.Type, isRoot bool) string {
	switch u.Kind {
	case schema.KindBasic:
		if s.IsModel(u.Name) {
			return u.Name
		}
	case schema.KindUnion:
		if m := collapseUnion(s, u); m != "" {
			return m
		}
	case schema.KindList, schema.KindSet, schema.KindTuple:
		if u.Elem != nil && u.Elem.Kind == schema.KindUnion {
			return collapseUnion(s, u.Elem)
		}
		if isRoot && u.Kind == schema.KindList && u.Elem != nil &&
			u.Elem.Kind == schema.KindBasic && s.IsModel(u.Elem.Name) {
			return u.Elem.Name
		}
	case schema.KindDict:
		return dictModel(s, u.Inner)
	}
	return ""
}

// collapseUnion reduces a two-member Union of {refType, model} to the model
// member's name. Other unions do not collapse.
func collapseUnion(s *schema.Schema, u *schema.Type) string {
	if u.Kind != schema.KindUnion || len(u.Members) != 2 {
		return ""
	}
	a, b := u.Members[0].String(), u.Members[1].String()
	if a == s.RefType && b != s.RefType {
		return b
	}
	if b == s.RefType && a != s.RefType {
		return a
	}
	return ""
}

// dictModel extracts a model name from a Dict value text containing a Union
// that references a model. The key/value text is opaque; only its
// union-of-model detection matters.
func dictModel(s *schema.Schema, inner string) string {
	if !strings.Contains(inner, "Union[") {
		return ""
	}
	for _, arg := range schema.SplitArgs(inner) {
		t := schema.ParseType(arg).Unwrap()
		if t.Kind != schema.KindUnion {
			continue
		}
		if m := collapseUnion(s, t); m != "" {
			return m
		}
		for _, member := range t.Members {
			if member.Kind == schema.KindBasic && s.IsModel(member.Name) {
				return member.Name
			}
		}
	}
	return ""
}

// renderResolved renders a type with reference unions collapsed and other
// unions joined with "|".
func renderResolved(s *schema.Schema, t *schema.Type) string {
	switch t.Kind {
	case schema.KindBasic:
		return t.Name
	case schema.KindOptional:
		return "Optional[" + renderResolved(s, t.Elem) + "]"
	case schema.KindList:
		return "List[" + renderResolved(s, t.Elem) + "]"
	case schema.KindSet:
		return "Set[" + renderResolved(s, t.Elem) + "]"
	case schema.KindTuple:
		return "Tuple[" + renderResolved(s, t.Elem) + "]"
	case schema.KindDict:
		return "Dict[" + t.Inner + "]"
	case schema.KindUnion:
		if m := collapseUnion(s, t); m != "" {
			return m
		}
		parts := make([]string, len(t.Members))
		for i, member := range t.Members {
			parts[i] = renderResolved(s, member)
		}
		return strings.Join(parts, "|")
	}
	return ""
}

// baseTypeName resolves the alias-normalized, wrapper-stripped base type.
func baseTypeName(s *schema.Schema, u *schema.Type) string {
	switch u.Kind {
	case schema.KindBasic:
		switch u.Name {
		case "str", "string":
			return "string"
		case "int", "integer":
			return "integer"
		case "float":
			return "float"
		case "bool", "boolean":
			return "boolean"
		default:
			return u.Name
		}
	case schema.KindList, schema.KindSet, schema.KindTuple:
		if u.Elem != nil {
			return baseTypeName(s, u.Elem.Unwrap())
		}
	case schema.KindDict:
		return "dict"
	}
	return ""
}

// nativeDefault reports whether a field with the given base type is
// native-valued, and the default seeded into fresh instances.
func nativeDefault(base string, u *schema.Type) (bool, interface{}) {
	isCollection := u.IsCollection()
	switch base {
	case "string":
		if isCollection {
			return true, "[]"
		}
		return true, ""
	case "integer":
		if isCollection {
			return true, "[]"
		}
		return true, 0
	case "float":
		if isCollection {
			return true, "[]"
		}
		return true, 0.0
	case "boolean":
		if isCollection {
			return true, "[]"
		}
		return true, false
	case "dict":
		return true, "{}"
	}
	return false, nil
}
