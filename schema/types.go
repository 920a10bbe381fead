package schema

import "strings"

// Kind discriminates the variants of a type descriptor.
type Kind int

const (
	// KindBasic is an atomic or model name (e.g. "str", "Tool")
	KindBasic Kind = iota
	// KindOptional wraps a single inner type (Optional[T])
	KindOptional
	// KindList wraps a single inner type (List[T])
	KindList
	// KindSet wraps a single inner type (Set[T])
	KindSet
	// KindTuple wraps a single inner type (Tuple[T])
	KindTuple
	// KindDict is a key/value generic; the inner text is retained verbatim
	KindDict
	// KindUnion holds an ordered list of member types (Union[A, B, ...])
	KindUnion
)

// Type is a parsed type descriptor. Descriptors are immutable once parsed;
// source text cannot express a cycle, so nesting is always finite.
type Type struct {
	Kind    Kind
	Name    string  // KindBasic: the atom or model name
	Elem    *Type   // KindOptional/List/Set/Tuple: the inner type
	Members []*Type // KindUnion: member types in declaration order
	Inner   string  // KindDict: raw bracketed argument text (e.g. "str, Union[Tool, Index]")
}

// Field is one declared field of a class. Declaration order within a class
// is significant: it maps 1:1 to input-slot order on generated templates.
type Field struct {
	Name string
	Type *Type
	Raw  string // original type expression text
}

// Class is a parsed schema class: a name plus its ordered fields.
type Class struct {
	Name   string
	Fields []Field
}

// FieldNames returns the set of field names declared on the class.
func (c *Class) FieldNames() map[string]bool {
	names := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		names[f.Name] = true
	}
	return names
}

// Field returns the field with the given name, if declared.
func (c *Class) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// String re-renders the descriptor with canonical bracket syntax.
// Parsing then rendering round-trips to a semantically identical type.
func (t *Type) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case KindBasic:
		return t.Name
	case KindOptional:
		return "Optional[" + t.Elem.String() + "]"
	case KindList:
		return "List[" + t.Elem.String() + "]"
	case KindSet:
		return "Set[" + t.Elem.String() + "]"
	case KindTuple:
		return "Tuple[" + t.Elem.String() + "]"
	case KindDict:
		return "Dict[" + t.Inner + "]"
	case KindUnion:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = m.String()
		}
		return "Union[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

// Unwrap strips Optional wrappers and returns the underlying type.
func (t *Type) Unwrap() *Type {
	for t != nil && t.Kind == KindOptional {
		t = t.Elem
	}
	return t
}

// IsCollection reports whether the (optional-unwrapped) type is a
// List, Set, Tuple, or Dict generic.
func (t *Type) IsCollection() bool {
	u := t.Unwrap()
	if u == nil {
		return false
	}
	switch u.Kind {
	case KindList, KindSet, KindTuple, KindDict:
		return true
	}
	return false
}
