package schema

import (
	"strings"
	"unicode"
)

// FieldMapping is the bidirectional map between a class name and the key
// used for that class's node group in the config document.
//
// The authoritative entries come from walking the designated root class:
// each root field contributes (model class <-> field name), where the model
// is found by unwrapping Optional/List/Set/Tuple/Dict/Union layers and
// selecting the Union branch that is not the reference/index type. When no
// root class is designated or a key cannot be matched, a deterministic
// camel-to-snake pluralization guess is used instead. The guess is advisory
// only; callers must tolerate wrong guesses.
type FieldMapping struct {
	classToField map[string]string
	fieldToClass map[string]string
	classes      map[string]*Class
}

// NewFieldMapping builds the mapping table for a schema.
func NewFieldMapping(classes map[string]*Class, rootClass, refType string) *FieldMapping {
	fm := &FieldMapping{
		classToField: make(map[string]string),
		fieldToClass: make(map[string]string),
		classes:      classes,
	}

	root, ok := classes[rootClass]
	if !ok {
		return fm
	}

	for _, f := range root.Fields {
		model := modelOf(f.Type, refType, classes)
		if model == "" {
			continue
		}
		// First field wins when two root fields refer to the same model
		if _, seen := fm.classToField[model]; !seen {
			fm.classToField[model] = f.Name
		}
		if _, seen := fm.fieldToClass[f.Name]; !seen {
			fm.fieldToClass[f.Name] = model
		}
	}

	return fm
}

// FieldForClass translates a class name to its config document key.
func (fm *FieldMapping) FieldForClass(class string) string {
	if field, ok := fm.classToField[class]; ok {
		return field
	}
	return Pluralize(ToSnake(class))
}

// ClassForField translates a config document key back to a class name.
// The boolean is false when neither the mapping table nor the fallback
// guess yields a known class.
func (fm *FieldMapping) ClassForField(field string) (string, bool) {
	if class, ok := fm.fieldToClass[field]; ok {
		return class, true
	}
	guess := ToCamel(Singularize(field))
	if _, ok := fm.classes[guess]; ok {
		return guess, true
	}
	return "", false
}

// modelOf extracts the model class a field type ultimately refers to, or ""
// when the type never reaches a known class.
func modelOf(t *Type, refType string, classes map[string]*Class) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case KindBasic:
		if t.Name == refType {
			return ""
		}
		if _, ok := classes[t.Name]; ok {
			return t.Name
		}
		return ""
	case KindOptional, KindList, KindSet, KindTuple:
		return modelOf(t.Elem, refType, classes)
	case KindDict:
		for _, arg := range SplitArgs(t.Inner) {
			if model := modelOf(ParseType(arg), refType, classes); model != "" {
				return model
			}
		}
		return ""
	case KindUnion:
		for _, m := range t.Members {
			if model := modelOf(m, refType, classes); model != "" {
				return model
			}
		}
		return ""
	}
	return ""
}

// ToSnake converts CamelCase to snake_case.
func ToSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToCamel converts snake_case to CamelCase.
func ToCamel(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// Pluralize applies a deterministic English pluralization.
func Pluralize(name string) string {
	switch {
	case strings.HasSuffix(name, "y") && len(name) > 1 && !isVowel(name[len(name)-2]):
		return name[:len(name)-1] + "ies"
	case strings.HasSuffix(name, "s"), strings.HasSuffix(name, "x"),
		strings.HasSuffix(name, "z"), strings.HasSuffix(name, "ch"),
		strings.HasSuffix(name, "sh"):
		return name + "es"
	default:
		return name + "s"
	}
}

// Singularize inverts Pluralize. Best effort only.
func Singularize(name string) string {
	switch {
	case strings.HasSuffix(name, "ies"):
		return name[:len(name)-3] + "y"
	case strings.HasSuffix(name, "ches"), strings.HasSuffix(name, "shes"):
		return name[:len(name)-2]
	case strings.HasSuffix(name, "ses"), strings.HasSuffix(name, "xes"),
		strings.HasSuffix(name, "zes"):
		return name[:len(name)-2]
	case strings.HasSuffix(name, "s"):
		return name[:len(name)-1]
	default:
		return name
	}
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
