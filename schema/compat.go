package schema

import "strings"

// typeAliases groups type names that are mutually compatible. The integer
// group includes the index/reference spelling used for link back-references.
var typeAliases = map[string]string{
	"int":     "integer",
	"Index":   "integer",
	"integer": "integer",
	"str":     "string",
	"string":  "string",
}

// Compatible reports whether a value of type outType may flow into a slot
// expecting inType. It gates every link creation and runs on every in-flight
// connection gesture, so it is pure, total, and never panics.
//
// Rules are applied in order, first match wins:
//  1. either side missing -> compatible (unconstrained)
//  2. exact equality
//  3. universal "Any" on either side
//  4. input Optional[...] unwraps and recurses
//  5. input Union[...] matches if any member matches
//  6. input with a top-level "|" union matches if any member matches
//  7. dotted qualifiers strip to the final segment and recurse
//  8. fixed alias table: int/Index/integer and str/string
func Compatible(outType, inType string) bool {
	outType = strings.TrimSpace(outType)
	inType = strings.TrimSpace(inType)

	if outType == "" || inType == "" {
		return true
	}
	if outType == inType {
		return true
	}
	if outType == "Any" || inType == "Any" {
		return true
	}

	if inner, ok := unwrapKeyword(inType, "Optional"); ok {
		return Compatible(outType, inner)
	}

	if inner, ok := unwrapKeyword(inType, "Union"); ok {
		for _, member := range SplitArgs(inner) {
			if Compatible(outType, member) {
				return true
			}
		}
		return false
	}

	// Alternate union syntax: "A | B | C" without the Union wrapper
	if members := splitUnion(inType); len(members) > 1 {
		for _, member := range members {
			if Compatible(outType, member) {
				return true
			}
		}
		return false
	}

	// A schema-qualified type ("Namespace.Model") matches its unqualified name
	if stripped, ok := stripQualifier(outType); ok {
		return Compatible(stripped, inType)
	}
	if stripped, ok := stripQualifier(inType); ok {
		return Compatible(outType, stripped)
	}

	if a, ok := typeAliases[outType]; ok {
		if b, ok := typeAliases[inType]; ok && a == b {
			return true
		}
	}

	return false
}

// splitUnion splits on "|" at bracket depth zero. Returns the input as a
// single element when no top-level pipe exists.
func splitUnion(s string) []string {
	var members []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case '|':
			if depth == 0 {
				members = append(members, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	members = append(members, strings.TrimSpace(s[start:]))
	return members
}

// stripQualifier removes a dotted namespace prefix, keeping the final
// segment. Only applies to plain dotted names, not bracketed generics.
func stripQualifier(s string) (string, bool) {
	if strings.ContainsAny(s, "[]|") {
		return "", false
	}
	idx := strings.LastIndex(s, ".")
	if idx < 0 || idx == len(s)-1 {
		return "", false
	}
	return s[idx+1:], true
}
