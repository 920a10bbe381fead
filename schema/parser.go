package schema

import (
	"regexp"
	"strings"
)

// Schema source text is a sequence of class declarations, each followed by
// indented "name: typeExpression" field lines. A field line may carry a
// trailing "= default" assignment, which is ignored. Unrecognized lines are
// silently skipped; they are never fatal.

var (
	classLineRe = regexp.MustCompile(`^class\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:\([^)]*\))?\s*:`)
	fieldLineRe = regexp.MustCompile(`^[ \t]+([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(.+)$`)
)

// wrapper keywords recognized as single-bracket generics, checked in order
var wrapperKinds = []struct {
	keyword string
	kind    Kind
}{
	{"Optional", KindOptional},
	{"Union", KindUnion},
	{"List", KindList},
	{"Set", KindSet},
	{"Tuple", KindTuple},
	{"Dict", KindDict},
	{"dict", KindDict},
}

// Parse scans schema source text into classes. It returns the classes keyed
// by name plus the declaration order. A class with zero fields is still
// registered so its node template exists with only an output slot.
func Parse(src string) (map[string]*Class, []string) {
	classes := make(map[string]*Class)
	var order []string
	var current *Class

	flush := func() {
		if current == nil {
			return
		}
		if _, seen := classes[current.Name]; !seen {
			order = append(order, current.Name)
		}
		classes[current.Name] = current
		current = nil
	}

	for _, line := range strings.Split(src, "\n") {
		if m := classLineRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Class{Name: m[1]}
			continue
		}
		if current == nil {
			continue
		}
		m := fieldLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		expr := stripDefault(m[2])
		if expr == "" {
			continue
		}
		current.Fields = append(current.Fields, Field{
			Name: m[1],
			Type: ParseType(expr),
			Raw:  expr,
		})
	}
	flush()

	return classes, order
}

// stripDefault removes a trailing "= default" assignment and any trailing
// comment, respecting bracket nesting so defaults like "= {}" inside a
// nested expression are not confused with the type text itself.
func stripDefault(expr string) string {
	depth := 0
	for i, r := range expr {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case '=', '#':
			if depth == 0 {
				return strings.TrimSpace(expr[:i])
			}
		}
	}
	return strings.TrimSpace(expr)
}

// ParseType parses a type expression into a descriptor. Anything not
// matching a known generic wrapper is a Basic leaf.
func ParseType(expr string) *Type {
	expr = strings.TrimSpace(expr)

	for _, w := range wrapperKinds {
		inner, ok := unwrapKeyword(expr, w.keyword)
		if !ok {
			continue
		}
		switch w.kind {
		case KindUnion:
			args := SplitArgs(inner)
			members := make([]*Type, 0, len(args))
			for _, arg := range args {
				members = append(members, ParseType(arg))
			}
			return &Type{Kind: KindUnion, Members: members}
		case KindDict:
			return &Type{Kind: KindDict, Inner: strings.TrimSpace(inner)}
		default:
			return &Type{Kind: w.kind, Elem: ParseType(inner)}
		}
	}

	return &Type{Kind: KindBasic, Name: expr}
}

// unwrapKeyword returns the bracketed argument text if expr is exactly
// "keyword[...]" with the opening bracket matched by the final character.
func unwrapKeyword(expr, keyword string) (string, bool) {
	if !strings.HasPrefix(expr, keyword+"[") || !strings.HasSuffix(expr, "]") {
		return "", false
	}
	body := expr[len(keyword)+1 : len(expr)-1]
	// The opening bracket must close at the end of the expression, not
	// earlier ("List[int]x" or "Union[A][B]" must not match).
	depth := 0
	for _, r := range body {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return "", false
			}
		}
	}
	if depth != 0 {
		return "", false
	}
	return body, true
}

// SplitArgs splits a bracketed argument list on commas, tracking bracket
// nesting depth so commas inside nested generics do not split the list.
func SplitArgs(s string) []string {
	var args []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		args = append(args, tail)
	}
	return args
}
