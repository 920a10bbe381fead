package schema

import (
	"testing"
)

const sampleSource = `
class Tool:
    type: str
    value: Optional[int] = 0

class Rule:
    name: str
    tools: List[Union[Tool, Index]] = []
    params: Dict[str, Union[Tool, Index]]

class Empty:
    pass

class App:
    title: str
    debug: Optional[bool] = False
    tools: Optional[List[Union[Tool, Index]]] = []
`

func TestParseClasses(t *testing.T) {
	classes, order := Parse(sampleSource)

	if len(classes) != 4 {
		t.Fatalf("Expected 4 classes, got %d: %v", len(classes), order)
	}

	wantOrder := []string{"Tool", "Rule", "Empty", "App"}
	for i, name := range wantOrder {
		if order[i] != name {
			t.Errorf("order[%d] = %s, want %s", i, order[i], name)
		}
	}

	tool := classes["Tool"]
	if len(tool.Fields) != 2 {
		t.Fatalf("Tool: expected 2 fields, got %d", len(tool.Fields))
	}
	if tool.Fields[0].Name != "type" || tool.Fields[0].Type.Name != "str" {
		t.Errorf("Tool.type parsed as %+v", tool.Fields[0])
	}
	if tool.Fields[1].Name != "value" || tool.Fields[1].Type.Kind != KindOptional {
		t.Errorf("Tool.value parsed as %+v", tool.Fields[1])
	}
}

func TestParseDefaultStripped(t *testing.T) {
	classes, _ := Parse(sampleSource)
	f, ok := classes["App"].Field("tools")
	if !ok {
		t.Fatal("App.tools missing")
	}
	if f.Raw != "Optional[List[Union[Tool, Index]]]" {
		t.Errorf("default not stripped: %q", f.Raw)
	}
}

func TestParseEmptyClassStillRegistered(t *testing.T) {
	classes, _ := Parse(sampleSource)
	empty, ok := classes["Empty"]
	if !ok {
		t.Fatal("Empty class not registered")
	}
	// "pass" is not a field declaration and is silently skipped
	if len(empty.Fields) != 0 {
		t.Errorf("Empty: expected 0 fields, got %d", len(empty.Fields))
	}
}

func TestParseSkipsUnknownLines(t *testing.T) {
	src := `
# comment line
class Tool:
    type: str
    this is not a field
    !!!
    value: int
garbage outside any indentation
`
	classes, _ := Parse(src)
	tool, ok := classes["Tool"]
	if !ok {
		t.Fatal("Tool not parsed")
	}
	if len(tool.Fields) != 2 {
		t.Fatalf("Expected 2 fields, got %d", len(tool.Fields))
	}
}

func TestParseTypeRoundTrip(t *testing.T) {
	// Parsing then re-rendering round-trips for every supported generic
	cases := []string{
		"str",
		"Optional[str]",
		"List[int]",
		"Set[Tool]",
		"Tuple[float]",
		"Union[Tool, Index]",
		"List[Union[Tool, Index]]",
		"Optional[List[Union[Tool, Index]]]",
		"Dict[str, Union[Tool, Index]]",
		"Union[Tool, Rule, Index]",
	}
	for _, src := range cases {
		got := ParseType(src).String()
		if got != src {
			t.Errorf("ParseType(%q).String() = %q", src, got)
		}
	}
}

func TestParseTypeLowercaseDict(t *testing.T) {
	parsed := ParseType("dict[str, int]")
	if parsed.Kind != KindDict {
		t.Fatalf("dict[...] not parsed as Dict: %+v", parsed)
	}
	if parsed.Inner != "str, int" {
		t.Errorf("Inner = %q", parsed.Inner)
	}
}

func TestParseTypeUnmatchedBracketIsBasic(t *testing.T) {
	// A wrapper whose bracket does not close at the end is not a generic
	for _, src := range []string{"List[int]x", "Union[A][B]", "List[int"} {
		parsed := ParseType(src)
		if parsed.Kind != KindBasic {
			t.Errorf("ParseType(%q).Kind = %d, want KindBasic", src, parsed.Kind)
		}
	}
}

func TestSplitArgsNestedBrackets(t *testing.T) {
	args := SplitArgs("str, Union[Tool, Index], List[Union[A, B]]")
	want := []string{"str", "Union[Tool, Index]", "List[Union[A, B]]"}
	if len(args) != len(want) {
		t.Fatalf("got %d args: %v", len(args), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}
