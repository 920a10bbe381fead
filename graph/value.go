package graph

import (
	"encoding/json"
	"strings"
)

// valueClass is the single classification pass driving recursive value
// rewriting. Every evaluated field value is exactly one of these; the
// switch sites below stay exhaustive over the enum instead of scattering
// shape checks.
type valueClass int

const (
	valueScalar valueClass = iota
	valueArray
	valueObject
	valueNodeRef
)

func classify(v interface{}) valueClass {
	switch v.(type) {
	case *Node:
		return valueNodeRef
	case []interface{}:
		return valueArray
	case map[string]interface{}:
		return valueObject
	default:
		return valueScalar
	}
}

// parseJSONish opportunistically parses a native string holding JSON text
// ("{...}" or "[...]") back into structured data. Anything else, including
// malformed JSON, passes through untouched.
func parseJSONish(s string) (interface{}, bool) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return nil, false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return nil, false
	}
	var out interface{}
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, false
	}
	return out, true
}
