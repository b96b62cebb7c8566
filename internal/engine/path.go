package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// JoinPath joins composite field parts into a dotted path.
func JoinPath(parts []string) string {
	return strings.Join(parts, ".")
}

// Lookup reads a field from a source document. The path may name a flat key
// (including keys that themselves contain dots) or a dotted path into nested objects.
func Lookup(source map[string]any, path string) (any, bool) {
	if source == nil || path == "" {
		return nil, false
	}
	if v, ok := source[path]; ok {
		return v, true
	}

	head, rest, found := strings.Cut(path, ".")
	for found {
		if v, ok := source[head]; ok {
			if nested, ok := v.(map[string]any); ok {
				if got, ok := Lookup(nested, rest); ok {
					return got, true
				}
			}
		}
		var next string
		next, rest, found = strings.Cut(rest, ".")
		head = head + "." + next
	}
	return nil, false
}

// LookupString reads a field and renders scalar values as a string.
func LookupString(source map[string]any, path string) (string, bool) {
	v, ok := Lookup(source, path)
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case []any:
		if len(t) == 0 {
			return "", false
		}
		return LookupString(map[string]any{"v": t[0]}, "v")
	default:
		return fmt.Sprint(t), true
	}
}
