// Package columns turns the free-form column field into an ordered list of
// column names. Two dialects are accepted without the user choosing one: a
// list literal ("[a, b]", "['a','b']", `["a","b"]`) or a plain comma list.
package columns

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Parse never fails; anything it cannot read as a list literal is split on commas.
func Parse(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []string{}
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		if cols, ok := parseLiteral(s); ok {
			return cols
		}
		return parseBare(s[1 : len(s)-1])
	}

	return splitComma(s)
}

// Format renders columns the way an analysis result seeds the editable field
func Format(cols []string) string {
	if len(cols) == 0 {
		return "[]"
	}
	b, err := sonic.Marshal(cols)
	if err != nil {
		return strings.Join(cols, ", ")
	}
	return string(b)
}

// parseLiteral decodes s as a JSON array, retrying with single quotes
// swapped for double quotes.
func parseLiteral(s string) (cols []string, ok bool) {
	defer func() {
		if recover() != nil {
			cols, ok = nil, false
		}
	}()

	var items []any
	if err := sonic.UnmarshalString(s, &items); err != nil {
		items = nil
		if err := sonic.UnmarshalString(strings.ReplaceAll(s, "'", `"`), &items); err != nil {
			return nil, false
		}
	}

	cols = make([]string, 0, len(items))
	for _, item := range items {
		if v := strings.TrimSpace(stringify(item)); v != "" {
			cols = append(cols, v)
		}
	}
	return cols, true
}

// parseBare handles bracketed lists whose items are not valid JSON, e.g. [a, b, c]
func parseBare(inner string) []string {
	parts := splitComma(inner)
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(unquote(p)); v != "" {
			cols = append(cols, v)
		}
	}
	return cols
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			cols = append(cols, v)
		}
	}
	return cols
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// stringify mirrors how a decoded JSON value reads as text:
// nested arrays are comma-joined and objects collapse to a placeholder.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			if item != nil {
				parts[i] = stringify(item)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		b, err := sonic.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
