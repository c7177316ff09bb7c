package plan

import "strings"

// ParseList splits a comma or newline separated value into trimmed, non-empty
// items. When value yields no items the fallback is returned, or an empty list
// when fallback is nil.
func ParseList(value string, fallback []string) []string {
	items := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) > 0 {
		return out
	}
	if fallback == nil {
		return []string{}
	}
	return append([]string(nil), fallback...)
}

// at returns items[i] or def when the index is out of range.
func at(items []string, i int, def string) string {
	if i < len(items) {
		return items[i]
	}
	return def
}

func orDefault(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}
