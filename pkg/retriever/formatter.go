package retriever

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// FormatResult renders ranked items as text blocks for the context bundle.
// Blocks that end up empty are dropped.
//
// Block layout, in fixed order: the score (three decimal places) when the
// metadata carries a numeric one, then every other non-null metadata field,
// then the content verbatim.
func FormatResult(result Result) []string {
	formatted := make([]string, 0, len(result.Items))

	for _, item := range result.Items {
		var parts []string

		if score, ok := numericScore(item.Metadata); ok {
			parts = append(parts, fmt.Sprintf("[Score: %.3f]", score))
		}

		keys := make([]string, 0, len(item.Metadata))
		for key := range item.Metadata {
			if key == "score" || item.Metadata[key] == nil {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if field := formatField(key, item.Metadata[key]); field != "" {
				parts = append(parts, field)
			}
		}

		if item.Content != "" {
			parts = append(parts, item.Content)
		}

		if len(parts) > 0 {
			formatted = append(formatted, strings.Join(parts, " "))
		}
	}

	return formatted
}

func numericScore(metadata map[string]any) (float64, bool) {
	raw, ok := metadata["score"]
	if !ok || raw == nil {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// formatField classifies the value once, up front: a sequence of scalars is
// joined with ", "; an empty sequence contributes nothing; everything else is
// rendered as a scalar.
func formatField(key string, value any) string {
	rv := reflect.ValueOf(value)

	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return ""
		}

		elems := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elems[i] = fmt.Sprintf("%v", rv.Index(i).Interface())
		}
		return fmt.Sprintf("[%s: %s]", key, strings.Join(elems, ", "))
	}

	return fmt.Sprintf("[%s: %v]", key, value)
}
