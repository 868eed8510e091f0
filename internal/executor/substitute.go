package executor

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// substituteAction deep-copies a and replaces every {{name}} in its Data's
// string fields with the current value of that parameter. Unresolved
// placeholders are left as-is — a deliberate signal, not a silent blank
// (spec.md §4.6 "Per-action execution" point 1).
func substituteAction(a scenario.Action, params map[string]string) (scenario.Action, error) {
	out := a
	if a.Selector != nil {
		out.Selector = a.Selector.Clone()
	}
	if len(a.Data) == 0 {
		return out, nil
	}

	var generic any
	if err := json.Unmarshal(a.Data, &generic); err != nil {
		return scenario.Action{}, fmt.Errorf("action_data_decode_failed: %w", err)
	}
	substituted := substituteValue(generic, params)

	data, err := json.Marshal(substituted)
	if err != nil {
		return scenario.Action{}, fmt.Errorf("action_data_encode_failed: %w", err)
	}
	out.Data = data
	return out, nil
}

func substituteValue(v any, params map[string]string) any {
	switch val := v.(type) {
	case string:
		return substituteString(val, params)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = substituteValue(item, params)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = substituteValue(item, params)
		}
		return out
	default:
		return v
	}
}

func substituteString(s string, params map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-2]
		if v, ok := params[name]; ok {
			return v
		}
		return match
	})
}
