// Package util holds small helpers shared by the model adapters.
package util

// EnsureObjectSchema returns a JSON-Schema map that providers accept as
// tool parameters. Workflow tool configurations may carry a nil or
// partial schema; providers reject anything that is not an object
// schema. The input map is not mutated.
func EnsureObjectSchema(params map[string]any) map[string]any {
	out := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	for k, v := range params {
		out[k] = v
	}
	if _, ok := out["type"].(string); !ok {
		out["type"] = "object"
	}
	return out
}

// Properties extracts the properties map from a schema, nil when absent
// or malformed.
func Properties(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	props, _ := params["properties"].(map[string]any)
	return props
}

// RequiredStrings normalizes a schema's required list. Decoded JSON
// yields []any; hand-built schemas use []string. Anything else is
// treated as empty.
func RequiredStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
