// Package schema maps JSON-Schema-like tool parameter schemas into
// generic descriptors and coerces call-time argument values.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"mcpbridge/internal/domain"
)

// RequiredMarker is appended to the description of required parameters
// so callers always see required-ness.
const RequiredMarker = "(required)"

// Descriptors extracts one descriptor per schema property, ordered by
// property name. Unknown or missing types map to str.
func Descriptors(inputSchema any) []domain.ParamDescriptor {
	root := asMap(inputSchema)
	if root == nil {
		return nil
	}
	props := asMap(root["properties"])
	if len(props) == 0 {
		return nil
	}
	required := requiredSet(root)

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]domain.ParamDescriptor, 0, len(names))
	for _, name := range names {
		prop := asMap(props[name])
		desc := stringValue(prop["description"])
		_, isRequired := required[name]
		if isRequired {
			if desc == "" {
				desc = RequiredMarker
			} else {
				desc = desc + " " + RequiredMarker
			}
		}
		out = append(out, domain.ParamDescriptor{
			Name:        name,
			Type:        paramType(prop),
			Description: desc,
			Required:    isRequired,
		})
	}
	return out
}

// Coerce converts supplied argument values against the declared
// property types. Coercion never fails: any value that cannot be
// converted passes through verbatim, and names absent from the schema
// pass through unchanged.
func Coerce(inputSchema any, args map[string]any) map[string]any {
	if len(args) == 0 {
		return map[string]any{}
	}
	props := map[string]any{}
	if root := asMap(inputSchema); root != nil {
		props = asMap(root["properties"])
	}

	out := make(map[string]any, len(args))
	for name, value := range args {
		prop := asMap(props[name])
		if prop == nil {
			out[name] = value
			continue
		}
		out[name] = coerceValue(prop, value)
	}
	return out
}

func coerceValue(prop map[string]any, value any) any {
	switch declaredType(prop) {
	case "integer":
		return coerceInt(value)
	case "number":
		return coerceFloat(value)
	case "boolean":
		return coerceBool(value)
	case "array", "object":
		return coerceStructured(value)
	default:
		return value
	}
}

func coerceInt(value any) any {
	switch v := value.(type) {
	case int, int32, int64:
		return v
	case float64:
		if v == float64(int64(v)) {
			return int64(v)
		}
		return v
	case string:
		if parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return parsed
		}
		return v
	default:
		return value
	}
}

func coerceFloat(value any) any {
	switch v := value.(type) {
	case float32, float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed
		}
		return v
	default:
		return value
	}
}

var truthy = map[string]struct{}{
	"1": {}, "true": {}, "yes": {}, "y": {}, "on": {},
}

func coerceBool(value any) any {
	if b, ok := value.(bool); ok {
		return b
	}
	_, ok := truthy[strings.ToLower(strings.TrimSpace(fmt.Sprint(value)))]
	return ok
}

func coerceStructured(value any) any {
	switch v := value.(type) {
	case map[string]any, []any:
		return v
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err == nil {
			switch parsed.(type) {
			case map[string]any, []any:
				return parsed
			}
		}
		return v
	default:
		return value
	}
}

func paramType(prop map[string]any) domain.ParamType {
	switch declaredType(prop) {
	case "integer":
		return domain.ParamInt
	case "number":
		return domain.ParamFloat
	case "boolean":
		return domain.ParamBool
	default:
		// string, array and object (serialized form), and anything
		// unrecognized.
		return domain.ParamString
	}
}

func declaredType(prop map[string]any) string {
	if prop == nil {
		return ""
	}
	switch t := prop["type"].(type) {
	case string:
		return strings.ToLower(t)
	case []any:
		for _, entry := range t {
			if s, ok := entry.(string); ok && !strings.EqualFold(s, "null") {
				return strings.ToLower(s)
			}
		}
	case []string:
		for _, s := range t {
			if !strings.EqualFold(s, "null") {
				return strings.ToLower(s)
			}
		}
	}
	return ""
}

func requiredSet(root map[string]any) map[string]struct{} {
	out := make(map[string]struct{})
	switch req := root["required"].(type) {
	case []any:
		for _, entry := range req {
			if s, ok := entry.(string); ok {
				out[s] = struct{}{}
			}
		}
	case []string:
		for _, s := range req {
			out[s] = struct{}{}
		}
	}
	return out
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// asMap normalizes map, JSON text, and arbitrary marshalable values
// (such as SDK schema structs) to a map[string]any.
func asMap(v any) map[string]any {
	switch typed := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return typed
	case json.RawMessage:
		return unmarshalMap([]byte(typed))
	case []byte:
		return unmarshalMap(typed)
	case string:
		return unmarshalMap([]byte(typed))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return unmarshalMap(raw)
	}
}

func unmarshalMap(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
