package schema

import (
	"fmt"
	"strconv"
)

// Instance is the stored configuration of one placed widget. Nested values
// mirror the schema: repeaters hold []any of map[string]any rows, sections
// and embedded widgets hold map[string]any.
type Instance = map[string]any

// Empty applies the emptiness rules stored instances were written with:
// nil, false, numeric zero, "", "0" and empty collections are empty.
func Empty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == "" || v == "0"
	case int:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case uint:
		return v == 0
	case uint64:
		return v == 0
	case float32:
		return v == 0
	case float64:
		return v == 0
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case []map[string]any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case map[string]string:
		return len(v) == 0
	default:
		return false
	}
}

// AsMap coerces nested mapping values into map[string]any.
func AsMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[string]string:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// AsList coerces list values into []any.
func AsList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for idx, row := range v {
			out[idx] = row
		}
		return out, true
	case []string:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = item
		}
		return out, true
	default:
		return nil, false
	}
}

// Clone deep-copies maps and slices so callers can mutate the result without
// touching the source instance.
func Clone(inst Instance) Instance {
	if inst == nil {
		return nil
	}
	out := make(Instance, len(inst))
	for key, value := range inst {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Clone(v)
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// String renders a scalar the way form controls display it: false and nil
// become "", true becomes "1" and floats drop trailing zeros.
func String(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Truthy reports whether the instance flag key is set to a non-empty value.
func Truthy(inst Instance, key string) bool {
	if inst == nil {
		return false
	}
	return !Empty(inst[key])
}
