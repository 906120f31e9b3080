package schema

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DecodeForm rebuilds a nested instance from bracket-notation form values.
// Only keys starting with prefix are considered (for example
// "widget-slider[3]"); an empty prefix decodes every key. Maps whose keys are
// all integers become lists ordered by index, and "[]" suffixes collect every
// submitted value.
func DecodeForm(values url.Values, prefix string) (Instance, error) {
	root := make(map[string]any)
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rest := key
		if prefix != "" {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			rest = key[len(prefix):]
		}
		path, err := splitFormKey(rest, prefix == "")
		if err != nil {
			return nil, fmt.Errorf("schema: decode form key %q: %w", key, err)
		}
		if len(path) == 0 {
			continue
		}
		submitted := values[key]
		if path[len(path)-1] == "" {
			path = path[:len(path)-1]
			if len(path) == 0 {
				continue
			}
			list := make([]any, len(submitted))
			for idx, v := range submitted {
				list[idx] = v
			}
			if err := assignPath(root, path, list); err != nil {
				return nil, fmt.Errorf("schema: decode form key %q: %w", key, err)
			}
			continue
		}
		var value any = ""
		if len(submitted) > 0 {
			value = submitted[len(submitted)-1]
		}
		if err := assignPath(root, path, value); err != nil {
			return nil, fmt.Errorf("schema: decode form key %q: %w", key, err)
		}
	}

	for key, child := range root {
		root[key] = listify(child)
	}
	return root, nil
}

// splitFormKey parses "name[a][b]" (leadingName) or "[a][b]" into segments.
func splitFormKey(key string, leadingName bool) ([]string, error) {
	var segments []string
	if leadingName {
		idx := strings.IndexByte(key, '[')
		if idx < 0 {
			return []string{key}, nil
		}
		if idx == 0 {
			return nil, fmt.Errorf("missing field name")
		}
		segments = append(segments, key[:idx])
		key = key[idx:]
	}
	for len(key) > 0 {
		if key[0] != '[' {
			return nil, fmt.Errorf("unexpected %q", key)
		}
		end := strings.IndexByte(key, ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated segment")
		}
		segments = append(segments, key[1:end])
		key = key[end+1:]
	}
	return segments, nil
}

func assignPath(root map[string]any, path []string, value any) error {
	current := root
	for idx, segment := range path {
		if idx == len(path)-1 {
			current[segment] = value
			return nil
		}
		next, ok := current[segment]
		if !ok {
			child := make(map[string]any)
			current[segment] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("segment %q is both a value and a group", segment)
		}
		current = child
	}
	return nil
}

func listify(value any) any {
	group, ok := value.(map[string]any)
	if !ok {
		return value
	}
	for key, child := range group {
		group[key] = listify(child)
	}
	if len(group) == 0 {
		return group
	}
	indices := make([]int, 0, len(group))
	byIndex := make(map[int]any, len(group))
	for key, child := range group {
		n, err := strconv.Atoi(key)
		if err != nil || n < 0 {
			return group
		}
		indices = append(indices, n)
		byIndex[n] = child
	}
	sort.Ints(indices)
	out := make([]any, 0, len(indices))
	for _, n := range indices {
		out = append(out, byIndex[n])
	}
	return out
}
