package audit

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// NewChanges snapshots before and after into JSON-shaped maps and lists the
// top-level fields that differ. Either side may be nil (creation or deletion).
// Values must marshal to JSON objects.
func NewChanges(before, after any) (*Changes, error) {
	b, err := snapshot(before)
	if err != nil {
		return nil, fmt.Errorf("snapshot before: %w", err)
	}
	a, err := snapshot(after)
	if err != nil {
		return nil, fmt.Errorf("snapshot after: %w", err)
	}
	return &Changes{Before: b, After: a, Fields: diffFields(b, a)}, nil
}

func snapshot(v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok {
		return copyMap(m), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// normalizeChanges reduces Before and After to JSON-shaped values so that
// Clone copies every nested value and no caller-owned slice or map reaches a store.
func normalizeChanges(c *Changes) (*Changes, error) {
	if c == nil {
		return nil, nil
	}
	before, err := jsonShape(c.Before)
	if err != nil {
		return nil, fmt.Errorf("normalize before: %w", err)
	}
	after, err := jsonShape(c.After)
	if err != nil {
		return nil, fmt.Errorf("normalize after: %w", err)
	}
	out := &Changes{Before: before, After: after}
	if c.Fields != nil {
		out.Fields = append([]string(nil), c.Fields...)
	}
	return out, nil
}

func jsonShape(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func diffFields(before, after map[string]any) []string {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}
	var fields []string
	for k := range keys {
		bv, inBefore := before[k]
		av, inAfter := after[k]
		if inBefore != inAfter || !reflect.DeepEqual(bv, av) {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}

func (c Changes) clone() Changes {
	out := Changes{
		Before: copyMap(c.Before),
		After:  copyMap(c.After),
	}
	if c.Fields != nil {
		out.Fields = append([]string(nil), c.Fields...)
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case nil, string, bool, float64, int, int64:
		return v
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Pointer, reflect.Struct, reflect.Interface:
		// Other composite values are re-decoded as JSON so nothing stays shared.
		raw, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return v
		}
		return out
	default:
		return v
	}
}
