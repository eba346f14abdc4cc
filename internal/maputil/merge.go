// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package maputil holds the map helpers shared by the payload builders.
package maputil

// Merge returns a new map holding every entry of base and override.
// For keys present in both, the override value wins. Neither input is mutated
// and nil inputs are treated as empty.
func Merge[K comparable, V any](base, override map[K]V) map[K]V {
	out := make(map[K]V, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of m. A nil map clones to an empty, non-nil map.
func Clone[K comparable, V any](m map[K]V) map[K]V {
	return Merge(m, nil)
}

// DeepClone copies nested map[string]any and []any values so the result
// shares no mutable containers with m.
func DeepClone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCloneValue(v)
	}
	return out
}

func deepCloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return DeepClone(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCloneValue(e)
		}
		return out
	default:
		return v
	}
}
