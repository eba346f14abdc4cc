// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package maputil

// String returns the string stored under key. A missing key or a value of
// another dynamic type reports ok=false.
func String(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok
}

// NonEmptyString is String that also rejects the empty string.
func NonEmptyString(m map[string]any, key string) (string, bool) {
	s, ok := String(m, key)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Bool returns the bool stored under key.
func Bool(m map[string]any, key string) (bool, bool) {
	if m == nil {
		return false, false
	}
	b, ok := m[key].(bool)
	return b, ok
}

// BoolOr returns the bool under key or def when it is absent or mistyped.
func BoolOr(m map[string]any, key string, def bool) bool {
	if b, ok := Bool(m, key); ok {
		return b
	}
	return def
}

// Map returns the nested map stored under key.
func Map(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	nested, ok := m[key].(map[string]any)
	return nested, ok
}

// Path walks nested maps along keys and returns the map found at the end.
func Path(m map[string]any, keys ...string) (map[string]any, bool) {
	cur := m
	for _, k := range keys {
		next, ok := Map(cur, k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}
