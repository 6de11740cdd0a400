// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package kernelseries

import (
	"fmt"
)

// attrs is a raw YAML mapping as produced by yaml.v2. Entry views read
// through attrs values on every access; nothing is written back.
type attrs map[interface{}]interface{}

// asAttrs coerces a raw YAML value to an attrs mapping, returning nil for
// anything that is not a mapping.
func asAttrs(value interface{}) attrs {
	switch m := value.(type) {
	case map[interface{}]interface{}:
		return attrs(m)
	case map[string]interface{}:
		converted := make(attrs, len(m))
		for k, v := range m {
			converted[k] = v
		}
		return converted
	}
	return nil
}

func (a attrs) has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a attrs) value(key string) interface{} {
	return a[key]
}

// bool returns the named attribute as a boolean, or fallback when the
// attribute is absent or not a boolean.
func (a attrs) bool(key string, fallback bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return fallback
}

// str returns the named attribute as a string, or "" when absent. Scalar
// non-strings (YAML numbers and the like) are rendered with their default
// formatting.
func (a attrs) str(key string) string {
	s, _ := toString(a[key])
	return s
}

// stringList returns the named attribute as a list of strings, or nil when
// the attribute is absent or not a sequence.
func (a attrs) stringList(key string) []string {
	return stringSlice(a[key])
}

func stringSlice(value interface{}) []string {
	seq, ok := value.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(seq))
	for _, item := range seq {
		if s, ok := toString(item); ok {
			result = append(result, s)
		}
	}
	return result
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return "", false
	case int, int64, uint64, float32, float64:
		return fmt.Sprintf("%v", v), true
	}
	return "", false
}
