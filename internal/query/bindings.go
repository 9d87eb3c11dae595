package query

import (
	"sort"
)

// MultiValued is a parameter value that binds to several positions, such
// as the components of an embedded value.
type MultiValued interface {
	Values() []any
}

// ParameterBindings maps parameter names to values. A []any or MultiValued
// value binds one position per element.
type ParameterBindings map[string]any

// Lookup returns the value bound to name.
func (b ParameterBindings) Lookup(name string) (any, bool) {
	v, ok := b[name]
	return v, ok
}

// Names returns the bound names in sorted order.
func (b ParameterBindings) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand returns the positional values of v.
func Expand(v any) []any {
	switch vv := v.(type) {
	case MultiValued:
		return vv.Values()
	case []any:
		return vv
	default:
		return []any{v}
	}
}
