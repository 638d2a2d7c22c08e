package config

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/pkg/errors"
)

// leaf hides a document value from mergo. A leaf has no exported fields, so
// mergo replaces it instead of merging into it; pointers and structs given
// inline are never written through.
type leaf struct {
	v any
}

// Merge merges src into a copy of dst recursively. Mappings present on both
// sides are merged key by key; any other value from src, sequences and nil
// included, replaces the one in dst. Values taken from either side are
// copied, so later changes to dst or src do not leak into the result.
func Merge(dst, src map[string]any) (map[string]any, error) {
	merged := box(dst).(map[string]any)
	if err := mergo.Merge(&merged, box(src), mergo.WithOverride); err != nil {
		return nil, errors.Wrap(err, "merging configuration")
	}
	return unbox(merged).(map[string]any), nil
}

// box copies a document, wrapping every non-mapping value in a leaf.
func box(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return leaf{v: clone(v)}
	}
	out := make(map[string]any, len(m))
	for k, item := range m {
		out[k] = box(item)
	}
	return out
}

// unbox reverses box in place.
func unbox(v any) any {
	switch val := v.(type) {
	case leaf:
		return val.v
	case map[string]any:
		for k, item := range val {
			val[k] = unbox(item)
		}
		return val
	}
	return v
}

// clone deep-copies sequences and mappings.
func clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = clone(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = clone(item)
		}
		return out
	}
	return v
}

// normalize converts decoded documents to string-keyed mappings, recursively.
// YAML mappings with non-string keys decode to map[any]any.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	}
	return v
}
