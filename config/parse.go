// Package config turns configuration documents into crann definitions.
//
// A document has two sections:
//
//	parameters:
//	  greeting: hi
//	components:
//	  svc:
//	    class: app/service::Service
//	    with: [1, "@greeting", {list: [1, "@x"]}]
//	    call:
//	      - method: Use
//	        with: ["@middleware"]
//	    tags: {http.handler: /svc}
//	    transient: true
//
// Documents come from YAML, HCL, the environment or code, and are merged
// recursively by Sources before parsing.
package config

import (
	"fmt"
	"sort"
	"strings"

	crann "github.com/toutaio/toutago-crann"
)

const (
	sectionParameters = "parameters"
	sectionComponents = "components"

	fieldModule    = "module"
	fieldProperty  = "property"
	fieldClass     = "class"
	fieldFactory   = "factory"
	fieldValue     = "value"
	fieldWith      = "with"
	fieldCall      = "call"
	fieldMethod    = "method"
	fieldTags      = "tags"
	fieldTransient = "transient"
)

// DefaultSelfMarker is the reference name that resolves to the container.
const DefaultSelfMarker = "container"

// ParseOptions configures Parse.
type ParseOptions struct {
	// BasePath replaces a leading "__" in module paths.
	BasePath string

	// SelfMarker is the name that, written as "@name", references the
	// container itself. Defaults to DefaultSelfMarker.
	SelfMarker string
}

// DescriptorError is returned for a malformed parameter or component entry.
type DescriptorError struct {
	ID     string
	Field  string
	Reason string
}

func (e *DescriptorError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid component %q: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("invalid %s of component %q: %s", e.Field, e.ID, e.Reason)
}

// Parse converts a document into definitions: parameters first, then
// components, each section in sorted id order.
func Parse(doc map[string]any, opts ParseOptions) ([]*crann.Definition, error) {
	if opts.SelfMarker == "" {
		opts.SelfMarker = DefaultSelfMarker
	}
	p := &parser{opts: opts}

	parameters, err := section(doc, sectionParameters)
	if err != nil {
		return nil, err
	}
	components, err := section(doc, sectionComponents)
	if err != nil {
		return nil, err
	}

	defs := make([]*crann.Definition, 0, len(parameters)+len(components))
	for _, id := range sortedKeys(parameters) {
		defs = append(defs, crann.Parameter(id, parameters[id]))
	}
	for _, id := range sortedKeys(components) {
		descriptor, ok := components[id].(map[string]any)
		if !ok {
			return nil, &DescriptorError{ID: id, Reason: fmt.Sprintf("expected a mapping, got %T", components[id])}
		}
		def, err := p.component(id, descriptor)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func section(doc map[string]any, name string) (map[string]any, error) {
	raw, exists := doc[name]
	if !exists || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("section %q must be a mapping, got %T", name, raw)
	}
	return m, nil
}

type parser struct {
	opts ParseOptions
}

// component parses one component descriptor. Exactly one of module,
// property, class, factory or value selects the kind.
func (p *parser) component(id string, d map[string]any) (*crann.Definition, error) {
	var kinds []string
	for _, k := range []string{fieldModule, fieldProperty, fieldClass, fieldFactory, fieldValue} {
		if _, ok := d[k]; ok {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) != 1 {
		return nil, &DescriptorError{ID: id, Reason: fmt.Sprintf(
			"expected exactly one of module, property, class, factory or value, got %d", len(kinds))}
	}
	kind := kinds[0]

	if kind == fieldValue {
		if err := p.rejectConstruction(id, kind, d); err != nil {
			return nil, err
		}
		def := crann.Parameter(id, d[fieldValue])
		return def, p.tags(id, def, d)
	}

	target, ok := d[kind].(string)
	if !ok || target == "" {
		return nil, &DescriptorError{ID: id, Field: kind, Reason: "expected a non-empty string"}
	}
	module, member, hasMember := strings.Cut(target, "::")
	module = p.modulePath(module)

	var def *crann.Definition
	switch kind {
	case fieldModule:
		def = crann.Module(id, p.modulePath(target))
	case fieldProperty:
		if !hasMember || member == "" {
			return nil, &DescriptorError{ID: id, Field: kind, Reason: fmt.Sprintf("expected \"module::property\", got %q", target)}
		}
		def = crann.Property(id, module, member)
	case fieldClass:
		def = crann.Class(id, module, member)
	case fieldFactory:
		def = crann.Factory(id, module, member)
	}

	if kind == fieldModule || kind == fieldProperty {
		if err := p.rejectConstruction(id, kind, d); err != nil {
			return nil, err
		}
		return def, p.tags(id, def, d)
	}

	if err := p.construction(id, def, d); err != nil {
		return nil, err
	}
	return def, p.tags(id, def, d)
}

// rejectConstruction fails when a kind that is not built carries
// construction fields.
func (p *parser) rejectConstruction(id, kind string, d map[string]any) error {
	for _, f := range []string{fieldWith, fieldCall, fieldTransient} {
		if _, ok := d[f]; ok {
			return &DescriptorError{ID: id, Field: f, Reason: fmt.Sprintf("not allowed on a %s component", kind)}
		}
	}
	return nil
}

func (p *parser) construction(id string, def *crann.Definition, d map[string]any) error {
	if raw, ok := d[fieldTransient]; ok && raw != nil {
		transient, ok := raw.(bool)
		if !ok {
			return &DescriptorError{ID: id, Field: fieldTransient, Reason: fmt.Sprintf("expected a bool, got %T", raw)}
		}
		if transient {
			if err := def.SetLifetime(crann.LifetimeTransient); err != nil {
				return err
			}
		}
	}

	args, err := p.args(id, fieldWith, d[fieldWith])
	if err != nil {
		return err
	}
	if err := def.ConstructWith(args...); err != nil {
		return err
	}

	if raw, ok := d[fieldCall]; ok && raw != nil {
		calls, ok := raw.([]any)
		if !ok {
			return &DescriptorError{ID: id, Field: fieldCall, Reason: fmt.Sprintf("expected a sequence, got %T", raw)}
		}
		for i, rawCall := range calls {
			entry, ok := rawCall.(map[string]any)
			if !ok {
				return &DescriptorError{ID: id, Field: fieldCall, Reason: fmt.Sprintf("call %d: expected a mapping, got %T", i, rawCall)}
			}
			method, _ := entry[fieldMethod].(string)
			if method == "" {
				return &DescriptorError{ID: id, Field: fieldCall, Reason: fmt.Sprintf("call %d: missing method", i)}
			}
			callArgs, err := p.args(id, fieldCall, entry[fieldWith])
			if err != nil {
				return err
			}
			call, err := crann.NewCall(method, callArgs...)
			if err != nil {
				return err
			}
			if err := def.AddCall(call); err != nil {
				return err
			}
		}
	}
	return nil
}

// tags attaches tags in sorted name order.
func (p *parser) tags(id string, def *crann.Definition, d map[string]any) error {
	raw, ok := d[fieldTags]
	if !ok || raw == nil {
		return nil
	}
	tags, ok := raw.(map[string]any)
	if !ok {
		return &DescriptorError{ID: id, Field: fieldTags, Reason: fmt.Sprintf("expected a mapping, got %T", raw)}
	}
	for _, name := range sortedKeys(tags) {
		if err := def.AddTag(crann.NewTag(name, tags[name])); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) args(id, field string, raw any) ([]*crann.Definition, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &DescriptorError{ID: id, Field: field, Reason: fmt.Sprintf("expected a sequence, got %T", raw)}
	}
	args := make([]*crann.Definition, len(list))
	for i, v := range list {
		arg, err := p.arg(id, field, v)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

// arg parses one argument: "@..." strings are references, sequences and
// mappings are structures, everything else is a value.
func (p *parser) arg(id, field string, v any) (*crann.Definition, error) {
	switch val := v.(type) {
	case string:
		if ref, ok, err := p.reference(id, field, val); ok || err != nil {
			return ref, err
		}
		return crann.Value(val), nil
	case []any, map[string]any:
		tree, err := p.tree(id, field, val)
		if err != nil {
			return nil, err
		}
		return crann.Structure(tree)
	default:
		return crann.Value(v), nil
	}
}

// tree converts a nested literal, replacing "@..." leaves with references.
func (p *parser) tree(id, field string, v any) (any, error) {
	switch val := v.(type) {
	case string:
		if ref, ok, err := p.reference(id, field, val); ok || err != nil {
			return ref, err
		}
		return val, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			converted, err := p.tree(id, field, item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			converted, err := p.tree(id, field, item)
			if err != nil {
				return nil, err
			}
			out[k] = converted
		}
		return out, nil
	}
	return v, nil
}

// reference parses "@id", "@id::a.b" and the self marker.
func (p *parser) reference(id, field, s string) (*crann.Definition, bool, error) {
	if !strings.HasPrefix(s, "@") {
		return nil, false, nil
	}
	ref := strings.TrimPrefix(s, "@")
	if ref == p.opts.SelfMarker {
		return crann.Self(), true, nil
	}
	target, path, hasPath := strings.Cut(ref, "::")
	if target == "" {
		return nil, false, &DescriptorError{ID: id, Field: field, Reason: fmt.Sprintf("empty reference %q", s)}
	}
	if hasPath {
		if path == "" {
			return nil, false, &DescriptorError{ID: id, Field: field, Reason: fmt.Sprintf("empty path in reference %q", s)}
		}
		return crann.ReferencePath(target, path), true, nil
	}
	return crann.Reference(target), true, nil
}

func (p *parser) modulePath(module string) string {
	if p.opts.BasePath != "" && strings.HasPrefix(module, "__") {
		return p.opts.BasePath + strings.TrimPrefix(module, "__")
	}
	return module
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
