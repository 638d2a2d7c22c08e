package crann

import (
	"fmt"
	"log/slog"
	"reflect"
)

// realizer turns definitions into values. It holds no per-build state, so
// transient producers can share it after Build returns.
type realizer struct {
	loader ModuleLoader
	logger *slog.Logger
}

// plan is the part of a class or factory realization done once, during
// Build: the module is loaded and the target resolved.
type plan struct {
	def     *Definition
	target  string
	class   *constructorInfo
	factory *callableInfo
}

// realize produces the value of an identified definition. Transient class and
// factory definitions return a producer instead of a value.
func (r *realizer) realize(def *Definition, c *Container) (any, Producer, error) {
	switch def.kind {
	case KindParameter:
		return def.value, nil, nil

	case KindModule:
		module, err := r.load(def)
		if err != nil {
			return nil, nil, err
		}
		return module, nil, nil

	case KindProperty:
		module, err := r.load(def)
		if err != nil {
			return nil, nil, err
		}
		property, _, ok := Project(module, def.member)
		if !ok || def.member == "" {
			return nil, nil, &MissingPropertyError{ID: def.id, Module: def.module, Property: def.member}
		}
		return property, nil, nil

	case KindClass, KindFactory:
		p, err := r.prepare(def)
		if err != nil {
			return nil, nil, err
		}
		if def.Transient() {
			producer := func(c *Container) (any, error) {
				instance, err := r.instantiate(p, c)
				if err != nil {
					return nil, &RealizationError{ID: def.id, Kind: def.kind, Cause: err}
				}
				return instance, nil
			}
			return nil, producer, nil
		}
		instance, err := r.instantiate(p, c)
		if err != nil {
			return nil, nil, err
		}
		return instance, nil, nil

	default:
		return nil, nil, &UnsupportedDefinitionError{ID: def.id, Kind: def.kind}
	}
}

func (r *realizer) load(def *Definition) (any, error) {
	module, err := r.loader.LoadModule(def.module)
	if err != nil {
		return nil, &ModuleLoadError{ID: def.id, Module: def.module, Cause: err}
	}
	return module, nil
}

// prepare loads the module of a class or factory and resolves its target.
func (r *realizer) prepare(def *Definition) (*plan, error) {
	module, err := r.load(def)
	if err != nil {
		return nil, err
	}

	isFactory := def.kind == KindFactory
	notFound := func(reason string) error {
		return &ClassNotFoundError{ID: def.id, Module: def.module, Name: def.member, Factory: isFactory, Reason: reason}
	}

	target := module
	name := def.module
	if def.member != "" {
		var ok bool
		target, _, ok = Project(module, def.member)
		if !ok {
			return nil, notFound("")
		}
		name = def.module + "::" + def.member
	}
	if target == nil {
		return nil, notFound("target is nil")
	}

	p := &plan{def: def, target: name}
	if isFactory {
		p.factory, err = parseCallable(target)
	} else {
		p.class, err = parseConstructor(name, target)
	}
	if err != nil {
		return nil, notFound(err.Error())
	}
	return p, nil
}

// instantiate builds one instance from a plan: arguments are resolved in
// declaration order, the target is invoked, then calls are applied in order.
func (r *realizer) instantiate(p *plan, c *Container) (any, error) {
	def := p.def

	args, err := r.resolveArgs(def.args, c)
	if err != nil {
		return nil, err
	}

	if p.factory != nil {
		return p.factory.invoke(def.id, p.target, args)
	}

	instance, err := p.class.construct(def.id, args)
	if err != nil {
		return nil, err
	}

	for _, call := range def.calls {
		if err := r.call(def, instance, call, c); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// call invokes one post-construction method on instance.
func (r *realizer) call(def *Definition, instance any, call *Call, c *Container) error {
	value := reflect.ValueOf(instance)
	if !value.IsValid() {
		return &MissingMethodError{ID: def.id, Method: call.Method}
	}

	method := value.MethodByName(call.Method)
	if !method.IsValid() {
		return &MissingMethodError{ID: def.id, Method: call.Method, Type: value.Type()}
	}

	callable, err := parseCallable(method.Interface())
	if err != nil {
		return &MissingMethodError{ID: def.id, Method: call.Method, Type: value.Type()}
	}

	args, err := r.resolveArgs(call.Args, c)
	if err != nil {
		return err
	}

	r.logger.Debug("calling method", "id", def.id, "method", call.Method, "args", len(args))
	_, err = callable.invoke(def.id, fmt.Sprintf("method %s", call.Method), args)
	return err
}

// resolveArgs resolves arguments in declaration order.
func (r *realizer) resolveArgs(args []*Definition, c *Container) ([]any, error) {
	values := make([]any, len(args))
	for i, arg := range args {
		value, err := r.resolveArg(arg, c)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

// resolveArg resolves one anonymous argument definition.
func (r *realizer) resolveArg(arg *Definition, c *Container) (any, error) {
	switch arg.kind {
	case KindValue:
		return arg.value, nil

	case KindReference:
		target := arg.Target()
		component, err := c.Get(target)
		if err != nil {
			return nil, err
		}
		projected, segment, ok := Project(component, arg.path)
		if !ok {
			return nil, &InvalidPathError{Reference: target, Path: arg.path, Segment: segment}
		}
		return projected, nil

	case KindSelf:
		return c, nil

	case KindStructure:
		return r.resolveNode(arg.node, c)

	default:
		return nil, &UnsupportedDefinitionError{ID: arg.id, Kind: arg.kind, Reason: "not usable as an argument"}
	}
}

// resolveNode rebuilds a structure with the same shape, resolving every
// embedded definition.
func (r *realizer) resolveNode(n Node, c *Container) (any, error) {
	switch n.kind {
	case NodeDefinition:
		return r.resolveArg(n.def, c)

	case NodeSequence:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			value, err := r.resolveNode(item, c)
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil

	case NodeMapping:
		out := make(map[string]any, len(n.keys))
		for _, key := range n.keys {
			value, err := r.resolveNode(n.fields[key], c)
			if err != nil {
				return nil, err
			}
			out[key] = value
		}
		return out, nil

	default:
		return n.scalar, nil
	}
}
