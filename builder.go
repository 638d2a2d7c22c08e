package crann

import (
	"fmt"
	"io"
	"log/slog"
)

// Builder collects definitions and builds them into a locked Container.
// A Builder is single-use: after Build it rejects every further change.
type Builder struct {
	loader       ModuleLoader
	definitions  map[string]*Definition
	order        []string
	passes       []Pass
	logger       *slog.Logger
	cacheModules bool
	building     bool
	built        bool
}

// NewBuilder creates a new Builder that loads modules with loader.
// Options can be provided to configure the builder behavior.
//
// Example:
//
//	builder := crann.NewBuilder(catalog)
//	// or with options:
//	builder := crann.NewBuilder(catalog, crann.WithLogger(logger))
func NewBuilder(loader ModuleLoader, options ...Option) *Builder {
	b := &Builder{
		loader:       loader,
		definitions:  make(map[string]*Definition),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		cacheModules: true,
	}

	// Apply options
	for _, opt := range options {
		if err := opt(b); err != nil {
			panic(fmt.Sprintf("failed to apply option: %v", err))
		}
	}

	return b
}

// AddDefinition registers an identified definition.
//
// Returns an error if:
//   - def is nil (InvalidArgumentTypeError)
//   - def is anonymous or has no id (UnsupportedDefinitionError)
//   - the id is already registered (DuplicateDefinitionError)
//   - the builder has already been built (ErrBuilderConsumed)
func (b *Builder) AddDefinition(def *Definition) error {
	if b.built {
		return ErrBuilderConsumed
	}
	if def == nil {
		return &InvalidArgumentTypeError{Position: -1, Reason: "expected a definition, got nil"}
	}
	if def.Anonymous() {
		return &UnsupportedDefinitionError{ID: def.id, Kind: def.kind, Reason: "anonymous definitions can only be used as arguments"}
	}
	if def.id == "" {
		return &UnsupportedDefinitionError{Kind: def.kind, Reason: "definition id cannot be empty"}
	}
	if _, exists := b.definitions[def.id]; exists {
		return &DuplicateDefinitionError{ID: def.id}
	}

	b.definitions[def.id] = def
	b.order = append(b.order, def.id)
	return nil
}

// AddDefinitions registers several definitions, stopping at the first error.
func (b *Builder) AddDefinitions(defs ...*Definition) error {
	for _, def := range defs {
		if err := b.AddDefinition(def); err != nil {
			return err
		}
	}
	return nil
}

// DefinitionByID returns the registered definition with the given id.
func (b *Builder) DefinitionByID(id string) (*Definition, error) {
	def, exists := b.definitions[id]
	if !exists {
		return nil, &UnknownDefinitionError{ID: id}
	}
	return def, nil
}

// DefinitionsByTag returns the definitions carrying a tag named name, in
// registration order.
func (b *Builder) DefinitionsByTag(name string) []*Definition {
	var result []*Definition
	for _, id := range b.order {
		if def := b.definitions[id]; def.HasTag(name) {
			result = append(result, def)
		}
	}
	return result
}

// Definitions returns every registered definition in registration order.
func (b *Builder) Definitions() []*Definition {
	defs := make([]*Definition, 0, len(b.order))
	for _, id := range b.order {
		defs = append(defs, b.definitions[id])
	}
	return defs
}

// AddPass registers a pass run at the start of Build.
func (b *Builder) AddPass(p Pass) error {
	if b.built || b.building {
		return ErrBuilderConsumed
	}
	if p == nil {
		return fmt.Errorf("pass cannot be nil")
	}
	b.passes = append(b.passes, p)
	return nil
}

// Graph returns the dependency graph of the current definition set.
func (b *Builder) Graph() *Graph {
	return NewGraph(b.Definitions())
}

// Build realizes every definition into a new locked Container.
//
// Passes run first, then the dependency graph is ordered and each definition
// is realized after all the definitions it references. Singletons are
// realized immediately; transient definitions are registered as producers.
// Any failure aborts the build and no container is returned.
//
// Build can be called once per Builder. Passes may still add definitions.
func (b *Builder) Build() (*Container, error) {
	if b.built || b.building {
		return nil, ErrBuilderConsumed
	}
	b.building = true
	defer func() {
		b.building = false
		b.built = true
	}()

	for _, p := range b.passes {
		if err := p.Process(b); err != nil {
			return nil, fmt.Errorf("pass failed: %w", err)
		}
	}

	order, err := b.Graph().Order()
	if err != nil {
		return nil, err
	}

	loader := b.loader
	if loader == nil {
		loader = ModuleLoaderFunc(func(path string) (any, error) {
			return nil, fmt.Errorf("no module loader configured")
		})
	}
	if b.cacheModules {
		loader = newModuleCache(loader)
	}

	r := &realizer{loader: loader, logger: b.logger}
	container := newContainer(b.logger)

	for _, id := range order {
		def := b.definitions[id]

		if def.kind == KindFactory && len(def.calls) > 0 {
			b.logger.Warn("calls on factory definitions are not invoked", "id", id, "calls", len(def.calls))
		}

		value, producer, err := r.realize(def, container)
		if err != nil {
			return nil, err
		}

		if producer != nil {
			err = container.RegisterTransient(id, producer)
		} else {
			err = container.Register(id, value)
		}
		if err != nil {
			return nil, err
		}

		b.logger.Debug("realized definition",
			"id", id,
			"kind", def.kind.String(),
			"lifetime", def.Lifetime().String(),
			"args", describeArgs(def.args),
		)
	}

	container.Lock()
	b.logger.Info("container built", "components", len(order))
	return container, nil
}
