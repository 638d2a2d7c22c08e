// Package crann builds dependency-injection containers from declarative
// definitions.
//
// Crann (Irish: "tree") takes a set of Definitions, orders them by the
// references between them, realizes each one exactly once (or on every
// retrieval for transient components), and stores the results in a locked,
// read-only Container.
//
// # Features
//
//   - Parameters, modules, module properties, classes and factories
//   - Constructor arguments and post-construction method calls
//   - References with dotted member paths, container self-references
//   - Nested list and map arguments with embedded references
//   - Singleton and transient lifetimes
//   - Tags and build passes for pre-build wiring
//   - Cycle detection with the offending path
//
// # Quick Start
//
// Definitions name modules by path. A ModuleLoader turns a path into a
// module value, which can be a constructor function, a struct type, a map of
// exports or any struct with exported fields and methods:
//
//	catalog := loader.NewCatalog("")
//	catalog.MustRegister("app/greeter", map[string]any{"NewGreeter": NewGreeter})
//
//	builder := crann.NewBuilder(catalog)
//	builder.AddDefinition(crann.Parameter("greeting", "hi"))
//
//	greeter := crann.Class("greeter", "app/greeter", "NewGreeter")
//	greeter.ConstructWith(crann.Reference("greeting"))
//	builder.AddDefinition(greeter)
//
//	container, err := builder.Build()
//	g, err := crann.Resolve[*Greeter](container, "greeter")
//
// # Lifetimes
//
// Singleton (default) - realized once during Build:
//
//	def := crann.Class("cache", "app/cache", "")
//
// Transient - realized on every Get:
//
//	def := crann.Class("request", "app/http", "NewRequest")
//	def.SetLifetime(crann.LifetimeTransient)
//
// # Tags and Passes
//
// Passes run at the start of Build and can rewrite the definition set:
//
//	builder.AddPass(crann.CollectTagged("logger.transport", "logger", "AddTransport"))
//
// # Configuration
//
// The config package turns YAML, HCL, environment variables and inline values
// into definitions; the kernel package wires a loader, the configuration
// sources and the builder together.
//
// # Error Handling
//
// All failures are returned as typed errors and can be inspected with
// errors.As:
//
//	var cycle *crann.CyclicDependencyError
//	if errors.As(err, &cycle) {
//	    fmt.Println(cycle.Path)
//	}
package crann
