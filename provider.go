package crann

import (
	"fmt"
)

// Pass is a wiring step run against the raw definition set at the start of
// Build, before the dependency graph is computed. Passes typically query
// definitions by tag and add calls or arguments to other definitions.
//
// Example:
//
//	type RoutesPass struct{}
//
//	func (p *RoutesPass) Process(b *crann.Builder) error {
//	    router, err := b.DefinitionByID("router")
//	    if err != nil {
//	        return err
//	    }
//	    for _, def := range b.DefinitionsByTag("route") {
//	        call, _ := crann.NewCall("Handle", crann.Reference(def.ID()))
//	        router.AddCall(call)
//	    }
//	    return nil
//	}
type Pass interface {
	Process(b *Builder) error
}

// PassFunc adapts a function to the Pass interface.
type PassFunc func(b *Builder) error

// Process calls f(b).
func (f PassFunc) Process(b *Builder) error {
	return f(b)
}

// CollectTagged returns a pass that appends, for every definition tagged tag,
// a call to method on the definition targetID with a reference to the tagged
// definition as sole argument. Tagged definitions are visited in
// registration order.
//
// Example:
//
//	builder.AddPass(crann.CollectTagged("logger.transport", "logger", "AddTransport"))
func CollectTagged(tag, targetID, method string) Pass {
	return PassFunc(func(b *Builder) error {
		target, err := b.DefinitionByID(targetID)
		if err != nil {
			return fmt.Errorf("collect %q: %w", tag, err)
		}
		for _, def := range b.DefinitionsByTag(tag) {
			if def.id == targetID {
				continue
			}
			call, err := NewCall(method, Reference(def.id))
			if err != nil {
				return err
			}
			if err := target.AddCall(call); err != nil {
				return fmt.Errorf("collect %q: %w", tag, err)
			}
		}
		return nil
	})
}
