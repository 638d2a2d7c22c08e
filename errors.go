package crann

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/muir/reflectutils"
)

// ErrBuilderConsumed is returned when a Builder is used after Build was called.
var ErrBuilderConsumed = errors.New("builder has already been built; create a new Builder")

// DuplicateDefinitionError is returned when a definition id is added twice.
type DuplicateDefinitionError struct {
	ID string
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("duplicate definition %q", e.ID)
}

// UnknownDefinitionError is returned when a definition id does not exist.
// ReferencedBy is set when the missing id was found as a reference target.
type UnknownDefinitionError struct {
	ID           string
	ReferencedBy string
}

func (e *UnknownDefinitionError) Error() string {
	if e.ReferencedBy != "" {
		return fmt.Sprintf("unknown definition %q referenced by %q", e.ID, e.ReferencedBy)
	}
	return fmt.Sprintf("unknown definition %q", e.ID)
}

// UnknownComponentError is returned when a component is not in the container.
type UnknownComponentError struct {
	ID string
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("unrecognised component %q", e.ID)
}

// CyclicDependencyError indicates the definitions reference each other in a cycle.
// Path starts and ends with the same id.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "cyclic dependency detected"
	}
	return fmt.Sprintf("cyclic dependency detected: %s", strings.Join(e.Path, " -> "))
}

// ModuleLoadError is returned when the module loader fails.
type ModuleLoadError struct {
	ID     string
	Module string
	Cause  error
}

func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("can't load module %q for definition %q: %v", e.Module, e.ID, e.Cause)
}

// Unwrap returns the underlying loader error.
func (e *ModuleLoadError) Unwrap() error {
	return e.Cause
}

// ClassNotFoundError is returned when a class or factory target can't be found
// in its module, or when the value found is not constructible.
type ClassNotFoundError struct {
	ID      string
	Module  string
	Name    string
	Factory bool
	Reason  string
}

func (e *ClassNotFoundError) Error() string {
	what := "class"
	if e.Factory {
		what = "factory"
	}
	name := e.Name
	if name == "" {
		name = "<module>"
	}
	msg := fmt.Sprintf("can't find %s %q in module %q for definition %q", what, name, e.Module, e.ID)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// MissingPropertyError is returned when a property is absent from its module.
type MissingPropertyError struct {
	ID       string
	Module   string
	Property string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("can't locate property %q from module %q for definition %q", e.Property, e.Module, e.ID)
}

// MissingMethodError is returned when a call names a method the instance lacks.
type MissingMethodError struct {
	ID     string
	Method string
	Type   reflect.Type
}

func (e *MissingMethodError) Error() string {
	typeStr := "nil"
	if e.Type != nil {
		typeStr = reflectutils.TypeName(e.Type)
	}
	return fmt.Sprintf("method %q not found on %s for definition %q", e.Method, typeStr, e.ID)
}

// UnsupportedDefinitionError is returned for a definition kind that can't be
// used in the requested position.
type UnsupportedDefinitionError struct {
	ID     string
	Kind   Kind
	Reason string
}

func (e *UnsupportedDefinitionError) Error() string {
	id := e.ID
	if id == "" {
		id = "<anonymous>"
	}
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s definition %q: %s", e.Kind, id, e.Reason)
	}
	return fmt.Sprintf("unsupported %s definition %q", e.Kind, id)
}

// ContainerLockedError is returned when registering into a locked container.
type ContainerLockedError struct {
	ID string
}

func (e *ContainerLockedError) Error() string {
	return fmt.Sprintf("container is locked, can't register component %q", e.ID)
}

// DuplicateComponentError is returned when a component id is registered twice.
type DuplicateComponentError struct {
	ID string
}

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("component %q already registered", e.ID)
}

// InvalidArgumentTypeError is returned when something other than an anonymous
// argument definition is given where one is required.
type InvalidArgumentTypeError struct {
	ID       string
	Position int
	Reason   string
}

func (e *InvalidArgumentTypeError) Error() string {
	return fmt.Sprintf("unexpected argument %d for definition %q: %s", e.Position, e.ID, e.Reason)
}

// ArgumentError is returned when a realized argument can't be passed to a
// constructor, factory or method.
type ArgumentError struct {
	ID       string
	Target   string
	Position int
	Reason   string
}

func (e *ArgumentError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("invalid arguments to %s for definition %q: %s", e.Target, e.ID, e.Reason)
	}
	return fmt.Sprintf("invalid argument %d to %s for definition %q: %s", e.Position, e.Target, e.ID, e.Reason)
}

// CallError wraps an error returned by a constructor, factory or method.
type CallError struct {
	ID     string
	Target string
	Cause  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s failed for definition %q: %v", e.Target, e.ID, e.Cause)
}

// Unwrap returns the error returned by the call.
func (e *CallError) Unwrap() error {
	return e.Cause
}

// InvalidPathError is returned when a reference path can't be projected.
type InvalidPathError struct {
	Reference string
	Path      string
	Segment   string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("can't resolve %q in path %q of reference to %q", e.Segment, e.Path, e.Reference)
}

// ComponentTypeError is returned by Resolve when a component has an unexpected type.
type ComponentTypeError struct {
	ID       string
	Expected reflect.Type
	Actual   reflect.Type
}

func (e *ComponentTypeError) Error() string {
	actual := "nil"
	if e.Actual != nil {
		actual = reflectutils.TypeName(e.Actual)
	}
	return fmt.Sprintf("component %q is %s, not %s", e.ID, actual, reflectutils.TypeName(e.Expected))
}

// RealizationError wraps any failure raised while realizing a definition.
type RealizationError struct {
	ID    string
	Kind  Kind
	Cause error
}

func (e *RealizationError) Error() string {
	return fmt.Sprintf("failed to realize %s %q: %v", e.Kind, e.ID, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RealizationError) Unwrap() error {
	return e.Cause
}
