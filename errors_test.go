package crann

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Messages(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		err  error
		want string
	}{
		{&DuplicateDefinitionError{ID: "a"}, `duplicate definition "a"`},
		{&UnknownDefinitionError{ID: "a"}, `unknown definition "a"`},
		{&UnknownDefinitionError{ID: "a", ReferencedBy: "b"}, `unknown definition "a" referenced by "b"`},
		{&UnknownComponentError{ID: "a"}, `unrecognised component "a"`},
		{&CyclicDependencyError{}, "cyclic dependency detected"},
		{&CyclicDependencyError{Path: []string{"a", "b", "a"}}, "cyclic dependency detected: a -> b -> a"},
		{&ModuleLoadError{ID: "a", Module: "m", Cause: cause}, `can't load module "m" for definition "a": cause`},
		{&ClassNotFoundError{ID: "a", Module: "m", Name: "C"}, `can't find class "C" in module "m" for definition "a"`},
		{&ClassNotFoundError{ID: "a", Module: "m", Factory: true, Reason: "nope"}, `can't find factory "<module>" in module "m" for definition "a": nope`},
		{&MissingPropertyError{ID: "a", Module: "m", Property: "P"}, `can't locate property "P" from module "m" for definition "a"`},
		{&MissingMethodError{ID: "a", Method: "M"}, `method "M" not found on nil for definition "a"`},
		{&UnsupportedDefinitionError{Kind: KindValue}, `unsupported value definition "<anonymous>"`},
		{&UnsupportedDefinitionError{ID: "a", Kind: KindClass, Reason: "r"}, `unsupported class definition "a": r`},
		{&ContainerLockedError{ID: "a"}, `container is locked, can't register component "a"`},
		{&DuplicateComponentError{ID: "a"}, `component "a" already registered`},
		{&InvalidArgumentTypeError{ID: "a", Position: 2, Reason: "r"}, `unexpected argument 2 for definition "a": r`},
		{&ArgumentError{ID: "a", Target: "f", Position: -1, Reason: "r"}, `invalid arguments to f for definition "a": r`},
		{&ArgumentError{ID: "a", Target: "f", Position: 0, Reason: "r"}, `invalid argument 0 to f for definition "a": r`},
		{&CallError{ID: "a", Target: "f", Cause: cause}, `f failed for definition "a": cause`},
		{&InvalidPathError{Reference: "a", Path: "x.y", Segment: "y"}, `can't resolve "y" in path "x.y" of reference to "a"`},
		{&RealizationError{ID: "a", Kind: KindFactory, Cause: cause}, `failed to realize factory "a": cause`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("cause")

	for _, err := range []error{
		&ModuleLoadError{Cause: cause},
		&CallError{Cause: cause},
		&RealizationError{Cause: cause},
		&DisposalError{Errors: []error{errors.New("other"), cause}},
	} {
		assert.ErrorIs(t, err, cause)
	}
}

func TestComponentTypeError_Message(t *testing.T) {
	err := &ComponentTypeError{ID: "a", Expected: reflect.TypeOf("")}
	assert.Equal(t, `component "a" is nil, not string`, err.Error())
}
