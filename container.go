package crann

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/toutaio/toutago-crann/registry"
)

// Container is the id-keyed registry of realized components produced by
// Builder.Build. It is written once and then locked; after that it can only
// be read. Transient components keep producing fresh instances.
type Container struct {
	registry *registry.Registry
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewContainer creates an empty, unlocked container.
func NewContainer() *Container {
	return newContainer(nil)
}

func newContainer(logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Container{
		registry: registry.New(),
		logger:   logger,
	}
}

// Register stores a singleton value under id.
//
// Returns an error if:
//   - The container is locked (ContainerLockedError)
//   - The id is already registered (DuplicateComponentError)
func (c *Container) Register(id string, value any) error {
	return c.register(&registry.Entry{
		ID:       id,
		Lifetime: string(LifetimeSingleton),
		Value:    value,
	})
}

// RegisterTransient stores a producer under id. Every Get invokes it.
func (c *Container) RegisterTransient(id string, producer Producer) error {
	if producer == nil {
		return &InvalidArgumentTypeError{ID: id, Position: -1, Reason: "producer cannot be nil"}
	}
	return c.register(&registry.Entry{
		ID:       id,
		Lifetime: string(LifetimeTransient),
		Producer: producer,
	})
}

func (c *Container) register(entry *registry.Entry) error {
	err := c.registry.Register(entry)
	if err == nil {
		return nil
	}

	var locked *registry.LockedError
	if errors.As(err, &locked) {
		return &ContainerLockedError{ID: entry.ID}
	}
	var exists *registry.AlreadyExistsError
	if errors.As(err, &exists) {
		return &DuplicateComponentError{ID: entry.ID}
	}
	return err
}

// Get returns the component registered under id.
//
// Singletons return the same instance on every call. Transient components
// are produced anew on every call and never memoized.
func (c *Container) Get(id string) (any, error) {
	entry, err := c.registry.Get(id)
	if err != nil {
		return nil, &UnknownComponentError{ID: id}
	}

	if !entry.Transient() {
		return entry.Value, nil
	}

	producer, ok := entry.Producer.(Producer)
	if !ok {
		return nil, fmt.Errorf("invalid producer for transient component %q", id)
	}
	return producer(c)
}

// MustGet is like Get but panics if the component can't be returned.
//
// Example:
//
//	logger := container.MustGet("logger").(*Logger)
func (c *Container) MustGet(id string) any {
	instance, err := c.Get(id)
	if err != nil {
		panic(err)
	}
	return instance
}

// Has reports whether a component is registered under id.
func (c *Container) Has(id string) bool {
	return c.registry.Has(id)
}

// IDs returns the registered component ids in registration order.
func (c *Container) IDs() []string {
	return c.registry.IDs()
}

// IsTransient reports whether id is registered as a transient component.
func (c *Container) IsTransient(id string) bool {
	entry, err := c.registry.Get(id)
	return err == nil && entry.Transient()
}

// Lock prevents any further registration. Locking is irreversible.
func (c *Container) Lock() {
	c.registry.Lock()
}

// Locked reports whether the container has been locked.
func (c *Container) Locked() bool {
	return c.registry.Locked()
}

// Resolve returns the component registered under id as a T.
//
// Example:
//
//	svc, err := crann.Resolve[*Service](container, "svc")
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T

	instance, err := c.Get(id)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		// nil is a valid component for interface types
		if instance == nil && reflect.TypeOf((*T)(nil)).Elem().Kind() == reflect.Interface {
			return zero, nil
		}
		return zero, &ComponentTypeError{
			ID:       id,
			Expected: reflect.TypeOf((*T)(nil)).Elem(),
			Actual:   reflect.TypeOf(instance),
		}
	}
	return typed, nil
}
