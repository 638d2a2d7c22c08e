// Package registry provides thread-safe, write-once storage of realized components.
package registry

import (
	"fmt"
	"sync"
)

// Entry represents one component stored under a unique id.
type Entry struct {
	// ID is the component id
	ID string

	// Lifetime defines how the entry is resolved
	// Values: "singleton", "transient"
	Lifetime string

	// Value is the realized instance of a singleton entry
	Value interface{}

	// Producer creates instances of a transient entry
	// Only used when Lifetime is "transient"; stores the container's producer func
	Producer interface{}
}

// Transient reports whether the entry produces a new instance on every resolution.
func (e *Entry) Transient() bool {
	return e.Lifetime == "transient"
}

// Registry provides thread-safe storage for entries.
// Entries are kept in registration order. Once locked, no entry can be added.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
	locked  bool
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register stores an entry in the registry.
// Returns an error if the registry is locked or the id already exists.
//
// This method is goroutine-safe.
func (r *Registry) Register(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		return &LockedError{ID: entry.ID}
	}

	// Check for duplicate
	if _, exists := r.entries[entry.ID]; exists {
		return &AlreadyExistsError{ID: entry.ID}
	}

	r.entries[entry.ID] = entry
	r.order = append(r.order, entry.ID)
	return nil
}

// Get retrieves an entry by its id.
// Returns nil entry and error if not found.
//
// This method is goroutine-safe.
func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return nil, &NotFoundError{ID: id}
	}

	return entry, nil
}

// Has checks if an entry exists for the given id.
//
// This method is goroutine-safe.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.entries[id]
	return exists
}

// IDs returns all ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Entries returns all entries in registration order.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*Entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.entries[id])
	}
	return entries
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Lock prevents any further registration. Locking is irreversible.
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.locked = true
}

// Locked reports whether the registry has been locked.
func (r *Registry) Locked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.locked
}

// AlreadyExistsError is returned when attempting to register a duplicate id.
type AlreadyExistsError struct {
	ID string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("entry already exists for id %q", e.ID)
}

// NotFoundError is returned when a requested id does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry not found for id %q", e.ID)
}

// LockedError is returned when registering into a locked registry.
type LockedError struct {
	ID string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("registry is locked, can't register %q", e.ID)
}
