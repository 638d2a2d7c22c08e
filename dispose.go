package crann

import (
	"fmt"
)

// Disposable represents a component that requires cleanup.
// Singleton components implementing this interface have Dispose called
// when their container is closed.
//
// Example:
//
//	type DatabaseConnection struct {}
//	func (d *DatabaseConnection) Dispose() error {
//	    return d.connection.Close()
//	}
type Disposable interface {
	Dispose() error
}

// Close releases resources held by the container's singletons.
// Calls Dispose() on all singleton values implementing Disposable in reverse
// registration order, so dependents are disposed before their dependencies.
// Transient instances belong to their callers and are not tracked.
//
// Close is idempotent; later calls return the result of the first one.
// Components remain retrievable after Close.
func (c *Container) Close() error {
	c.closeOnce.Do(func() {
		var errs []error

		entries := c.registry.Entries()
		for i := len(entries) - 1; i >= 0; i-- {
			entry := entries[i]
			if entry.Transient() {
				continue
			}
			disposable, ok := entry.Value.(Disposable)
			if !ok {
				continue
			}
			c.logger.Debug("disposing component", "id", entry.ID)
			if err := disposable.Dispose(); err != nil {
				errs = append(errs, fmt.Errorf("disposal error for %q: %w", entry.ID, err))
			}
		}

		if len(errs) > 0 {
			c.closeErr = &DisposalError{Errors: errs}
		}
	})
	return c.closeErr
}

// DisposalError collects the errors returned while closing a container.
type DisposalError struct {
	Errors []error
}

func (e *DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("container close: %v", e.Errors[0])
	}
	return fmt.Sprintf("container close encountered %d error(s): %v", len(e.Errors), e.Errors)
}

// Unwrap returns the individual disposal errors.
func (e *DisposalError) Unwrap() []error {
	return e.Errors
}
