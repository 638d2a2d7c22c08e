// Package loader provides an in-process module catalog usable as a
// crann.ModuleLoader.
//
// Go cannot load code by path at runtime, so modules are registered up front
// under the path definitions use to refer to them. Relative paths are
// resolved against the catalog root the same way on registration and on
// load.
package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Catalog is a path-keyed set of modules.
type Catalog struct {
	root string

	mu      sync.RWMutex
	modules map[string]any
}

// NewCatalog creates an empty catalog resolving relative paths against root.
func NewCatalog(root string) *Catalog {
	return &Catalog{
		root:    root,
		modules: make(map[string]any),
	}
}

// Root returns the directory relative paths are resolved against.
func (c *Catalog) Root() string {
	return c.root
}

// Path resolves a module path.
//
// Absolute paths and bare names (anything not starting with "." or "/") are
// returned unchanged. Paths starting with "./" or "../" are joined to the
// catalog root.
func (c *Catalog) Path(module string) string {
	if filepath.IsAbs(module) {
		return module
	}
	if module != "" && !strings.HasPrefix(module, ".") && !strings.HasPrefix(module, "/") {
		return module
	}
	return filepath.Join(c.root, module)
}

// Register adds a module under path.
// Returns an error if the path is empty, the module is nil or the resolved
// path is already registered.
//
// This method is goroutine-safe.
func (c *Catalog) Register(path string, module any) error {
	if path == "" {
		return fmt.Errorf("module path cannot be empty")
	}
	if module == nil {
		return fmt.Errorf("module %q cannot be nil", path)
	}

	resolved := c.Path(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.modules[resolved]; exists {
		return &AlreadyRegisteredError{Path: resolved}
	}
	c.modules[resolved] = module
	return nil
}

// MustRegister is like Register but panics on error.
func (c *Catalog) MustRegister(path string, module any) {
	if err := c.Register(path, module); err != nil {
		panic(err)
	}
}

// LoadModule returns the module registered under path.
// It implements crann.ModuleLoader.
func (c *Catalog) LoadModule(path string) (any, error) {
	resolved := c.Path(path)

	c.mu.RLock()
	defer c.mu.RUnlock()

	module, exists := c.modules[resolved]
	if !exists {
		return nil, &NotFoundError{Path: resolved}
	}
	return module, nil
}

// Paths returns the resolved paths of all registered modules, sorted.
func (c *Catalog) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]string, 0, len(c.modules))
	for p := range c.modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// NotFoundError is returned when no module is registered under a path.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cannot find module %q", e.Path)
}

// AlreadyRegisteredError is returned when a path is registered twice.
type AlreadyRegisteredError struct {
	Path string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("module %q already registered", e.Path)
}
