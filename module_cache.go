package crann

import (
	"sync"
)

// ModuleLoader resolves a module path to a loaded module.
//
// A module is opaque to the container. Members are read from it with Lookup;
// class and factory definitions without a member name use the module itself
// as the constructor or function.
type ModuleLoader interface {
	LoadModule(path string) (any, error)
}

// ModuleLoaderFunc adapts a function to the ModuleLoader interface.
type ModuleLoaderFunc func(path string) (any, error)

// LoadModule calls f(path).
func (f ModuleLoaderFunc) LoadModule(path string) (any, error) {
	return f(path)
}

// loadedModule holds a module and ensures it's loaded only once.
type loadedModule struct {
	value any
	err   error
	once  sync.Once
}

// moduleCache wraps a ModuleLoader so every path is loaded at most once,
// even when transient components are realized from several goroutines.
type moduleCache struct {
	loader  ModuleLoader
	modules map[string]*loadedModule
	mu      sync.RWMutex
}

// newModuleCache creates a new module cache.
func newModuleCache(loader ModuleLoader) *moduleCache {
	return &moduleCache{
		loader:  loader,
		modules: make(map[string]*loadedModule),
	}
}

// LoadModule retrieves a loaded module or loads it with the wrapped loader.
// Failures are cached as well.
//
// This method is goroutine-safe.
func (mc *moduleCache) LoadModule(path string) (any, error) {
	// Fast path: check if module exists (read lock)
	mc.mu.RLock()
	module, exists := mc.modules[path]
	mc.mu.RUnlock()

	if !exists {
		// Slow path: create module holder (write lock)
		mc.mu.Lock()
		// Double-check after acquiring write lock
		module, exists = mc.modules[path]
		if !exists {
			module = &loadedModule{}
			mc.modules[path] = module
		}
		mc.mu.Unlock()
	}

	module.once.Do(func() {
		module.value, module.err = mc.loader.LoadModule(path)
	})

	return module.value, module.err
}
