package crann

import (
	"reflect"
	"sync"

	"github.com/muir/reflectutils"
)

// members is the process-wide struct member cache used by Lookup.
var members = newReflectionCache()

// reflectionCache caches struct member metadata to avoid repeated type analysis.
type reflectionCache struct {
	mu sync.RWMutex

	// Member name to field index, per struct type
	fields map[reflect.Type]map[string][]int

	// Exported fields in declaration order, per struct type
	ordered map[reflect.Type][]reflect.StructField
}

// newReflectionCache creates a new reflection cache.
func newReflectionCache() *reflectionCache {
	return &reflectionCache{
		fields:  make(map[reflect.Type]map[string][]int),
		ordered: make(map[reflect.Type][]reflect.StructField),
	}
}

// fieldIndex returns the index of the member called name in a struct type.
func (rc *reflectionCache) fieldIndex(typ reflect.Type, name string) ([]int, bool) {
	index, ok := rc.getFieldInfo(typ)[name]
	return index, ok
}

// getFieldInfo retrieves or computes the member index of a struct type.
func (rc *reflectionCache) getFieldInfo(typ reflect.Type) map[string][]int {
	// Fast path: check cache with read lock
	rc.mu.RLock()
	fields, exists := rc.fields[typ]
	rc.mu.RUnlock()

	if exists {
		return fields
	}

	// Slow path: compute and cache with write lock
	rc.mu.Lock()
	defer rc.mu.Unlock()

	// Double-check after acquiring write lock
	fields, exists = rc.fields[typ]
	if exists {
		return fields
	}

	fields = make(map[string][]int)
	reflectutils.WalkStructElements(typ, func(field reflect.StructField) bool {
		embedded := field.Anonymous && field.Type.Kind() == reflect.Struct
		if field.PkgPath != "" {
			return embedded
		}

		opts := parseMemberTag(field.Tag.Get("crann"))
		if opts.skip {
			return false
		}

		name := field.Name
		if opts.name != "" {
			name = opts.name
		}

		// Shallower fields shadow promoted ones, as in Go selectors.
		if existing, ok := fields[name]; !ok || len(field.Index) < len(existing) {
			fields[name] = field.Index
		}
		return embedded
	})

	rc.fields[typ] = fields
	return fields
}

// exportedFields returns the top-level exported fields of a struct type in
// declaration order. Used for positional struct construction.
func (rc *reflectionCache) exportedFields(typ reflect.Type) []reflect.StructField {
	rc.mu.RLock()
	fields, exists := rc.ordered[typ]
	rc.mu.RUnlock()

	if exists {
		return fields
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	fields, exists = rc.ordered[typ]
	if exists {
		return fields
	}

	fields = make([]reflect.StructField, 0, typ.NumField())
	reflectutils.WalkStructElements(typ, func(field reflect.StructField) bool {
		if len(field.Index) == 1 && field.PkgPath == "" && !parseMemberTag(field.Tag.Get("crann")).skip {
			fields = append(fields, field)
		}
		return false
	})

	rc.ordered[typ] = fields
	return fields
}

// clear clears all cached data.
func (rc *reflectionCache) clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.fields = make(map[reflect.Type]map[string][]int)
	rc.ordered = make(map[reflect.Type][]reflect.StructField)
}
