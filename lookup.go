package crann

import (
	"reflect"
	"strconv"
	"strings"
)

// Exporter is implemented by modules that expose their members explicitly.
// It takes precedence over reflective member lookup.
type Exporter interface {
	Export(name string) (any, bool)
}

// memberOptions represents parsed options from a crann struct tag.
type memberOptions struct {
	skip bool   // never exported under any name
	name string // exported under this name instead of the field name
}

// parseMemberTag parses a crann struct tag.
// Supported formats:
//   - `crann:"-"` - field is not a member
//   - `crann:"name"` - member is exported as name
//   - `crann:"name,omitempty"` - options after the name are ignored
func parseMemberTag(tag string) memberOptions {
	opts := memberOptions{}

	if tag == "-" {
		opts.skip = true
		return opts
	}

	name, _, _ := strings.Cut(tag, ",")
	opts.name = strings.TrimSpace(name)
	return opts
}

// Lookup returns the member called name of a module or component.
//
// Members are found, in order, through Exporter, string-keyed map entries,
// exported struct fields (by field name or crann tag, including promoted
// fields), and methods (returned as bound method values). A present member
// whose value is nil is found; an absent member is not.
func Lookup(module any, name string) (any, bool) {
	if module == nil || name == "" {
		return nil, false
	}

	if exporter, ok := module.(Exporter); ok {
		return exporter.Export(name)
	}

	value := reflect.ValueOf(module)
	original := value

	for value.Kind() == reflect.Ptr || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return nil, false
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			break
		}
		entry := value.MapIndex(reflect.ValueOf(name).Convert(value.Type().Key()))
		if entry.IsValid() {
			return entry.Interface(), true
		}
	case reflect.Struct:
		if index, ok := members.fieldIndex(value.Type(), name); ok {
			return value.FieldByIndex(index).Interface(), true
		}
	case reflect.Slice, reflect.Array:
		if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < value.Len() {
			return value.Index(i).Interface(), true
		}
	}

	if method := original.MethodByName(name); method.IsValid() {
		return method.Interface(), true
	}
	if value.CanAddr() {
		if method := value.Addr().MethodByName(name); method.IsValid() {
			return method.Interface(), true
		}
	}
	if method := value.MethodByName(name); method.IsValid() {
		return method.Interface(), true
	}

	return nil, false
}

// Project follows a dotted member path starting at value.
// An empty path returns value unchanged. On failure the unresolvable segment
// is returned.
func Project(value any, path string) (any, string, bool) {
	if path == "" {
		return value, "", true
	}
	current := value
	for _, segment := range strings.Split(path, ".") {
		next, ok := Lookup(current, segment)
		if !ok {
			return nil, segment, false
		}
		current = next
	}
	return current, "", true
}
