package crann

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Kind is the variant tag of a Definition.
type Kind string

const (
	// KindParameter is a literal, pass-through value.
	KindParameter Kind = "parameter"
	// KindModule is a loaded module itself.
	KindModule Kind = "module"
	// KindProperty is a named export of a loaded module.
	KindProperty Kind = "property"
	// KindClass is an instance built by a constructor found in a module.
	KindClass Kind = "class"
	// KindFactory is the result of invoking a function found in a module.
	KindFactory Kind = "factory"
	// KindValue is an anonymous literal used as an argument.
	KindValue Kind = "value"
	// KindReference is an anonymous pointer to another component.
	KindReference Kind = "reference"
	// KindSelf is an anonymous pointer to the container itself.
	KindSelf Kind = "self"
	// KindStructure is an anonymous nested sequence or mapping literal.
	KindStructure Kind = "structure"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Anonymous reports whether definitions of this kind have no id of their own.
func (k Kind) Anonymous() bool {
	switch k {
	case KindValue, KindReference, KindSelf, KindStructure:
		return true
	}
	return false
}

// Tag is a queryable label attached to an identified definition.
type Tag struct {
	Name  string
	Value any
}

// NewTag creates a tag. The value is optional.
func NewTag(name string, value ...any) Tag {
	t := Tag{Name: name}
	if len(value) > 0 {
		t.Value = value[0]
	}
	return t
}

// Call is a method invocation performed on a class instance after construction.
type Call struct {
	Method string
	Args   []*Definition
}

// NewCall creates a call. Every argument must be an anonymous definition.
func NewCall(method string, args ...*Definition) (*Call, error) {
	if method == "" {
		return nil, &InvalidArgumentTypeError{ID: method, Position: -1, Reason: "call method name cannot be empty"}
	}
	if err := checkArgs(method, args); err != nil {
		return nil, err
	}
	return &Call{Method: method, Args: args}, nil
}

// Definition describes one component to build, or one argument of another
// definition when it is anonymous.
//
// Definitions are created with the constructor functions of this package:
//
//	greeting := crann.Parameter("greeting", "hi")
//	svc := crann.Class("svc", "app/service", "Service")
//	svc.ConstructWith(crann.Value(1), crann.Reference("greeting"))
type Definition struct {
	id       string
	kind     Kind
	value    any
	module   string
	member   string
	path     string
	args     []*Definition
	calls    []*Call
	tags     []Tag
	lifetime Lifetime
	node     Node
}

// Parameter creates a definition for a literal value.
func Parameter(id string, value any) *Definition {
	return &Definition{id: id, kind: KindParameter, value: value}
}

// Module creates a definition whose value is the loaded module.
func Module(id, modulePath string) *Definition {
	return &Definition{id: id, kind: KindModule, module: modulePath}
}

// Property creates a definition whose value is a named member of a module.
// A dotted property name is followed member by member.
func Property(id, modulePath, property string) *Definition {
	return &Definition{id: id, kind: KindProperty, module: modulePath, member: property}
}

// Class creates a definition built by a constructor. An empty className means
// the module itself is the class; a dotted one is followed member by member.
func Class(id, modulePath, className string) *Definition {
	return &Definition{id: id, kind: KindClass, module: modulePath, member: className, lifetime: LifetimeSingleton}
}

// Factory creates a definition built by invoking a function. An empty
// methodName means the module itself is the function.
func Factory(id, modulePath, methodName string) *Definition {
	return &Definition{id: id, kind: KindFactory, module: modulePath, member: methodName, lifetime: LifetimeSingleton}
}

// Value creates an anonymous literal argument.
func Value(v any) *Definition {
	return &Definition{kind: KindValue, value: v}
}

// Reference creates an anonymous argument resolved to the component targetID.
func Reference(targetID string) *Definition {
	return &Definition{kind: KindReference, value: targetID}
}

// ReferencePath creates a reference projected through a dotted member path.
func ReferencePath(targetID, path string) *Definition {
	return &Definition{kind: KindReference, value: targetID, path: path}
}

// Self creates an anonymous argument resolved to the container itself.
func Self() *Definition {
	return &Definition{kind: KindSelf}
}

// Structure creates an anonymous argument from a nested literal. Slices,
// arrays and string-keyed maps are walked recursively; *Definition leaves
// must be anonymous and are resolved during realization, all other leaves
// pass through unchanged. A typed container without definitions is kept as
// is.
func Structure(v any) (*Definition, error) {
	node, err := NewNode(v)
	if err != nil {
		return nil, err
	}
	return &Definition{kind: KindStructure, node: node}, nil
}

// ID returns the definition id, empty for anonymous definitions.
func (d *Definition) ID() string { return d.id }

// Kind returns the variant tag.
func (d *Definition) Kind() Kind { return d.kind }

// Anonymous reports whether the definition has no id of its own.
func (d *Definition) Anonymous() bool { return d.kind.Anonymous() }

// Value returns the literal of a Parameter or Value definition.
func (d *Definition) Value() any {
	switch d.kind {
	case KindParameter, KindValue:
		return d.value
	}
	return nil
}

// Target returns the component id a Reference points to.
func (d *Definition) Target() string {
	if d.kind != KindReference {
		return ""
	}
	s, _ := d.value.(string)
	return s
}

// ModulePath returns the module path of Module, Property, Class and Factory definitions.
func (d *Definition) ModulePath() string { return d.module }

// Member returns the property, class or function name inside the module.
func (d *Definition) Member() string { return d.member }

// Path returns the dotted projection path of a Reference.
func (d *Definition) Path() string { return d.path }

// Node returns the nested literal of a Structure.
func (d *Definition) Node() Node { return d.node }

// Args returns the constructor or factory arguments in declaration order.
func (d *Definition) Args() []*Definition {
	out := make([]*Definition, len(d.args))
	copy(out, d.args)
	return out
}

// Calls returns the post-construction calls in declaration order.
func (d *Definition) Calls() []*Call {
	out := make([]*Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// Tags returns the tags in declaration order.
func (d *Definition) Tags() []Tag {
	out := make([]Tag, len(d.tags))
	copy(out, d.tags)
	return out
}

// HasTag reports whether the definition carries a tag with the given name.
func (d *Definition) HasTag(name string) bool {
	for _, t := range d.tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Lifetime returns the scope of a Class or Factory definition.
// Other kinds are always singletons.
func (d *Definition) Lifetime() Lifetime {
	if d.lifetime == "" {
		return LifetimeSingleton
	}
	return d.lifetime
}

// Transient reports whether the definition is realized on every retrieval.
func (d *Definition) Transient() bool {
	return d.Lifetime() == LifetimeTransient
}

// SetLifetime changes the scope of a Class or Factory definition.
func (d *Definition) SetLifetime(l Lifetime) error {
	if !d.constructible() {
		return &UnsupportedDefinitionError{ID: d.id, Kind: d.kind, Reason: "only class and factory definitions have a lifetime"}
	}
	switch l {
	case LifetimeSingleton, LifetimeTransient:
		d.lifetime = l
		return nil
	default:
		return &UnsupportedDefinitionError{ID: d.id, Kind: d.kind, Reason: fmt.Sprintf("unknown lifetime %q", l)}
	}
}

// ConstructWith appends constructor or factory arguments.
func (d *Definition) ConstructWith(args ...*Definition) error {
	if !d.constructible() {
		return &UnsupportedDefinitionError{ID: d.id, Kind: d.kind, Reason: "only class and factory definitions take arguments"}
	}
	if err := checkArgs(d.id, args); err != nil {
		return err
	}
	d.args = append(d.args, args...)
	return nil
}

// AddCall appends a post-construction call.
func (d *Definition) AddCall(call *Call) error {
	if !d.constructible() {
		return &UnsupportedDefinitionError{ID: d.id, Kind: d.kind, Reason: "only class and factory definitions take calls"}
	}
	if call == nil {
		return &InvalidArgumentTypeError{ID: d.id, Position: -1, Reason: "call cannot be nil"}
	}
	d.calls = append(d.calls, call)
	return nil
}

// AddTag appends a tag.
func (d *Definition) AddTag(tag Tag) error {
	if d.Anonymous() {
		return &UnsupportedDefinitionError{ID: d.id, Kind: d.kind, Reason: "anonymous definitions can't be tagged"}
	}
	if tag.Name == "" {
		return &InvalidArgumentTypeError{ID: d.id, Position: -1, Reason: "tag name cannot be empty"}
	}
	d.tags = append(d.tags, tag)
	return nil
}

// String returns a short human readable description.
func (d *Definition) String() string {
	switch d.kind {
	case KindParameter:
		return fmt.Sprintf("parameter %s", d.id)
	case KindModule:
		return fmt.Sprintf("module %s (%s)", d.id, d.module)
	case KindProperty:
		return fmt.Sprintf("property %s (%s::%s)", d.id, d.module, d.member)
	case KindClass, KindFactory:
		target := d.module
		if d.member != "" {
			target += "::" + d.member
		}
		return fmt.Sprintf("%s %s (%s, %s)", d.kind, d.id, target, d.Lifetime())
	case KindValue:
		return fmt.Sprintf("value %v", d.value)
	case KindReference:
		if d.path != "" {
			return fmt.Sprintf("reference @%s::%s", d.Target(), d.path)
		}
		return fmt.Sprintf("reference @%s", d.Target())
	case KindSelf:
		return "self"
	case KindStructure:
		return fmt.Sprintf("structure %s", d.node.Kind())
	}
	return fmt.Sprintf("%s %s", d.kind, d.id)
}

func (d *Definition) constructible() bool {
	return d.kind == KindClass || d.kind == KindFactory
}

// checkArgs ensures every argument is a usable anonymous definition.
func checkArgs(owner string, args []*Definition) error {
	for i, arg := range args {
		if arg == nil {
			return &InvalidArgumentTypeError{ID: owner, Position: i, Reason: "expected a definition, got nil"}
		}
		if !arg.Anonymous() {
			return &InvalidArgumentTypeError{ID: owner, Position: i, Reason: fmt.Sprintf("expected an anonymous definition, got %s", arg)}
		}
	}
	return nil
}

// NodeKind is the variant tag of a Node.
type NodeKind int

const (
	// NodeScalar is a literal leaf.
	NodeScalar NodeKind = iota
	// NodeSequence is an ordered list of nodes.
	NodeSequence
	// NodeMapping is a string-keyed map of nodes.
	NodeMapping
	// NodeDefinition is an embedded anonymous definition.
	NodeDefinition
)

func (k NodeKind) String() string {
	switch k {
	case NodeScalar:
		return "scalar"
	case NodeSequence:
		return "sequence"
	case NodeMapping:
		return "mapping"
	case NodeDefinition:
		return "definition"
	}
	return "unknown"
}

// Node is one element of a Structure literal.
type Node struct {
	kind   NodeKind
	scalar any
	items  []Node
	keys   []string
	fields map[string]Node
	def    *Definition
}

// NewNode converts a nested literal into a Node tree. Mapping keys are kept in
// sorted order so that realization is deterministic.
func NewNode(v any) (Node, error) {
	switch val := v.(type) {
	case *Definition:
		if val == nil {
			return Node{}, &InvalidArgumentTypeError{Position: -1, Reason: "structure leaf is a nil definition"}
		}
		if !val.Anonymous() {
			return Node{}, &InvalidArgumentTypeError{ID: val.id, Position: -1, Reason: "structure leaves must be anonymous definitions"}
		}
		return Node{kind: NodeDefinition, def: val}, nil
	case Node:
		return val, nil
	case []any:
		items := make([]Node, 0, len(val))
		for _, item := range val {
			n, err := NewNode(item)
			if err != nil {
				return Node{}, err
			}
			items = append(items, n)
		}
		return Node{kind: NodeSequence, items: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make(map[string]Node, len(val))
		for _, k := range keys {
			n, err := NewNode(val[k])
			if err != nil {
				return Node{}, err
			}
			fields[k] = n
		}
		return Node{kind: NodeMapping, keys: keys, fields: fields}, nil
	default:
		return reflectNode(v)
	}
}

// reflectNode walks typed slices, arrays and string-keyed maps. A typed
// container holding no definition stays a scalar so its Go type is kept.
func reflectNode(v any) (Node, error) {
	scalar := Node{kind: NodeScalar, scalar: v}

	var n Node
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]Node, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := NewNode(rv.Index(i).Interface())
			if err != nil {
				return Node{}, err
			}
			items = append(items, item)
		}
		n = Node{kind: NodeSequence, items: items}

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return scalar, nil
		}
		keys := make([]string, 0, rv.Len())
		fields := make(map[string]Node, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			field, err := NewNode(iter.Value().Interface())
			if err != nil {
				return Node{}, err
			}
			key := iter.Key().String()
			keys = append(keys, key)
			fields[key] = field
		}
		sort.Strings(keys)
		n = Node{kind: NodeMapping, keys: keys, fields: fields}

	default:
		return scalar, nil
	}

	if !n.hasDefinitions() {
		return scalar, nil
	}
	return n, nil
}

func (n Node) hasDefinitions() bool {
	found := false
	n.walk(func(*Definition) { found = true })
	return found
}

// Kind returns the variant tag of the node.
func (n Node) Kind() NodeKind { return n.kind }

// Scalar returns the literal of a scalar node.
func (n Node) Scalar() any { return n.scalar }

// Items returns the children of a sequence node.
func (n Node) Items() []Node { return n.items }

// Keys returns the sorted keys of a mapping node.
func (n Node) Keys() []string { return n.keys }

// Field returns the child of a mapping node.
func (n Node) Field(key string) (Node, bool) {
	f, ok := n.fields[key]
	return f, ok
}

// Definition returns the embedded definition of a definition node.
func (n Node) Definition() *Definition { return n.def }

// References returns the target ids of every reference in the tree, in walk order.
// Self leaves are ignored.
func (n Node) References() []string {
	var out []string
	n.walk(func(d *Definition) {
		out = append(out, d.references()...)
	})
	return out
}

func (n Node) walk(fn func(*Definition)) {
	switch n.kind {
	case NodeDefinition:
		fn(n.def)
	case NodeSequence:
		for _, item := range n.items {
			item.walk(fn)
		}
	case NodeMapping:
		for _, k := range n.keys {
			n.fields[k].walk(fn)
		}
	}
}

// references returns the ids an argument definition depends on.
func (d *Definition) references() []string {
	switch d.kind {
	case KindReference:
		return []string{d.Target()}
	case KindStructure:
		return d.node.References()
	}
	return nil
}

// describeArgs renders arguments for log output.
func describeArgs(args []*Definition) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
