package crann

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var fooCount atomic.Int64

// Foo records its constructor arguments.
type Foo struct {
	Serial int64
	Args   []any
}

func NewFoo(args ...any) *Foo {
	return &Foo{Serial: fooCount.Add(1), Args: args}
}

// Point is built positionally from its exported fields.
type Point struct {
	X      int
	Y      int
	hidden string
	Label  string `crann:"label"`
}

type Service struct {
	Name     string
	Port     int
	Calls    []string
	Handlers []any
}

func NewService(name string, port int) (*Service, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	return &Service{Name: name, Port: port}, nil
}

func (s *Service) Use(h any) {
	s.Handlers = append(s.Handlers, h)
	s.Calls = append(s.Calls, fmt.Sprintf("use %v", h))
}

func (s *Service) Start() error {
	s.Calls = append(s.Calls, "start")
	return nil
}

func (s *Service) Fail() error {
	return errors.New("boom")
}

func (s *Service) Options(opts map[string]int) {
	for _, k := range []string{"a", "b"} {
		s.Calls = append(s.Calls, fmt.Sprintf("%s=%d", k, opts[k]))
	}
}

func sum(xs ...int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

type exports struct {
	values map[string]any
}

func (e exports) Export(name string) (any, bool) {
	v, ok := e.values[name]
	return v, ok
}

// modules builds a loader serving fixed modules and counting loads.
type modules struct {
	byPath map[string]any
	loads  map[string]int
}

func newModules() *modules {
	return &modules{
		byPath: map[string]any{
			"mod": map[string]any{
				"Foo":        NewFoo,
				"make":       func(n int) *Foo { return NewFoo(n * 2) },
				"Service":    NewService,
				"Point":      reflect.TypeOf(Point{}),
				"Proto":      &Point{},
				"Value":      "module value",
				"Nothing":    nil,
				"False":      false,
				"Nested":     map[string]any{"Deep": map[string]any{"Foo": NewFoo}},
				"NotAClass":  42,
				"failing":    func() (*Foo, error) { return nil, errors.New("factory failed") },
				"panicking":  func() *Foo { panic("exploded") },
				"noResult":   func() {},
				"sum":        sum,
				"int8":       func(n int8) int8 { return n },
				"uint":       func(n uint) uint { return n },
				"Containers": func(c *Container) *Container { return c },
			},
			"callable": NewFoo,
			"exported": exports{values: map[string]any{"Answer": 42}},
		},
		loads: make(map[string]int),
	}
}

func (m *modules) LoadModule(path string) (any, error) {
	m.loads[path]++
	module, ok := m.byPath[path]
	if !ok {
		return nil, fmt.Errorf("cannot find module %q", path)
	}
	return module, nil
}

// mustBuild adds defs to a new builder and builds it.
func mustBuild(t testing.TB, defs ...*Definition) *Container {
	t.Helper()
	b := NewBuilder(newModules())
	require.NoError(t, b.AddDefinitions(defs...))
	c, err := b.Build()
	require.NoError(t, err)
	return c
}

func class(t testing.TB, id, module, name string, args ...*Definition) *Definition {
	t.Helper()
	def := Class(id, module, name)
	require.NoError(t, def.ConstructWith(args...))
	return def
}

func factory(t testing.TB, id, module, name string, args ...*Definition) *Definition {
	t.Helper()
	def := Factory(id, module, name)
	require.NoError(t, def.ConstructWith(args...))
	return def
}

func call(t testing.TB, method string, args ...*Definition) *Call {
	t.Helper()
	c, err := NewCall(method, args...)
	require.NoError(t, err)
	return c
}
