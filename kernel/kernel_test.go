package kernel

import (
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crann "github.com/toutaio/toutago-crann"
	"github.com/toutaio/toutago-crann/config"
	"github.com/toutaio/toutago-crann/loader"
)

var instances atomic.Uint64

type SomeClass struct {
	ID   uint64
	Args []any
}

func NewSomeClass(args ...any) *SomeClass {
	return &SomeClass{ID: instances.Add(1), Args: args}
}

type NestedType struct {
	Name string
}

type TaggedClass struct {
	A []any
	B []any
}

func (t *TaggedClass) SetA(a []any) { t.A = a }

func (t *TaggedClass) SetB(b ...any) { t.B = b }

type Greeter struct {
	Name string
}

func NewGreeter(name string) *Greeter {
	return &Greeter{Name: name}
}

type Transport struct {
	Name string
}

func NewTransport(name string) *Transport {
	return &Transport{Name: name}
}

type Logger struct {
	Transports []*Transport
}

func (l *Logger) AddTransport(t *Transport) {
	l.Transports = append(l.Transports, t)
}

func Pair(n int, s string) []any {
	return []any{n, s}
}

func Locate(c *crann.Container, id string) (any, error) {
	return c.Get(id)
}

func newCatalog(t *testing.T) *loader.Catalog {
	t.Helper()

	catalog := loader.NewCatalog("/app")
	catalog.MustRegister("./fixture", map[string]any{
		"NewSomeClass": NewSomeClass,
		"SomeType":     reflect.TypeOf(SomeClass{}),
		"A":            "prop.A.value",
		"D":            map[string]any{"a": map[string]any{"b": "deep value"}},
		"TaggedClass":  reflect.TypeOf(TaggedClass{}),
		"Pair":         Pair,
		"Locate":       Locate,
		"nested": map[string]any{
			"NestedType": reflect.TypeOf(NestedType{}),
			"deeper":     map[string]any{"NewSomeClass": NewSomeClass},
		},
	})
	catalog.MustRegister("/base/greeter", NewGreeter)
	catalog.MustRegister("strings", map[string]any{"ToUpper": strings.ToUpper})
	catalog.MustRegister("./logging", map[string]any{
		"Logger":       reflect.TypeOf(Logger{}),
		"NewTransport": NewTransport,
	})
	return catalog
}

func TestKernel_BuildsFromYAMLEnvAndValues(t *testing.T) {
	injected := &Greeter{Name: "injected"}

	k := New(newCatalog(t), WithBasePath("/base"))
	require.NoError(t, k.Configure("testdata/wiring.yml"))
	require.NoError(t, k.Env(config.EnvOptions{Environ: []string{
		"CONFIG_OVERRIDE=1",
		"CONFIG_NESTED_A_BIT__OVERRIDE=2",
	}}))
	require.NoError(t, k.Parameter("injected.parameter", 12398))
	require.NoError(t, k.Component("injected.component", injected))

	c, err := k.Build()
	require.NoError(t, err)
	assert.True(t, c.Locked())

	get := func(id string) any {
		t.Helper()
		v, err := c.Get(id)
		require.NoError(t, err, id)
		return v
	}

	assert.Equal(t, "parameterValue", get("my.parameter"))
	assert.Equal(t, "prop.A.value", get("my.property"))
	assert.Equal(t, "deep value", get("my.deep.property"))
	assert.Equal(t, reflect.TypeOf(SomeClass{}), get("my.property.class"))

	module, ok := get("my.module").(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "prop.A.value", module["A"])

	singleton := get("my.singleton").(*SomeClass)
	assert.Same(t, singleton, get("my.singleton"))
	assert.Equal(t, []any{"string value", 123, "prop.A.value", "parameterValue"}, singleton.Args)

	assert.NotSame(t, get("my.instance"), get("my.instance"))

	greeter := get("my.module.class.singleton").(*Greeter)
	assert.Equal(t, "string value", greeter.Name)
	assert.Same(t, greeter, get("my.module.class.singleton"))
	assert.NotSame(t, get("my.module.class.instance"), get("my.module.class.instance"))

	upper := get("text.upper").(func(string) string)
	assert.Equal(t, "ABC", upper("abc"))
	assert.NotNil(t, get("text"))

	tagged := get("my.tagged.service").(*TaggedClass)
	assert.Equal(t, []any{1, 2, 3}, tagged.A)
	assert.Equal(t, []any{"string value", 123, "prop.A.value", "parameterValue"}, tagged.B)

	factory := get("my.factory.function").(*SomeClass)
	assert.Equal(t, []any{1, "parameterValue"}, factory.Args)
	assert.Same(t, factory, get("my.factory.function"))

	double := get("my.double.nested.factory").(*SomeClass)
	assert.Equal(t, []any{1, "parameterValue"}, double.Args)
	assert.Same(t, double, get("my.double.nested.factory"))

	assert.Equal(t, []any{2, "prop.A.value"}, get("my.factory"))
	assert.NotSame(t, get("my.transient.factory"), get("my.transient.factory"))

	nested := []any{map[string]any{
		"prop": "parameterValue",
		"more": map[string]any{"param": "parameterValue"},
	}}
	if diff := cmp.Diff(nested, get("my.nested.constructor").(*SomeClass).Args); diff != "" {
		t.Errorf("nested constructor args (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(nested, get("my.nested.factory").(*SomeClass).Args); diff != "" {
		t.Errorf("nested factory args (-want +got):\n%s", diff)
	}

	assert.Equal(t, []any{"objectParamValue", 1}, get("my.prop.reference").(*SomeClass).Args)
	assert.IsType(t, &NestedType{}, get("my.nested.class"))
	assert.Equal(t, "parameterValue", get("my.container.aware"))

	assert.Equal(t, 1, get("override"))
	assert.Equal(t, 2, get("nested_a_bit.override"))
	assert.Same(t, injected, get("injected.component"))
	assert.Equal(t, 12398, get("injected.parameter"))
}

func TestKernel_HCLWithTaggingPass(t *testing.T) {
	k := New(newCatalog(t), WithPasses(crann.CollectTagged("logger.transport", "logger", "AddTransport")))
	require.NoError(t, k.Configure("testdata/logging.hcl"))

	c, err := k.Build()
	require.NoError(t, err)

	logger, err := crann.Resolve[*Logger](c, "logger")
	require.NoError(t, err)
	require.Len(t, logger.Transports, 2)
	assert.Equal(t, "console", logger.Transports[0].Name)
	assert.Equal(t, "app.log", logger.Transports[1].Name)
}

func TestKernel_BuilderAllowsWiringBeforeBuild(t *testing.T) {
	k := New(newCatalog(t))
	require.NoError(t, k.Configure("testdata/logging.hcl"))

	b, err := k.Builder()
	require.NoError(t, err)

	loggerDef, err := b.DefinitionByID("logger")
	require.NoError(t, err)
	for _, def := range b.DefinitionsByTag("logger.transport") {
		call, err := crann.NewCall("AddTransport", crann.Reference(def.ID()))
		require.NoError(t, err)
		require.NoError(t, loggerDef.AddCall(call))
	}

	c, err := b.Build()
	require.NoError(t, err)

	logger := c.MustGet("logger").(*Logger)
	assert.Len(t, logger.Transports, 2)
}

func TestKernel_ConfigureUnknownExtension(t *testing.T) {
	k := New(newCatalog(t))
	assert.Error(t, k.Configure("testdata/wiring.json"))
}

func TestKernel_ConfigureMissingFile(t *testing.T) {
	k := New(newCatalog(t))
	assert.Error(t, k.Configure("testdata/missing.yml"))
}

func TestKernel_SelfMarker(t *testing.T) {
	k := New(newCatalog(t), WithSelfMarker("canister"))
	require.NoError(t, k.Parameter("p", "value"))
	require.NoError(t, k.Sources().Merge(map[string]any{
		"components": map[string]any{
			"located": map[string]any{"factory": "./fixture::Locate", "with": []any{"@canister", "p"}},
		},
	}))

	c, err := k.Build()
	require.NoError(t, err)
	assert.Equal(t, "value", c.MustGet("located"))
}

func TestKernel_BuildFailureReturnsNoContainer(t *testing.T) {
	k := New(newCatalog(t))
	require.NoError(t, k.Sources().Merge(map[string]any{
		"components": map[string]any{
			"a": map[string]any{"class": "./fixture::NewSomeClass", "with": []any{"@b"}},
			"b": map[string]any{"class": "./fixture::NewSomeClass", "with": []any{"@a"}},
		},
	}))

	c, err := k.Build()
	assert.Nil(t, c)

	var cycle *crann.CyclicDependencyError
	require.True(t, errors.As(err, &cycle))
	assert.Contains(t, cycle.Path, "a")
}

func TestKernel_NilPassIsAnError(t *testing.T) {
	k := New(newCatalog(t), WithPasses(nil))
	require.NoError(t, k.Parameter("p", 1))

	var b *crann.Builder
	var err error
	assert.NotPanics(t, func() { b, err = k.Builder() })
	assert.Error(t, err)
	assert.Nil(t, b)

	c, err := k.Build()
	assert.Error(t, err)
	assert.Nil(t, c)
}
