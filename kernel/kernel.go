// Package kernel bootstraps a crann container from configuration files, the
// environment and inline values.
//
// Example:
//
//	k := kernel.New(catalog, kernel.WithBasePath("/srv/app"))
//	if err := k.Configure("wiring.yml"); err != nil {
//	    return err
//	}
//	if err := k.Env(config.EnvOptions{}); err != nil {
//	    return err
//	}
//	container, err := k.Build()
package kernel

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	crann "github.com/toutaio/toutago-crann"
	"github.com/toutaio/toutago-crann/config"
)

// Kernel collects configuration sources and builds containers from them.
type Kernel struct {
	loader  crann.ModuleLoader
	sources *config.Sources
	parse   config.ParseOptions
	passes  []crann.Pass
	logger  *slog.Logger
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the logger used by the kernel and passed to builders.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithBasePath sets the path that replaces a leading "__" in module paths.
func WithBasePath(path string) Option {
	return func(k *Kernel) {
		k.parse.BasePath = path
	}
}

// WithSelfMarker changes the reference name that resolves to the container.
func WithSelfMarker(marker string) Option {
	return func(k *Kernel) {
		k.parse.SelfMarker = marker
	}
}

// WithPasses adds passes to every builder the kernel creates.
func WithPasses(passes ...crann.Pass) Option {
	return func(k *Kernel) {
		k.passes = append(k.passes, passes...)
	}
}

// New creates a kernel loading modules with loader.
func New(loader crann.ModuleLoader, opts ...Option) *Kernel {
	k := &Kernel{
		loader:  loader,
		sources: config.NewSources(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Configure merges a configuration file. The format is chosen by extension:
// .yml and .yaml are YAML, .hcl is HCL.
func (k *Kernel) Configure(path string) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		err = k.sources.FromYAMLFile(path)
	case ".hcl":
		err = k.sources.FromHCLFile(path)
	default:
		return fmt.Errorf("unsupported configuration file %s: unknown extension %q", path, ext)
	}
	if err != nil {
		return err
	}
	k.logger.Debug("configuration loaded", "path", path)
	return nil
}

// Env merges parameters read from the environment.
func (k *Kernel) Env(opts config.EnvOptions) error {
	if err := k.sources.FromEnv(opts); err != nil {
		return err
	}
	k.logger.Debug("environment loaded", "prefix", opts.Prefix, "dotenv_files", len(opts.DotEnvFiles))
	return nil
}

// Parameter sets a parameter inline.
func (k *Kernel) Parameter(id string, value any) error {
	return k.sources.Parameter(id, value)
}

// Component sets a component whose value is given inline.
func (k *Kernel) Component(id string, value any) error {
	return k.sources.Component(id, value)
}

// Sources returns the merged configuration sources.
func (k *Kernel) Sources() *config.Sources {
	return k.sources
}

// Builder parses the merged configuration into a fresh Builder. Callers can
// add definitions or passes before building it.
func (k *Kernel) Builder() (*crann.Builder, error) {
	defs, err := k.sources.Definitions(k.parse)
	if err != nil {
		return nil, err
	}

	b := crann.NewBuilder(k.loader, crann.WithLogger(k.logger))
	for _, p := range k.passes {
		if err := b.AddPass(p); err != nil {
			return nil, err
		}
	}
	if err := b.AddDefinitions(defs...); err != nil {
		return nil, err
	}
	k.logger.Debug("definitions parsed", "count", len(defs))
	return b, nil
}

// Build parses the merged configuration and builds a container.
func (k *Kernel) Build() (*crann.Container, error) {
	b, err := k.Builder()
	if err != nil {
		return nil, err
	}
	return b.Build()
}
