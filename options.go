package crann

import (
	"fmt"
	"log/slog"
)

// Option is a function that configures a Builder.
type Option func(*Builder) error

// WithLogger sets the structured logger used during Build and by the
// resulting container.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		b.logger = logger
		return nil
	}
}

// WithPasses registers passes run at the start of Build.
func WithPasses(passes ...Pass) Option {
	return func(b *Builder) error {
		for _, p := range passes {
			if err := b.AddPass(p); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithoutModuleCache makes the builder call the module loader on every
// load instead of once per path.
func WithoutModuleCache() Option {
	return func(b *Builder) error {
		b.cacheModules = false
		return nil
	}
}
