package config

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// DefaultEnvPrefix selects the environment variables read as parameters.
const DefaultEnvPrefix = "CONFIG_"

// EnvOptions configures how environment variables become parameters.
type EnvOptions struct {
	// Prefix selects variables. Defaults to DefaultEnvPrefix.
	Prefix string

	// DotEnvFiles are read before the environment; real environment
	// variables win over values from these files.
	DotEnvFiles []string

	// Environ lists KEY=value pairs. Defaults to os.Environ().
	Environ []string

	// Key turns a variable name into a parameter id. Defaults to EnvKey.
	Key func(name, prefix string) string

	// Cast turns a variable value into a parameter value. Defaults to CastEnvValue.
	Cast func(value string) any
}

// EnvKey strips prefix, lower-cases the rest and turns "__" into ".":
// CONFIG_DB__MAX_CONNS becomes "db.max_conns".
func EnvKey(name, prefix string) string {
	key := strings.ToLower(strings.TrimPrefix(name, prefix))
	return strings.ReplaceAll(key, "__", ".")
}

// CastEnvValue converts "true" and "false" to bool, integers to int and
// other numbers to float64. Anything else, including the empty string and
// "NaN", stays a string.
func CastEnvValue(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}
	if i, err := strconv.Atoi(trimmed); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) {
		return f
	}
	return value
}

// ReadEnv collects the selected environment variables into a document with a
// single parameters section. Keys are flat: "db.max_conns" is one parameter id.
func ReadEnv(opts EnvOptions) (map[string]any, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	key := opts.Key
	if key == nil {
		key = EnvKey
	}
	cast := opts.Cast
	if cast == nil {
		cast = CastEnvValue
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	vars := make(map[string]string)
	if len(opts.DotEnvFiles) > 0 {
		fromFiles, err := godotenv.Read(opts.DotEnvFiles...)
		if err != nil {
			return nil, errors.Wrapf(err, "error while reading dotenv files %v", opts.DotEnvFiles)
		}
		for k, v := range fromFiles {
			vars[k] = v
		}
	}
	for _, pair := range environ {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		vars[name] = value
	}

	parameters := make(map[string]any)
	for name, value := range vars {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		parameters[key(name, prefix)] = cast(value)
	}

	return map[string]any{sectionParameters: parameters}, nil
}
