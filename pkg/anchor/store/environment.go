package store

import (
	"os"
	"sync"

	"github.com/joho/godotenv"

	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// EnvironmentStoreName is the name injects use for the environment store
const EnvironmentStoreName = "env"

// Environment reads process environment variables, falling back to values
// from .env files. Files are read once, on the first fetch, and never change
// the process environment.
type Environment struct {
	files  []string
	lookup func(string) (string, bool)

	once   sync.Once
	dotenv map[string]string
	err    error
}

// EnvironmentOption configures an Environment store
type EnvironmentOption func(*Environment)

// WithDotenv layers the given .env files under the process environment.
// Missing files are skipped.
func WithDotenv(files ...string) EnvironmentOption {
	return func(e *Environment) {
		e.files = append(e.files, files...)
	}
}

// WithLookup replaces os.LookupEnv
func WithLookup(lookup func(string) (string, bool)) EnvironmentOption {
	return func(e *Environment) {
		e.lookup = lookup
	}
}

// NewEnvironment creates the env store
func NewEnvironment(opts ...EnvironmentOption) *Environment {
	e := &Environment{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns "env"
func (e *Environment) Name() string { return EnvironmentStoreName }

// Fetch returns the variable named key coerced to t
func (e *Environment) Fetch(t types.Type, key string) (any, error) {
	raw, ok := e.lookup(key)
	if !ok {
		dotenv, err := e.loadDotenv()
		if err != nil {
			return nil, err
		}
		raw, ok = dotenv[key]
	}
	if !ok {
		return nil, errors.NewEnvironmentVarNotFoundError(key)
	}
	return Coerce(EnvironmentStoreName, key, t, raw)
}

func (e *Environment) loadDotenv() (map[string]string, error) {
	e.once.Do(func() {
		e.dotenv = make(map[string]string)
		// later files do not override earlier ones, as with godotenv.Load
		for _, file := range e.files {
			if _, err := os.Stat(file); os.IsNotExist(err) {
				continue
			}
			values, err := godotenv.Read(file)
			if err != nil {
				e.err = errors.Wrap(errors.ParameterStoreCode, "failed to read dotenv file "+file, err).
					WithContext("store", EnvironmentStoreName).
					WithContext("path", file)
				return
			}
			for name, value := range values {
				if _, exists := e.dotenv[name]; !exists {
					e.dotenv[name] = value
				}
			}
		}
	})
	return e.dotenv, e.err
}
