// Package config loads anchor.yaml or anchor.toml project settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/toyz/anchor/pkg/anchor/errors"
)

// FileNames are the config files looked for, in order
var FileNames = []string{"anchor.yaml", "anchor.yml", "anchor.toml"}

// Config is the project configuration
type Config struct {
	Directories []string     `yaml:"directories" toml:"directories" validate:"required,min=1,dive,required"`
	Profiles    []string     `yaml:"profiles" toml:"profiles" validate:"dive,required"`
	Module      string       `yaml:"module" toml:"module"`
	Cache       CacheConfig  `yaml:"cache" toml:"cache"`
	Stores      StoresConfig `yaml:"stores" toml:"stores"`
	Output      OutputConfig `yaml:"output" toml:"output"`
	Serve       ServeConfig  `yaml:"serve" toml:"serve"`

	// Source is the file the configuration was read from, if any
	Source string `yaml:"-" toml:"-"`
}

// CacheConfig controls the compiled definition cache
type CacheConfig struct {
	Dir     string `yaml:"dir" toml:"dir" validate:"required"`
	Enabled bool   `yaml:"enabled" toml:"enabled"`
}

// StoresConfig configures the parameter stores
type StoresConfig struct {
	Env    EnvStoreConfig    `yaml:"env" toml:"env"`
	Config ConfigStoreConfig `yaml:"config" toml:"config"`
}

// EnvStoreConfig lists .env files layered over the process environment
type EnvStoreConfig struct {
	Dotenv []string `yaml:"dotenv" toml:"dotenv" validate:"dive,required"`
}

// ConfigStoreConfig names a YAML or TOML file of parameter values
type ConfigStoreConfig struct {
	File string `yaml:"file" toml:"file" validate:"omitempty,datafile"`
}

// OutputConfig controls generated Go code
type OutputConfig struct {
	File    string `yaml:"file" toml:"file" validate:"required,endswith=.go"`
	Package string `yaml:"package" toml:"package" validate:"omitempty,alphanum"`
}

// ServeConfig configures the inspection server
type ServeConfig struct {
	Addr string `yaml:"addr" toml:"addr" validate:"required"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Directories: []string{"./..."},
		Cache: CacheConfig{
			Dir:     ".anchor",
			Enabled: true,
		},
		Output: OutputConfig{
			File: "anchor/autogen_anchor.go",
		},
		Serve: ServeConfig{
			Addr: ":8088",
		},
	}
}

// Find loads the first config file present in dir, or the defaults when
// there is none
func Find(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// Load reads a YAML or TOML file over the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemError("read", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, errors.NewConfigurationError(path, fmt.Errorf("unsupported format %q", filepath.Ext(path))).
			WithSuggestion("Use anchor.yaml or anchor.toml")
	}
	if err != nil {
		return nil, errors.NewConfigurationError(path, err)
	}

	cfg.Source = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("datafile", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(filepath.Ext(fl.Field().String())) {
		case ".yaml", ".yml", ".toml":
			return true
		}
		return false
	})
	return v
}

// Validate checks the configuration against its validation tags
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		source := c.Source
		if source == "" {
			source = "configuration"
		}
		return errors.NewConfigurationError(source, formatValidationError(err))
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages []string
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := fieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
	case "endswith":
		return fmt.Sprintf("%s must end with %s", field, e.Param())
	case "datafile":
		return fmt.Sprintf("%s must be a .yaml, .yml or .toml file", field)
	case "alphanum":
		return fmt.Sprintf("%s must be a valid package name", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldPath turns "Config.cache.dir" into "cache.dir"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
