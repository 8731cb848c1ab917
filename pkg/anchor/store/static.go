package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// ConfigStoreName is the name of a store loaded with LoadConfig
const ConfigStoreName = "config"

// Static is a store backed by a map. Nested maps are addressed with dotted
// keys such as "database.port".
type Static struct {
	name   string
	values map[string]any
}

// NewStatic creates a map backed store named name
func NewStatic(name string, values map[string]any) *Static {
	copied := make(map[string]any, len(values))
	for key, value := range values {
		copied[key] = value
	}
	return &Static{name: name, values: copied}
}

// LoadConfig reads a YAML or TOML file, chosen by extension, into a store
// named "config"
func LoadConfig(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemError("read", path, err)
	}

	values := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &values)
	case ".toml":
		err = toml.Unmarshal(data, &values)
	default:
		return nil, errors.Newf(errors.ParameterStoreCode, "unsupported config store format %q", filepath.Ext(path)).
			WithContext("path", path).
			WithSuggestion("Use a .yaml, .yml or .toml file")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ParameterStoreCode, "failed to parse config store "+path, err).
			WithContext("path", path)
	}
	return NewStatic(ConfigStoreName, values), nil
}

// Name returns the store name
func (s *Static) Name() string { return s.name }

// Fetch returns the value under key as type t
func (s *Static) Fetch(t types.Type, key string) (any, error) {
	value, ok := s.lookup(key)
	if !ok {
		return nil, errors.NewParameterNotFoundError(s.name, key)
	}
	if t.Inner().IsMixed() {
		return value, nil
	}
	if value == nil {
		if t.Kind() == types.KindNullable {
			return nil, nil
		}
		return nil, errors.NewIncompatibleParameterTypeError(s.name, key, t.String(), nil)
	}
	switch value.(type) {
	case string, bool, int, int64, uint64, float64:
		return Coerce(s.name, key, t, fmt.Sprint(value))
	default:
		return nil, errors.NewIncompatibleParameterTypeError(s.name, key, t.String(),
			fmt.Errorf("value is a %T", value))
	}
}

func (s *Static) lookup(key string) (any, bool) {
	if value, ok := s.values[key]; ok {
		return value, true
	}

	var current any = s.values
	for _, part := range strings.Split(key, ".") {
		nested, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = nested[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
