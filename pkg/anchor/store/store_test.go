package store

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

func TestStores(t *testing.T) {
	t.Run("lookup by name", func(t *testing.T) {
		stores, err := NewStores(NewEnvironment(), NewStatic("static", nil))
		require.NoError(t, err)
		assert.Equal(t, []string{"env", "static"}, stores.Names())

		store, ok := stores.Get("static")
		require.True(t, ok)
		assert.Equal(t, "static", store.Name())

		_, ok = stores.Get("vault")
		assert.False(t, ok)
	})

	t.Run("rejects empty names", func(t *testing.T) {
		_, err := NewStores(NewStatic(" ", nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "a parameter store MUST have a name")
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := NewStores(NewStatic("config", nil), NewStatic("config", nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `parameter store "config" is registered twice`)
	})

	t.Run("with returns a new set", func(t *testing.T) {
		base := MustStores(NewEnvironment())
		extended, err := base.With(NewStatic("static", nil))
		require.NoError(t, err)
		assert.Equal(t, 1, base.Len())
		assert.Equal(t, 2, extended.Len())
	})

	t.Run("zero value is empty", func(t *testing.T) {
		var stores Stores
		_, ok := stores.Get("env")
		assert.False(t, ok)
		assert.Empty(t, stores.Names())
	})
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name     string
		typ      types.Type
		raw      string
		expected any
	}{
		{"string", types.Scalar(types.String), "alice", "alice"},
		{"int", types.Scalar(types.Int), "8080", 8080},
		{"float", types.Scalar(types.Float), "0.5", 0.5},
		{"bool", types.Scalar(types.Bool), "true", true},
		{"nullable int", types.Nullable(types.Scalar(types.Int)), "3", 3},
		{"mixed", types.Mixed(), "raw", "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := Coerce("env", "KEY", tt.typ, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}

	t.Run("object types are incompatible", func(t *testing.T) {
		_, err := Coerce("env", "KEY", types.Object("app.Logger"), "x")
		var incompatible *errors.IncompatibleParameterTypeError
		require.True(t, stderrors.As(err, &incompatible))
		assert.Equal(t, "app.Logger", incompatible.Type)
	})

	t.Run("unparsable values are incompatible", func(t *testing.T) {
		_, err := Coerce("env", "PORT", types.Scalar(types.Int), "eighty")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `parameter store "env" cannot provide key "PORT" as type int`)
	})
}

func TestEnvironment(t *testing.T) {
	env := map[string]string{"USER": "alice", "PORT": "8080"}
	lookup := func(name string) (string, bool) {
		value, ok := env[name]
		return value, ok
	}

	t.Run("reads variables", func(t *testing.T) {
		store := NewEnvironment(WithLookup(lookup))
		assert.Equal(t, "env", store.Name())

		user, err := store.Fetch(types.Scalar(types.String), "USER")
		require.NoError(t, err)
		assert.Equal(t, "alice", user)

		port, err := store.Fetch(types.Scalar(types.Int), "PORT")
		require.NoError(t, err)
		assert.Equal(t, 8080, port)
	})

	t.Run("missing variable is named", func(t *testing.T) {
		store := NewEnvironment(WithLookup(func(string) (string, bool) { return "", false }))

		_, err := store.Fetch(types.Scalar(types.String), "USER")
		require.Error(t, err)

		var missing *errors.EnvironmentVarNotFoundError
		require.True(t, stderrors.As(err, &missing))
		assert.Equal(t, "USER", missing.Name)
		assert.Equal(t, `environment variable "USER" is not set`, err.Error())
	})

	t.Run("dotenv files fill gaps", func(t *testing.T) {
		dir := t.TempDir()
		first := filepath.Join(dir, ".env.local")
		second := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(first, []byte("LEVEL=debug\n"), 0o644))
		require.NoError(t, os.WriteFile(second, []byte("LEVEL=info\nUSER=bob\nREGION=eu\n"), 0o644))

		store := NewEnvironment(WithLookup(lookup), WithDotenv(first, second, filepath.Join(dir, "missing.env")))

		level, err := store.Fetch(types.Scalar(types.String), "LEVEL")
		require.NoError(t, err)
		assert.Equal(t, "debug", level)

		user, err := store.Fetch(types.Scalar(types.String), "USER")
		require.NoError(t, err)
		assert.Equal(t, "alice", user, "process environment wins over dotenv")

		region, err := store.Fetch(types.Mixed(), "REGION")
		require.NoError(t, err)
		assert.Equal(t, "eu", region)

		_, isSet := os.LookupEnv("REGION")
		assert.False(t, isSet)
	})

	t.Run("process environment by default", func(t *testing.T) {
		t.Setenv("ANCHOR_STORE_TEST", "true")
		value, err := NewEnvironment().Fetch(types.Scalar(types.Bool), "ANCHOR_STORE_TEST")
		require.NoError(t, err)
		assert.Equal(t, true, value)
	})
}

func TestStatic(t *testing.T) {
	store := NewStatic("static", map[string]any{
		"name": "anchor",
		"database": map[string]any{
			"port": 5432,
			"tags": []any{"a", "b"},
		},
		"ratio": 0.25,
		"empty": nil,
	})

	t.Run("dotted lookup", func(t *testing.T) {
		port, err := store.Fetch(types.Scalar(types.Int), "database.port")
		require.NoError(t, err)
		assert.Equal(t, 5432, port)

		asString, err := store.Fetch(types.Scalar(types.String), "database.port")
		require.NoError(t, err)
		assert.Equal(t, "5432", asString)
	})

	t.Run("mixed returns raw values", func(t *testing.T) {
		tags, err := store.Fetch(types.Mixed(), "database.tags")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, tags)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Fetch(types.Scalar(types.String), "database.host")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `parameter store "static" has no value for key "database.host"`)
	})

	t.Run("lists are not scalars", func(t *testing.T) {
		_, err := store.Fetch(types.Scalar(types.String), "database.tags")
		assert.True(t, errors.HasCode(err, errors.ParameterStoreCode))
		assert.Contains(t, err.Error(), "value is a []interface {}")
	})

	t.Run("nil values need a nullable type", func(t *testing.T) {
		value, err := store.Fetch(types.Nullable(types.Scalar(types.String)), "empty")
		require.NoError(t, err)
		assert.Nil(t, value)

		_, err = store.Fetch(types.Scalar(types.String), "empty")
		assert.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("server:\n  port: 9000\n  debug: true\n"), 0o644))

	tomlPath := filepath.Join(dir, "params.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[server]\nport = 9001\nratio = 1.5\n"), 0o644))

	t.Run("yaml", func(t *testing.T) {
		store, err := LoadConfig(yamlPath)
		require.NoError(t, err)
		assert.Equal(t, ConfigStoreName, store.Name())

		port, err := store.Fetch(types.Scalar(types.Int), "server.port")
		require.NoError(t, err)
		assert.Equal(t, 9000, port)

		debug, err := store.Fetch(types.Scalar(types.Bool), "server.debug")
		require.NoError(t, err)
		assert.Equal(t, true, debug)
	})

	t.Run("toml", func(t *testing.T) {
		store, err := LoadConfig(tomlPath)
		require.NoError(t, err)

		port, err := store.Fetch(types.Scalar(types.Int), "server.port")
		require.NoError(t, err)
		assert.Equal(t, 9001, port)

		ratio, err := store.Fetch(types.Scalar(types.Float), "server.ratio")
		require.NoError(t, err)
		assert.Equal(t, 1.5, ratio)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "params.ini"))
		assert.Error(t, err)

		ini := filepath.Join(dir, "real.ini")
		require.NoError(t, os.WriteFile(ini, []byte("a=b"), 0o644))
		_, err = LoadConfig(ini)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported config store format")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
		assert.True(t, errors.HasCode(err, errors.FileSystemErrorCode))
	})
}
