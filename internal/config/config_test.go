package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/anchor/pkg/anchor/errors"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"./..."}, cfg.Directories)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, ".anchor", cfg.Cache.Dir)
	assert.Equal(t, ":8088", cfg.Serve.Addr)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "anchor.yaml",
			content: `directories: ["./internal/..."]
profiles: [default, staging]
cache:
  enabled: false
stores:
  env:
    dotenv: [.env, .env.local]
  config:
    file: params.yaml
output:
  file: internal/wiring/autogen_anchor.go
  package: wiring
`,
		},
		{
			name: "toml",
			file: "anchor.toml",
			content: `directories = ["./internal/..."]
profiles = ["default", "staging"]

[cache]
enabled = false

[stores.env]
dotenv = [".env", ".env.local"]

[stores.config]
file = "params.yaml"

[output]
file = "internal/wiring/autogen_anchor.go"
package = "wiring"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, t.TempDir(), tt.file, tt.content)

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, path, cfg.Source)
			assert.Equal(t, []string{"./internal/..."}, cfg.Directories)
			assert.Equal(t, []string{"default", "staging"}, cfg.Profiles)
			assert.False(t, cfg.Cache.Enabled)
			assert.Equal(t, ".anchor", cfg.Cache.Dir, "unset values keep their defaults")
			assert.Equal(t, []string{".env", ".env.local"}, cfg.Stores.Env.Dotenv)
			assert.Equal(t, "params.yaml", cfg.Stores.Config.File)
			assert.Equal(t, "internal/wiring/autogen_anchor.go", cfg.Output.File)
			assert.Equal(t, "wiring", cfg.Output.Package)
			assert.Equal(t, ":8088", cfg.Serve.Addr)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		contains []string
	}{
		{"unsupported format", "anchor.json", "{}", []string{`unsupported format ".json"`}},
		{"malformed yaml", "anchor.yaml", "directories: [", []string{"invalid configuration in"}},
		{"empty directories", "anchor.yaml", "directories: []\n", []string{"directories must have at least 1 entries"}},
		{
			"invalid values",
			"anchor.yaml",
			"stores:\n  config:\n    file: params.json\noutput:\n  file: out.txt\n  package: my-pkg\ncache:\n  dir: \"\"\n",
			[]string{
				"cache.dir is required",
				"stores.config.file must be a .yaml, .yml or .toml file",
				"output.file must end with .go",
				"output.package must be a valid package name",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, t.TempDir(), tt.file, tt.content)

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
			for _, fragment := range tt.contains {
				assert.Contains(t, err.Error(), fragment)
			}
		})
	}
}

func TestFind(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := Find(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("yaml before toml", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "anchor.toml", "profiles = [\"toml\"]\n")
		write(t, dir, "anchor.yaml", "profiles: [yaml]\n")

		cfg, err := Find(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"yaml"}, cfg.Profiles)
	})
}
