package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/anchor/pkg/anchor/errors"
)

func TestResolvePatterns(t *testing.T) {
	root := appModule(t)
	logging := filepath.Join(root, "logging")
	http := filepath.Join(root, "http")

	tests := []struct {
		name     string
		patterns []string
		expected []string
	}{
		{"recursive", []string{root + "/..."}, []string{http, logging}},
		{"plain directory", []string{logging}, []string{logging}},
		{"directory without sources", []string{root}, nil},
		{"duplicates removed", []string{logging, root + "/..."}, []string{http, logging}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dirs, err := ResolvePatterns(tt.patterns)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dirs)
		})
	}

	t.Run("missing directory", func(t *testing.T) {
		_, err := ResolvePatterns([]string{filepath.Join(root, "missing")})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.FileSystemErrorCode))
	})

	t.Run("file instead of directory", func(t *testing.T) {
		_, err := ResolvePatterns([]string{filepath.Join(root, "go.mod")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})
}

func TestSourceFiles(t *testing.T) {
	root := appModule(t)

	files, err := SourceFiles(filepath.Join(root, "logging"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "logging", "logger.go")}, files)
}

func TestCleanGenerated(t *testing.T) {
	root := appModule(t)
	generated := filepath.Join(root, "logging", "autogen_anchor.go")
	nested := filepath.Join(root, "http", "autogen_anchor.go")
	require.NoError(t, os.WriteFile(nested, []byte("package http\n"), 0o644))

	removed, err := CleanGenerated([]string{root + "/..."})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{generated, nested}, removed)

	assert.NoFileExists(t, generated)
	assert.NoFileExists(t, nested)
	assert.FileExists(t, filepath.Join(root, "logging", "logger.go"))
	assert.FileExists(t, filepath.Join(root, "logging", "logger_test.go"))
}

func TestFindModule(t *testing.T) {
	root := appModule(t)

	module, err := FindModule(filepath.Join(root, "logging"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", module.Path)
	assert.Equal(t, "1.24", module.GoVersion)

	expectedDir, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, expectedDir, module.Dir)

	t.Run("import paths", func(t *testing.T) {
		importPath, err := module.ImportPath(filepath.Join(root, "logging"))
		require.NoError(t, err)
		assert.Equal(t, "example.com/app/logging", importPath)

		importPath, err = module.ImportPath(root)
		require.NoError(t, err)
		assert.Equal(t, "example.com/app", importPath)

		_, err = module.ImportPath(filepath.Dir(root))
		assert.Error(t, err)
	})

	t.Run("no go.mod", func(t *testing.T) {
		dir := t.TempDir()
		_, err := ParseModule(filepath.Join(dir, "go.mod"))
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.FileSystemErrorCode))
	})

	t.Run("module line missing", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "go.mod")
		require.NoError(t, os.WriteFile(path, []byte("go 1.24\n"), 0o644))

		_, err := ParseModule(path)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
	})
}
