package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/anchor/internal/report"
	"github.com/toyz/anchor/pkg/anchor"
)

const loggingSource = `package logging

//anchor::service
type Logger interface {
	Log(msg string)
}

//anchor::service
type FileLogger struct {
	Path string
}

//anchor::inject -Param=path -Value=/var/log/app.log
func NewFileLogger(path string) *FileLogger { return &FileLogger{Path: path} }

func (l *FileLogger) Log(msg string) {}

//anchor::service -Profiles=staging
type StdLogger struct{}

func (l *StdLogger) Log(msg string) {}
`

// project writes a module into a temp dir and makes it the working directory
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files["go.mod"] = "module example.com/app\n\ngo 1.24\n"
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("NO_COLOR", "1")
	return root
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunUsage(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name   string
		args   []string
		code   int
		stdout string
		stderr string
	}{
		{name: "no arguments", code: ExitUsage, stderr: "Usage: anchor <command>"},
		{name: "help", args: []string{"help"}, code: ExitOK, stdout: "Commands:"},
		{name: "version", args: []string{"version"}, code: ExitOK, stdout: "anchor " + anchor.Version},
		{name: "unknown command", args: []string{"build"}, code: ExitUsage, stderr: `unknown command "build"`},
		{name: "unknown flag", args: []string{"compile", "-nope"}, code: ExitUsage, stderr: "flag provided but not defined"},
		{name: "command help", args: []string{"inspect", "-help"}, code: ExitOK, stderr: "-json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := run(t, tt.args...)
			assert.Equal(t, tt.code, code)
			if tt.stdout != "" {
				assert.Contains(t, stdout, tt.stdout)
			}
			if tt.stderr != "" {
				assert.Contains(t, stderr, tt.stderr)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	root := project(t, map[string]string{"logging/logging.go": loggingSource})

	code, stdout, stderr := run(t, "compile")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "Compilation complete")
	assert.Contains(t, stdout, "Services: 3")
	assert.Contains(t, stdout, "Aliases: 2")
	assert.Contains(t, stdout, "Loaded from: scanned")

	entries, err := os.ReadDir(filepath.Join(root, ".anchor"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	t.Run("second run hits the cache", func(t *testing.T) {
		code, stdout, _ := run(t, "compile")
		require.Equal(t, ExitOK, code)
		assert.Contains(t, stdout, "Loaded from: cache")
	})

	t.Run("no-cache always scans", func(t *testing.T) {
		code, stdout, _ := run(t, "compile", "-no-cache")
		require.Equal(t, ExitOK, code)
		assert.Contains(t, stdout, "Loaded from: scanned")
	})

	t.Run("quiet", func(t *testing.T) {
		code, stdout, _ := run(t, "compile", "-quiet")
		require.Equal(t, ExitOK, code)
		assert.Empty(t, stdout)
	})
}

func TestCompileEmit(t *testing.T) {
	root := project(t, map[string]string{"logging/logging.go": loggingSource})

	code, stdout, stderr := run(t, "compile", "-emit")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "Wrote anchor/autogen_anchor.go")

	generated, err := os.ReadFile(filepath.Join(root, "anchor", "autogen_anchor.go"))
	require.NoError(t, err)
	assert.Contains(t, string(generated), "package anchor")
	assert.Contains(t, string(generated), "logging.NewFileLogger")

	t.Run("custom output", func(t *testing.T) {
		code, _, stderr := run(t, "compile", "-emit", "-output", "internal/wiring/autogen_anchor.go")
		require.Equal(t, ExitOK, code, stderr)
		generated, err := os.ReadFile(filepath.Join(root, "internal", "wiring", "autogen_anchor.go"))
		require.NoError(t, err)
		assert.Contains(t, string(generated), "package wiring")
	})
}

func TestCompileEmitStores(t *testing.T) {
	root := project(t, map[string]string{
		"logging/logging.go": loggingSource,
		"params.yaml":        "level: debug\n",
		"anchor.yaml": `stores:
  env:
    dotenv:
      - .env
  config:
    file: params.yaml
`,
	})

	code, _, stderr := run(t, "compile", "-emit")
	require.Equal(t, ExitOK, code, stderr)

	generated, err := os.ReadFile(filepath.Join(root, "anchor", "autogen_anchor.go"))
	require.NoError(t, err)
	assert.Contains(t, string(generated), `store.WithDotenv(".env")`)
	assert.Contains(t, string(generated), `store.LoadConfig("params.yaml")`)
}

func TestCompileErrors(t *testing.T) {
	project(t, map[string]string{
		"logging/logging.go": loggingSource,
		"broken/broken.go": `package broken

//anchor::prepare
type Broken struct{}
`,
	})

	code, _, stderr := run(t, "compile")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "anchor compile failed (1 error)")
	assert.Contains(t, stderr, "ValidationError")
	assert.Contains(t, stderr, "broken.go:3")
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		project(t, map[string]string{"logging/logging.go": loggingSource})

		code, stdout, stderr := run(t, "validate")
		require.Equal(t, ExitOK, code, stderr)
		assert.Contains(t, stdout, "Definition is valid")
		assert.Contains(t, stdout, "Active services: 2")
	})

	t.Run("ambiguous alias is a warning", func(t *testing.T) {
		project(t, map[string]string{"logging/logging.go": loggingSource})

		code, stdout, _ := run(t, "validate", "-profiles", "default,staging")
		require.Equal(t, ExitOK, code)
		assert.Contains(t, stdout, "[WARN]")
		assert.Contains(t, stdout, "Unresolved aliases: 1")
	})

	t.Run("missing service", func(t *testing.T) {
		project(t, map[string]string{
			"logging/logging.go": loggingSource,
			"http/http.go": `package http

//anchor::service
type Handler struct {
	//anchor::inject -Service=Missing
	Missing any
}
`,
		})

		code, _, stderr := run(t, "validate")
		assert.Equal(t, ExitError, code)
		assert.Contains(t, stderr, "ServiceNotFound")
		assert.Contains(t, stderr, "Missing")
	})
}

func TestInspect(t *testing.T) {
	project(t, map[string]string{"logging/logging.go": loggingSource})

	t.Run("json", func(t *testing.T) {
		code, stdout, stderr := run(t, "inspect", "-json")
		require.Equal(t, ExitOK, code, stderr)

		var r report.Report
		require.NoError(t, json.Unmarshal([]byte(stdout), &r))
		assert.Equal(t, []string{"default"}, r.Profiles)
		require.Len(t, r.Aliases, 1)
		assert.Equal(t, "example.com/app/logging.FileLogger", r.Aliases[0].Concrete)
		require.Len(t, r.Injects, 1)
		assert.Equal(t, "example.com/app/logging.FileLogger::New(path)", r.Injects[0].Target)
	})

	t.Run("text", func(t *testing.T) {
		code, stdout, _ := run(t, "inspect", "-profiles", "staging")
		require.Equal(t, ExitOK, code)
		assert.Contains(t, stdout, "Profiles: staging")
		assert.Contains(t, stdout, "Services (1):")
		assert.Contains(t, stdout, "example.com/app/logging.StdLogger [concrete] profiles=staging")
		assert.Contains(t, stdout, "Aliases (0):")
	})
}

func TestConfigFile(t *testing.T) {
	t.Run("values are used", func(t *testing.T) {
		root := project(t, map[string]string{
			"logging/logging.go": loggingSource,
			"anchor.yaml": `directories: ["./logging"]
profiles: [staging]
cache:
  dir: .cache/anchor
`,
		})

		code, stdout, stderr := run(t, "inspect", "-json")
		require.Equal(t, ExitOK, code, stderr)
		var r report.Report
		require.NoError(t, json.Unmarshal([]byte(stdout), &r))
		assert.Equal(t, []string{"staging"}, r.Profiles)
		assert.DirExists(t, filepath.Join(root, ".cache", "anchor"))
	})

	t.Run("flags override", func(t *testing.T) {
		project(t, map[string]string{
			"logging/logging.go": loggingSource,
			"anchor.toml":        "profiles = [\"staging\"]\n",
		})

		code, stdout, _ := run(t, "inspect", "-json", "-profiles", "default")
		require.Equal(t, ExitOK, code)
		var r report.Report
		require.NoError(t, json.Unmarshal([]byte(stdout), &r))
		assert.Equal(t, []string{"default"}, r.Profiles)
	})

	t.Run("invalid", func(t *testing.T) {
		project(t, map[string]string{
			"logging/logging.go": loggingSource,
			"anchor.yaml":        "output:\n  file: wiring.txt\n",
		})

		code, _, stderr := run(t, "compile")
		assert.Equal(t, ExitError, code)
		assert.Contains(t, stderr, "output.file must end with .go")
	})
}

func TestClean(t *testing.T) {
	root := project(t, map[string]string{"logging/logging.go": loggingSource})

	code, _, stderr := run(t, "compile", "-emit")
	require.Equal(t, ExitOK, code, stderr)
	require.FileExists(t, filepath.Join(root, "anchor", "autogen_anchor.go"))

	code, stdout, stderr := run(t, "clean")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "Removed 1 generated file and 1 cached definition")
	assert.NoFileExists(t, filepath.Join(root, "anchor", "autogen_anchor.go"))
	assert.NoDirExists(t, filepath.Join(root, ".anchor"))
	assert.FileExists(t, filepath.Join(root, "logging", "logging.go"))
}
