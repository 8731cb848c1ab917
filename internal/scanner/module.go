package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/toyz/anchor/pkg/anchor/errors"
)

// Module is the Go module the scanned sources belong to
type Module struct {
	Path      string // module path from go.mod
	Dir       string // absolute directory holding go.mod
	GoVersion string
}

// FindModule looks for go.mod in start and its parents
func FindModule(start string) (Module, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return Module{}, errors.FileSystemError("resolve", start, err)
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return ParseModule(goModPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return Module{}, errors.New(errors.ConfigurationErrorCode, "go.mod file not found").
		WithContext("start", start).
		WithSuggestion("Run anchor inside a Go module or pass --module")
}

// ParseModule reads the module declaration from a go.mod file
func ParseModule(goModPath string) (Module, error) {
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return Module{}, errors.FileSystemError("read", goModPath, err)
	}

	file, err := modfile.ParseLax(goModPath, data, nil)
	if err != nil {
		return Module{}, errors.NewConfigurationError(goModPath, err)
	}
	if file.Module == nil {
		return Module{}, errors.NewConfigurationError(goModPath, fmt.Errorf("module declaration not found"))
	}

	dir, err := filepath.Abs(filepath.Dir(goModPath))
	if err != nil {
		return Module{}, errors.FileSystemError("resolve", goModPath, err)
	}

	module := Module{Path: file.Module.Mod.Path, Dir: dir}
	if file.Go != nil {
		module.GoVersion = file.Go.Version
	}
	return module, nil
}

// ImportPath returns the import path of a package directory inside the module
func (m Module) ImportPath(packageDir string) (string, error) {
	abs, err := filepath.Abs(packageDir)
	if err != nil {
		return "", errors.FileSystemError("resolve", packageDir, err)
	}

	rel, err := filepath.Rel(m.Dir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ConfigurationErrorCode, "%s is outside module %s", packageDir, m.Path)
	}

	if rel == "." {
		return m.Path, nil
	}
	return m.Path + "/" + filepath.ToSlash(rel), nil
}
