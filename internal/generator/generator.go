// Package generator writes the Go file that registers the code behind a
// compiled definition with the reference container.
package generator

import (
	"bytes"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/imports"

	"github.com/toyz/anchor/internal/analyzer"
	"github.com/toyz/anchor/pkg/anchor"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/serializer"
)

const runtimePath = "github.com/toyz/anchor/pkg/anchor/"

// Output describes where the generated file goes
type Output struct {
	File       string // path of the generated file
	Package    string // package clause; defaults to the base of the file's directory
	ImportPath string // import path of the output package

	Dotenv     []string // .env files layered under the environment store
	ConfigFile string   // optional YAML or TOML file backing the config store
}

func (o Output) packageName() string {
	if o.Package != "" {
		return o.Package
	}
	return filepath.Base(filepath.Dir(o.File))
}

// Generator renders analyses as Go source
type Generator struct {
	logger     *zap.Logger
	serializer *serializer.Serializer
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a generator
func New(opts ...Option) *Generator {
	g := &Generator{
		logger:     zap.NewNop(),
		serializer: serializer.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the registration file for analysis. Every constructor and
// delegate must be reachable from the output package.
func (g *Generator) Generate(analysis *analyzer.Analysis, out Output) ([]byte, error) {
	pkg := out.packageName()
	if !token.IsIdentifier(pkg) {
		return nil, errors.Newf(errors.ConfigurationErrorCode, "%q is not a valid package name", pkg).
			WithSuggestion("Set output.package in the configuration file")
	}

	document, err := g.serializer.Serialize(analysis.Definition)
	if err != nil {
		return nil, err
	}

	im := NewImportManager(out.ImportPath)
	im.Reserve("Catalog", "Definition", "Stores", "NewContainer", "NewContainerWith", "definitionDocument",
		"def", "err", "profiles", "opts", "stores", "config")
	data := fileData{
		Version:    anchor.Version,
		Package:    pkg,
		Container:  im.Add(runtimePath + "container"),
		Definition: im.Add(runtimePath + "definition"),
		Factory:    im.Add(runtimePath + "factory"),
		Serializer: im.Add(runtimePath + "serializer"),
		Store:      im.Add(runtimePath + "store"),
		Dotenv:     out.Dotenv,
		ConfigFile: out.ConfigFile,
		Document:   string(document),
	}

	problems := errors.NewMultipleErrors()
	external := func(importPath, name, what string) bool {
		if importPath != out.ImportPath && !token.IsExported(name) {
			problems.Add(errors.Newf(errors.ValidationErrorCode,
				"%s %s is unexported and cannot be referenced from %s", what, name, out.ImportPath).
				WithSuggestion("Export it or generate the file into " + importPath))
			return false
		}
		return true
	}

	catalog := analysis.Catalog
	for _, constructor := range catalog.Constructors {
		r := registration{Service: constructor.Service, Params: constructor.Params}
		if constructor.Func == "" {
			name := strings.TrimPrefix(constructor.Service, constructor.Package+".")
			if !external(constructor.Package, name, "type") {
				continue
			}
			qualified := im.Qualify(constructor.Package, name)
			r.Expr = fmt.Sprintf("func() *%s { return &%s{} }", qualified, qualified)
		} else {
			if !external(constructor.Package, constructor.Func, "constructor") {
				continue
			}
			r.Expr = im.Qualify(constructor.Package, constructor.Func)
		}
		data.Constructors = append(data.Constructors, r)
	}
	for _, method := range catalog.Methods {
		data.Methods = append(data.Methods, registration{
			Service: method.Service,
			Method:  method.Method,
			Params:  method.Params,
		})
	}
	for _, function := range catalog.Functions {
		if !external(function.Package, function.Func, "delegate") {
			continue
		}
		data.Functions = append(data.Functions, registration{
			Name:   function.Name,
			Expr:   im.Qualify(function.Package, function.Func),
			Params: function.Params,
		})
	}
	if err := problems.ErrorOrNil(); err != nil {
		return nil, err
	}
	data.Imports = im.Imports()

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", out.File, err)
	}

	code, err := imports.Process(out.File, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, errors.Wrap(errors.SyntaxErrorCode, "generated code does not parse", err).
			WithLocation(errors.SourceLocation{File: out.File})
	}

	g.logger.Debug("catalog generated",
		zap.String("file", out.File),
		zap.Int("constructors", len(data.Constructors)),
		zap.Int("methods", len(data.Methods)),
		zap.Int("functions", len(data.Functions)))
	return code, nil
}

// Write generates the file and writes it to out.File
func (g *Generator) Write(analysis *analyzer.Analysis, out Output) error {
	code, err := g.Generate(analysis, out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out.File), 0755); err != nil {
		return errors.FileSystemError("create directory", filepath.Dir(out.File), err)
	}
	if err := os.WriteFile(out.File, code, 0644); err != nil {
		return errors.FileSystemError("write", out.File, err)
	}
	g.logger.Info("catalog written", zap.String("file", out.File))
	return nil
}
