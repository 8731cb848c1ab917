// Package scanner finds anchor annotations in Go source and indexes the
// declarations they refer to.
package scanner

import (
	"context"
	stderrors "errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/toyz/anchor/internal/annotations"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

var builtinScalars = map[string]types.ScalarKind{
	"string":  types.String,
	"bool":    types.Bool,
	"int":     types.Int,
	"int8":    types.Int,
	"int16":   types.Int,
	"int32":   types.Int,
	"int64":   types.Int,
	"uint":    types.Int,
	"uint8":   types.Int,
	"uint16":  types.Int,
	"uint32":  types.Int,
	"uint64":  types.Int,
	"byte":    types.Int,
	"rune":    types.Int,
	"float32": types.Float,
	"float64": types.Float,
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// Result is everything found in one scan
type Result struct {
	Module   Module
	Packages []string // import paths of the scanned packages
	Files    []string
	Facts    []Fact
	Index    *TypeIndex
}

// Scanner walks package directories and collects annotation facts
type Scanner struct {
	parser *annotations.Parser
	logger *zap.Logger
	module *Module
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLogger sets the logger used for scan progress
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithModule fixes the module instead of looking for go.mod
func WithModule(module Module) Option {
	return func(s *Scanner) {
		s.module = &module
	}
}

// WithParser replaces the annotation parser
func WithParser(p *annotations.Parser) Option {
	return func(s *Scanner) {
		s.parser = p
	}
}

// New creates a scanner using the default annotation registry
func New(opts ...Option) *Scanner {
	s := &Scanner{
		parser: annotations.NewParser(nil),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan parses every package matched by patterns. Annotation errors are
// collected across all files and returned together with the partial result.
func (s *Scanner) Scan(ctx context.Context, patterns []string) (*Result, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	dirs, err := ResolvePatterns(patterns)
	if err != nil {
		return nil, err
	}

	module, err := s.resolveModule(patterns)
	if err != nil {
		return nil, err
	}

	result := &Result{Module: module, Index: NewTypeIndex()}
	errs := errors.NewMultipleErrors()

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		importPath, err := module.ImportPath(dir)
		if err != nil {
			return nil, err
		}

		pkg := &packageScan{scanner: s, dir: dir, importPath: importPath, result: result, errs: errs}
		if err := pkg.scan(); err != nil {
			return nil, err
		}
		result.Packages = append(result.Packages, importPath)
	}

	s.logger.Debug("scan complete",
		zap.String("module", module.Path),
		zap.Int("packages", len(result.Packages)),
		zap.Int("facts", len(result.Facts)))

	return result, errs.ErrorOrNil()
}

func (s *Scanner) resolveModule(patterns []string) (Module, error) {
	if s.module != nil {
		return *s.module, nil
	}
	start := strings.TrimSuffix(strings.TrimSuffix(patterns[0], "..."), "/")
	if start == "" {
		start = "."
	}
	return FindModule(start)
}

// packageScan holds the state of scanning one directory
type packageScan struct {
	scanner    *Scanner
	dir        string
	importPath string
	result     *Result
	errs       *errors.MultipleErrors

	fset  *token.FileSet
	local map[string]bool
	scope Scope
	file  string
}

func (p *packageScan) scan() error {
	paths, err := SourceFiles(p.dir)
	if err != nil {
		return err
	}

	p.fset = token.NewFileSet()
	p.local = make(map[string]bool)

	var files []*ast.File
	for _, filename := range paths {
		file, err := parser.ParseFile(p.fset, filename, nil, parser.ParseComments)
		if err != nil {
			p.errs.Add(errors.Wrap(errors.SyntaxErrorCode, "failed to parse Go source", err).
				WithLocation(errors.SourceLocation{File: filename}))
			continue
		}
		files = append(files, file)
		p.result.Files = append(p.result.Files, filename)
		p.collectTypeNames(file)
	}

	inspect := inspector.New(files)
	nodeFilter := []ast.Node{
		(*ast.File)(nil),
		(*ast.GenDecl)(nil),
		(*ast.FuncDecl)(nil),
	}
	inspect.Preorder(nodeFilter, func(n ast.Node) {
		switch node := n.(type) {
		case *ast.File:
			p.enterFile(node)
		case *ast.GenDecl:
			p.visitGenDecl(node)
		case *ast.FuncDecl:
			p.visitFuncDecl(node)
		}
	})

	p.scanner.logger.Debug("package scanned",
		zap.String("package", p.importPath),
		zap.Int("files", len(files)))
	return nil
}

func (p *packageScan) collectTypeNames(file *ast.File) {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			p.local[spec.(*ast.TypeSpec).Name.Name] = true
		}
	}
}

func (p *packageScan) enterFile(file *ast.File) {
	p.file = p.fset.Position(file.Package).Filename
	p.scope = Scope{Package: p.importPath, Imports: make(map[string]string)}

	for _, spec := range file.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := PackageName(importPath)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		p.scope.Imports[name] = importPath
	}
}

// PackageName guesses the package name of an import path from its last
// element, skipping major version suffixes
func PackageName(importPath string) string {
	name := path.Base(importPath)
	if majorVersion.MatchString(name) {
		name = path.Base(path.Dir(importPath))
	}
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	return strings.ReplaceAll(name, "-", "_")
}

func (p *packageScan) visitGenDecl(gen *ast.GenDecl) {
	if gen.Tok != token.TYPE {
		return
	}

	for _, spec := range gen.Specs {
		typeSpec := spec.(*ast.TypeSpec)
		doc := typeSpec.Doc
		if doc == nil && len(gen.Specs) == 1 {
			doc = gen.Doc
		}

		decl := &TypeDecl{
			ID:       p.importPath + "." + typeSpec.Name.Name,
			Package:  p.importPath,
			Name:     typeSpec.Name.Name,
			Fields:   make(map[string]types.Type),
			Location: p.location(typeSpec.Pos()),
		}

		switch t := typeSpec.Type.(type) {
		case *ast.InterfaceType:
			decl.Interface = true
			p.indexInterface(decl, t)
		case *ast.StructType:
			decl.Struct = true
			p.indexStruct(decl, t)
		}

		p.result.Index.AddType(decl)
		p.collect(doc, Target{Kind: TypeTarget, Type: decl.ID})
	}
}

func (p *packageScan) indexInterface(decl *TypeDecl, iface *ast.InterfaceType) {
	for _, field := range iface.Methods.List {
		if len(field.Names) == 0 {
			if embedded := p.typeOf(field.Type); embedded.IsObject() {
				decl.Embedded = append(decl.Embedded, embedded.Name())
			}
			continue
		}
		for _, name := range field.Names {
			decl.Methods = append(decl.Methods, name.Name)
		}
	}
}

func (p *packageScan) indexStruct(decl *TypeDecl, st *ast.StructType) {
	for _, field := range st.Fields.List {
		fieldType := p.typeOf(field.Type)
		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}
			decl.Fields[name.Name] = fieldType

			target := Target{Kind: FieldTarget, Type: decl.ID, Field: name.Name, FieldType: fieldType}
			p.collect(field.Doc, target)
			p.collect(field.Comment, target)
		}
	}
}

func (p *packageScan) visitFuncDecl(fn *ast.FuncDecl) {
	decl := &FuncDecl{
		Package:  p.importPath,
		Name:     fn.Name.Name,
		Location: p.location(fn.Pos()),
	}

	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		receiver := receiverName(fn.Recv.List[0].Type)
		if receiver == "" {
			return
		}
		decl.Receiver = p.importPath + "." + receiver
	}

	for i, field := range fn.Type.Params.List {
		paramType := p.typeOf(field.Type)
		if len(field.Names) == 0 {
			decl.Params = append(decl.Params, Param{Name: fmt.Sprintf("arg%d", i), Type: paramType})
			continue
		}
		for _, name := range field.Names {
			decl.Params = append(decl.Params, Param{Name: name.Name, Type: paramType})
		}
	}

	if fn.Type.Results != nil {
		for _, field := range fn.Type.Results.List {
			resultType := p.typeOf(field.Type)
			count := len(field.Names)
			if count == 0 {
				count = 1
			}
			for i := 0; i < count; i++ {
				decl.Results = append(decl.Results, resultType)
			}
		}
	}

	p.result.Index.AddFunc(decl)

	target := Target{Kind: FuncTarget, Func: decl.Name}
	if decl.IsMethod() {
		target = Target{Kind: MethodTarget, Type: decl.Receiver, Func: decl.Name}
	}
	p.collect(fn.Doc, target)
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.ParenExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

// typeOf maps a Go type expression onto the definition type model. Named
// types and pointers to them become object types, builtin numbers and
// strings become scalars and everything else is mixed.
func (p *packageScan) typeOf(expr ast.Expr) types.Type {
	switch t := expr.(type) {
	case *ast.Ident:
		if kind, ok := builtinScalars[t.Name]; ok {
			return types.Scalar(kind)
		}
		if p.local[t.Name] {
			return types.Object(p.importPath + "." + t.Name)
		}
		return types.Mixed()
	case *ast.StarExpr:
		inner := p.typeOf(t.X)
		if inner.IsScalar() {
			return types.Nullable(inner)
		}
		return inner
	case *ast.ParenExpr:
		return p.typeOf(t.X)
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return types.Mixed()
		}
		importPath, ok := p.scope.Imports[pkg.Name]
		if !ok {
			return types.Mixed()
		}
		return types.Object(importPath + "." + t.Sel.Name)
	default:
		return types.Mixed()
	}
}

func (p *packageScan) collect(doc *ast.CommentGroup, target Target) {
	if doc == nil {
		return
	}

	for _, comment := range doc.List {
		if !annotations.IsAnnotation(comment.Text) {
			continue
		}

		location := p.location(comment.Slash)
		parsed, err := p.scanner.parser.ParseAnnotation(comment.Text, location)
		if err != nil {
			p.addAnnotationError(err, location)
			continue
		}

		p.result.Facts = append(p.result.Facts, Fact{
			Kind:       parsed.Type,
			Annotation: parsed,
			Target:     target,
			Scope:      p.scope,
			Location:   location,
		})
		p.scanner.logger.Debug("annotation found",
			zap.String("annotation", parsed.Type.String()),
			zap.String("target", target.String()),
			zap.String("location", location.String()))
	}
}

func (p *packageScan) addAnnotationError(err error, location errors.SourceLocation) {
	var multiple *annotations.MultipleValidationErrors
	if stderrors.As(err, &multiple) {
		for _, annotationErr := range multiple.Errors {
			p.errs.Add(fromAnnotationError(annotationErr))
		}
		return
	}

	var annotationErr annotations.AnnotationError
	if stderrors.As(err, &annotationErr) {
		p.errs.Add(fromAnnotationError(annotationErr))
		return
	}

	p.errs.Add(errors.Wrap(errors.SyntaxErrorCode, "invalid annotation", err).WithLocation(location))
}

func fromAnnotationError(err annotations.AnnotationError) errors.AnchorError {
	code := errors.ValidationErrorCode
	if err.Code() == annotations.SyntaxErrorCode {
		code = errors.SyntaxErrorCode
	}

	converted := errors.New(code, err.Detail()).WithLocation(err.Location())
	if hint := err.Suggestion(); hint != "" {
		converted.WithSuggestion(hint)
	}
	return converted
}

func (p *packageScan) location(pos token.Pos) errors.SourceLocation {
	position := p.fset.Position(pos)
	return errors.SourceLocation{
		File:   position.Filename,
		Line:   position.Line,
		Column: position.Column,
	}
}
