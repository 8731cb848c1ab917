// Package analyzer turns scanned annotation facts into a ContainerDefinition
// and the catalog of Go code the definition refers to.
package analyzer

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/golobby/cast"
	"go.uber.org/zap"

	"github.com/toyz/anchor/internal/annotations"
	"github.com/toyz/anchor/internal/scanner"
	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

var literalTypes = map[types.ScalarKind]reflect.Type{
	types.Int:   reflect.TypeOf(0),
	types.Float: reflect.TypeOf(float64(0)),
	types.Bool:  reflect.TypeOf(false),
}

// Analysis is the outcome of analyzing one scan
type Analysis struct {
	Definition definition.ContainerDefinition
	Catalog    Catalog
}

// Analyzer converts facts into definitions
type Analyzer struct {
	logger      *zap.Logger
	definitions []definition.ContainerDefinition
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger used while analyzing
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithDefinitions merges programmatic definitions into every analysis
func WithDefinitions(defs ...definition.ContainerDefinition) Option {
	return func(a *Analyzer) {
		a.definitions = append(a.definitions, defs...)
	}
}

// New creates an analyzer
func New(opts ...Option) *Analyzer {
	a := &Analyzer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze builds the container definition described by result. Every
// invalid annotation is reported; the returned analysis holds whatever
// could be built.
func (a *Analyzer) Analyze(result *scanner.Result) (*Analysis, error) {
	r := &run{
		logger:    a.logger,
		index:     result.Index,
		errs:      errors.NewMultipleErrors(),
		catalog:   newCatalogBuilder(),
		delegated: make(map[string]bool),
	}

	for _, fact := range result.Facts {
		switch fact.Kind {
		case annotations.ServiceAnnotation:
			r.service(fact)
		case annotations.PrepareAnnotation:
			r.prepare(fact)
		case annotations.DelegateAnnotation:
			r.delegate(fact)
		case annotations.InjectAnnotation:
			r.inject(fact)
		}
	}
	r.deriveAliases()
	r.constructors()

	def := definition.NewContainerDefinitionBuilder().
		WithServiceDefinition(r.services...).
		WithAliasDefinition(r.aliases...).
		WithServicePrepareDefinition(r.prepares...).
		WithServiceDelegateDefinition(r.delegates...).
		WithInjectDefinition(r.injects...).
		Build().
		Merge(a.definitions...)

	a.logger.Debug("definition analyzed",
		zap.Int("services", len(def.ServiceDefinitions())),
		zap.Int("aliases", len(def.AliasDefinitions())),
		zap.Int("injects", len(def.InjectDefinitions())),
		zap.Int("errors", r.errs.Count()))

	return &Analysis{Definition: def, Catalog: r.catalog.build()}, r.errs.ErrorOrNil()
}

// run is the state of one Analyze call
type run struct {
	logger  *zap.Logger
	index   *scanner.TypeIndex
	errs    *errors.MultipleErrors
	catalog *catalogBuilder

	services  []definition.ServiceDefinition
	aliases   []definition.AliasDefinition
	prepares  []definition.ServicePrepareDefinition
	delegates []definition.ServiceDelegateDefinition
	injects   []definition.InjectDefinition

	// service types produced by function delegates
	delegated map[string]bool
}

func (r *run) service(fact scanner.Fact) {
	if fact.Target.Kind != scanner.TypeTarget {
		r.misplaced(fact, "a type declaration")
		return
	}
	decl, ok := r.index.Type(fact.Target.Type)
	if !ok {
		r.misplaced(fact, "a type declaration")
		return
	}

	annotation := fact.Annotation
	typ := types.Object(decl.ID)
	builder := definition.ConcreteService(typ)
	if decl.Interface {
		builder = definition.AbstractService(typ)
	}

	builder = builder.
		WithName(annotation.GetString("Name")).
		WithPrimary(annotation.GetBool("Primary")).
		WithAttribute(attributeOf(fact))
	if annotation.HasParameter("Profiles") {
		builder = builder.WithProfiles(annotation.GetStringSlice("Profiles")...)
	}
	for _, name := range annotation.GetStringSlice("Implements") {
		builder = builder.WithImplements(types.Object(fact.Scope.QualifyName(name)))
	}
	for _, iface := range r.index.Interfaces(decl.ID) {
		builder = builder.WithImplements(types.Object(iface))
	}

	service, err := builder.Build()
	if err != nil {
		r.fail(err, fact.Location)
		return
	}
	r.services = append(r.services, service)
	r.logger.Debug("service found",
		zap.String("service", service.Type().String()),
		zap.String("kind", service.Kind().String()),
		zap.Strings("profiles", service.Profiles().Names()))
}

// deriveAliases binds every abstract service to each concrete service that
// is one of its kind
func (r *run) deriveAliases() {
	seen := make(map[string]bool)
	for _, abstract := range r.services {
		if !abstract.IsAbstract() {
			continue
		}
		for _, concrete := range r.services {
			if !concrete.IsConcrete() || !concrete.IsA(abstract.Type()) {
				continue
			}
			key := abstract.Type().String() + "|" + concrete.Type().String()
			if seen[key] {
				continue
			}
			seen[key] = true

			alias, err := definition.NewAliasDefinitionBuilder(abstract.Type()).WithConcrete(concrete.Type()).Build()
			if err != nil {
				r.errs.AddError(err)
				continue
			}
			r.aliases = append(r.aliases, alias)
			r.logger.Debug("alias derived",
				zap.String("alias", abstract.Type().String()),
				zap.String("service", concrete.Type().String()))
		}
	}
}

// constructors records how each concrete service is built: its NewX
// function when there is one, its zero value when it is a plain struct
func (r *run) constructors() {
	for _, service := range r.services {
		if !service.IsConcrete() {
			continue
		}
		id := service.Type().String()

		if fn, ok := r.index.Constructor(id); ok {
			r.catalog.constructor(Constructor{
				Service: id,
				Package: fn.Package,
				Func:    fn.Name,
				Params:  fn.ParamNames(),
			})
			continue
		}

		decl, _ := r.index.Type(id)
		if r.delegated[id] {
			continue
		}
		if decl == nil || !decl.Struct {
			r.logger.Debug("no constructor found", zap.String("service", id))
			continue
		}
		r.catalog.constructor(Constructor{Service: id, Package: decl.Package})
	}
}

func (r *run) prepare(fact scanner.Fact) {
	if fact.Target.Kind != scanner.MethodTarget {
		r.misplaced(fact, "a method")
		return
	}
	fn, ok := r.index.Method(fact.Target.Type, fact.Target.Func)
	if !ok {
		r.misplaced(fact, "a method")
		return
	}

	prepare, err := definition.NewServicePrepareDefinitionBuilder(types.Object(fn.Receiver)).
		WithMethod(fn.Name).
		WithAttribute(attributeOf(fact)).
		Build()
	if err != nil {
		r.fail(err, fact.Location)
		return
	}
	r.prepares = append(r.prepares, prepare)
	r.catalog.method(Method{Service: fn.Receiver, Method: fn.Name, Params: fn.ParamNames()})
}

func (r *run) delegate(fact scanner.Fact) {
	var (
		fn      *scanner.FuncDecl
		ok      bool
		builder *definition.ServiceDelegateDefinitionBuilder
	)

	switch fact.Target.Kind {
	case scanner.FuncTarget:
		fn, ok = r.index.Func(fact.Scope.Package + "." + fact.Target.Func)
		if ok {
			builder = definition.NewServiceDelegateDefinitionBuilder(fn.ReturnType()).WithFunction(fn.ID())
		}
	case scanner.MethodTarget:
		fn, ok = r.index.Method(fact.Target.Type, fact.Target.Func)
		if ok {
			builder = definition.NewServiceDelegateDefinitionBuilder(fn.ReturnType()).
				WithMethod(types.Object(fn.Receiver), fn.Name)
		}
	}
	if !ok {
		r.misplaced(fact, "a function or method")
		return
	}

	builder = builder.WithAttribute(attributeOf(fact))
	if fact.Annotation.HasParameter("Profiles") {
		builder = builder.WithProfiles(fact.Annotation.GetStringSlice("Profiles")...)
	}

	delegate, err := builder.Build()
	if err != nil {
		r.fail(err, fact.Location)
		return
	}
	r.delegates = append(r.delegates, delegate)

	if delegate.IsFunction() {
		r.delegated[delegate.Service().String()] = true
		r.catalog.function(Function{Name: fn.ID(), Package: fn.Package, Func: fn.Name, Params: fn.ParamNames()})
	} else {
		r.catalog.method(Method{Service: fn.Receiver, Method: fn.Name, Params: fn.ParamNames()})
	}
	r.logger.Debug("delegate found", zap.String("service", delegate.Service().String()), zap.String("delegate", delegate.String()))
}

func (r *run) inject(fact scanner.Fact) {
	annotation := fact.Annotation

	var (
		builder  *definition.InjectDefinitionBuilder
		declared types.Type
		target   func(*definition.InjectDefinitionBuilder, types.Type) *definition.InjectDefinitionBuilder
	)

	switch fact.Target.Kind {
	case scanner.FieldTarget:
		if annotation.HasParameter("Param") {
			r.invalid(fact, "-Param cannot be used on a struct field")
			return
		}
		builder = definition.NewInjectDefinitionBuilder(types.Object(fact.Target.Type))
		declared = fact.Target.FieldType
		target = func(b *definition.InjectDefinitionBuilder, t types.Type) *definition.InjectDefinitionBuilder {
			return b.WithProperty(t, fact.Target.Field)
		}

	case scanner.FuncTarget, scanner.MethodTarget:
		class, method, fn, ok := r.injectable(fact)
		if !ok {
			return
		}
		name := annotation.GetString("Param")
		if name == "" {
			r.invalid(fact, "-Param is required when injecting into "+fn.Name)
			return
		}
		param, ok := fn.Param(name)
		if !ok {
			r.invalid(fact, fmt.Sprintf("%s has no parameter %s", fn.Name, name))
			return
		}
		builder = definition.NewInjectDefinitionBuilder(types.Object(class))
		declared = param.Type
		target = func(b *definition.InjectDefinitionBuilder, t types.Type) *definition.InjectDefinitionBuilder {
			return b.WithMethod(method, t, name)
		}

	default:
		r.misplaced(fact, "a constructor, method or struct field")
		return
	}

	valueType := declared
	if annotation.HasParameter("Type") {
		parsed, err := types.Parse(annotation.GetString("Type"))
		if err != nil {
			r.fail(errors.NewSyntaxError(annotation.Raw, err), fact.Location)
			return
		}
		valueType = fact.Scope.Qualify(parsed)
	}

	value, err := r.injectValue(fact, valueType)
	if err != nil {
		r.fail(err, fact.Location)
		return
	}

	builder = target(builder, valueType).
		WithValue(value).
		WithStore(annotation.GetString("From"))
	if annotation.HasParameter("Profiles") {
		builder = builder.WithProfiles(annotation.GetStringSlice("Profiles")...)
	}

	inject, err := builder.Build()
	if err != nil {
		r.fail(err, fact.Location)
		return
	}
	r.injects = append(r.injects, inject)
	r.logger.Debug("inject found", zap.String("target", inject.Target().String()), zap.String("value", inject.Value().String()))
}

// injectable finds the class and method an inject on a function or method
// targets. Functions only accept injects when they construct a type.
func (r *run) injectable(fact scanner.Fact) (class, method string, fn *scanner.FuncDecl, ok bool) {
	if fact.Target.Kind == scanner.MethodTarget {
		fn, ok = r.index.Method(fact.Target.Type, fact.Target.Func)
		if !ok {
			r.misplaced(fact, "a method")
			return "", "", nil, false
		}
		r.catalog.method(Method{Service: fn.Receiver, Method: fn.Name, Params: fn.ParamNames()})
		return fn.Receiver, fn.Name, fn, true
	}

	fn, ok = r.index.Func(fact.Scope.Package + "." + fact.Target.Func)
	if ok && strings.HasPrefix(fn.Name, "New") {
		typeID := fn.Package + "." + strings.TrimPrefix(fn.Name, "New")
		if constructor, found := r.index.Constructor(typeID); found && constructor.Name == fn.Name {
			return typeID, definition.ConstructorMethod, fn, true
		}
	}
	r.invalid(fact, fmt.Sprintf("%s is not a constructor; injects go on New<Type> functions, methods and struct fields", fact.Target.Func))
	return "", "", nil, false
}

func (r *run) injectValue(fact scanner.Fact, valueType types.Type) (definition.Value, error) {
	annotation := fact.Annotation

	switch {
	case annotation.HasParameter("Service"):
		return definition.ServiceReference(r.serviceID(fact.Scope, annotation.GetString("Service"))), nil

	case annotation.HasParameter("Collect"):
		element := types.Object(fact.Scope.QualifyName(annotation.GetString("Collect")))
		return definition.ServiceCollection(element, annotation.GetString("Shape")), nil

	case annotation.HasParameter("From"):
		return definition.StoreKey(annotation.GetString("Value")), nil

	default:
		raw := annotation.GetString("Value")
		value, err := literal(raw, valueType)
		if err != nil {
			return definition.Value{}, errors.Wrapf(errors.ValidationErrorCode, err,
				"cannot use %q as %s", raw, valueType.String())
		}
		return definition.Literal(value), nil
	}
}

// serviceID qualifies a service reference that names a scanned type and
// leaves service names untouched
func (r *run) serviceID(scope scanner.Scope, id string) string {
	qualified := scope.QualifyName(id)
	if _, ok := r.index.Type(qualified); ok {
		return qualified
	}
	return id
}

// literal converts an annotation value to the scalar type of the parameter.
// Values for non-scalar types stay strings.
func literal(raw string, t types.Type) (any, error) {
	if t.Kind() == types.KindNullable && (raw == "nil" || raw == "null") {
		return nil, nil
	}
	kind, ok := t.ScalarKind()
	if !ok || kind == types.String {
		return raw, nil
	}
	return cast.FromType(raw, literalTypes[kind])
}

func attributeOf(fact scanner.Fact) definition.Attribute {
	return definition.NewAttribute(fact.Kind.String(), []byte(fact.Annotation.Raw))
}

func (r *run) misplaced(fact scanner.Fact, expected string) {
	r.invalid(fact, fmt.Sprintf("//anchor::%s must annotate %s, found %s %s",
		fact.Kind, expected, fact.Target.Kind, fact.Target))
}

func (r *run) invalid(fact scanner.Fact, message string) {
	r.errs.Add(errors.New(errors.ValidationErrorCode, message).WithLocation(fact.Location))
}

// fail records err at the annotation's location
func (r *run) fail(err error, location errors.SourceLocation) {
	var located interface {
		WithLocation(errors.SourceLocation) *errors.BaseError
	}
	if stderrors.As(err, &located) {
		located.WithLocation(location)
	}
	r.errs.AddError(err)
}
