package container

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/factory"
	"github.com/toyz/anchor/pkg/anchor/types"
)

type Logger interface {
	Log(message string)
}

type FileLogger struct {
	Path  string
	Lines []string
}

func NewFileLogger(path string) *FileLogger { return &FileLogger{Path: path} }

func (l *FileLogger) Log(message string) { l.Lines = append(l.Lines, message) }

type StdLogger struct {
	Prefix string
	Opened int
}

func NewStdLogger() *StdLogger { return &StdLogger{Prefix: "std"} }

func (l *StdLogger) Log(string) {}

func (l *StdLogger) Open() error {
	l.Opened++
	return nil
}

type LoggerFactory struct {
	created int
}

func NewLoggerFactory() *LoggerFactory { return &LoggerFactory{} }

func (f *LoggerFactory) Create(prefix string) *StdLogger {
	f.created++
	return &StdLogger{Prefix: prefix}
}

type Plugin interface {
	Plugin() string
}

type AuthPlugin struct{}

func (AuthPlugin) Plugin() string { return "auth" }

type CachePlugin struct{}

func (CachePlugin) Plugin() string { return "cache" }

type Handler struct {
	Logger  Logger
	Port    int
	Name    string
	Timeout float64
	Plugins []Plugin
}

func NewHandler(logger Logger, port int) *Handler {
	return &Handler{Logger: logger, Port: port}
}

func (h *Handler) SetPlugins(plugins []Plugin) { h.Plugins = plugins }

type CycleA struct{ B *CycleB }

type CycleB struct{ A *CycleA }

func NewCycleA(b *CycleB) *CycleA { return &CycleA{B: b} }

func NewCycleB(a *CycleA) *CycleB { return &CycleB{A: a} }

type Broken struct{}

var errBroken = stderrors.New("disk full")

func NewBroken() (*Broken, error) { return nil, errBroken }

var (
	loggerType        = types.Object(InterfaceKey[Logger]())
	fileLoggerType    = types.Object(TypeKey(&FileLogger{}))
	stdLoggerType     = types.Object(TypeKey(&StdLogger{}))
	loggerFactoryType = types.Object(TypeKey(&LoggerFactory{}))
	pluginType        = types.Object(InterfaceKey[Plugin]())
	authPluginType    = types.Object(TypeKey(AuthPlugin{}))
	cachePluginType   = types.Object(TypeKey(CachePlugin{}))
	handlerType       = types.Object(TypeKey(&Handler{}))
	cycleAType        = types.Object(TypeKey(&CycleA{}))
	cycleBType        = types.Object(TypeKey(&CycleB{}))
	brokenType        = types.Object(TypeKey(&Broken{}))
)

func must[T any](t *testing.T) func(T, error) T {
	return func(value T, err error) T {
		t.Helper()
		require.NoError(t, err)
		return value
	}
}

// appDefinition wires a handler to a file logger by default and to the
// standard logger in staging
func appDefinition(t *testing.T) *definition.ContainerDefinitionBuilder {
	t.Helper()
	return definition.NewContainerDefinitionBuilder().
		WithServiceDefinition(
			must[definition.ServiceDefinition](t)(definition.AbstractService(loggerType).Build()),
			must[definition.ServiceDefinition](t)(definition.ConcreteService(fileLoggerType).WithName("logger").WithImplements(loggerType).Build()),
			must[definition.ServiceDefinition](t)(definition.ConcreteService(stdLoggerType).WithProfiles("staging").WithImplements(loggerType).Build()),
			must[definition.ServiceDefinition](t)(definition.ConcreteService(handlerType).WithProfiles("default", "staging").Build()),
		).
		WithAliasDefinition(
			must[definition.AliasDefinition](t)(definition.NewAliasDefinitionBuilder(loggerType).WithConcrete(fileLoggerType).Build()),
			must[definition.AliasDefinition](t)(definition.NewAliasDefinitionBuilder(loggerType).WithConcrete(stdLoggerType).Build()),
		).
		WithInjectDefinition(
			must[definition.InjectDefinition](t)(definition.NewInjectDefinitionBuilder(fileLoggerType).
				WithMethod(definition.ConstructorMethod, types.Scalar(types.String), "path").
				WithValue(definition.Literal("/var/log/app.log")).
				Build()),
			must[definition.InjectDefinition](t)(definition.NewInjectDefinitionBuilder(handlerType).
				WithMethod(definition.ConstructorMethod, types.Scalar(types.Int), "port").
				WithValue(definition.Literal(8080)).
				WithProfiles("default", "staging").
				Build()),
		)
}

func appCatalog() *Catalog {
	return NewCatalog().
		Constructor(fileLoggerType.String(), NewFileLogger, "path").
		Constructor(stdLoggerType.String(), NewStdLogger).
		Constructor(handlerType.String(), NewHandler, "logger", "port").
		Constructor(loggerFactoryType.String(), NewLoggerFactory).
		Constructor(authPluginType.String(), func() AuthPlugin { return AuthPlugin{} }).
		Constructor(cachePluginType.String(), func() CachePlugin { return CachePlugin{} }).
		Method(handlerType.String(), "SetPlugins", "plugins").
		Method(loggerFactoryType.String(), "Create", "prefix")
}

func createContainer(t *testing.T, def definition.ContainerDefinition, catalog *Catalog, opts []factory.Option, profiles ...string) factory.Container {
	t.Helper()
	c, err := factory.New(NewAdapter(catalog), opts...).CreateContainer(def, profiles...)
	require.NoError(t, err)
	return c
}
