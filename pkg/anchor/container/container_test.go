package container

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/factory"
	"github.com/toyz/anchor/pkg/anchor/store"
	"github.com/toyz/anchor/pkg/anchor/types"
)

func TestGet(t *testing.T) {
	c := createContainer(t, appDefinition(t).Build(), appCatalog(), nil)

	t.Run("constructor injects and autowiring", func(t *testing.T) {
		handler, err := Resolve[*Handler](c, handlerType.String())
		require.NoError(t, err)
		assert.Equal(t, 8080, handler.Port)

		logger, err := Resolve[*FileLogger](c, fileLoggerType.String())
		require.NoError(t, err)
		assert.Same(t, logger, handler.Logger)
		assert.Equal(t, "/var/log/app.log", logger.Path)
	})

	t.Run("instances are shared", func(t *testing.T) {
		first, err := c.Get(handlerType.String())
		require.NoError(t, err)
		second, err := c.Get(handlerType.String())
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("abstract types resolve through aliases", func(t *testing.T) {
		logger, err := c.Get(loggerType.String())
		require.NoError(t, err)
		assert.IsType(t, &FileLogger{}, logger)
	})

	t.Run("services resolve by name", func(t *testing.T) {
		byName, err := c.Get("logger")
		require.NoError(t, err)
		byType, err := c.Get(fileLoggerType.String())
		require.NoError(t, err)
		assert.Same(t, byType, byName)
	})

	t.Run("inactive services are not found", func(t *testing.T) {
		_, err := c.Get(stdLoggerType.String())
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ServiceNotFoundCode))
	})
}

func TestGetFollowsProfiles(t *testing.T) {
	c := createContainer(t, appDefinition(t).Build(), appCatalog(), nil, "staging")

	handler, err := Resolve[*Handler](c, handlerType.String())
	require.NoError(t, err)
	assert.IsType(t, &StdLogger{}, handler.Logger)
	assert.False(t, c.Has(fileLoggerType.String()))
	assert.False(t, c.Has("logger"))
}

func TestHas(t *testing.T) {
	c := createContainer(t, appDefinition(t).Build(), appCatalog(), nil)

	assert.True(t, c.Has(handlerType.String()))
	assert.True(t, c.Has(loggerType.String()))
	assert.True(t, c.Has("logger"))
	assert.False(t, c.Has(stdLoggerType.String()))
	assert.False(t, c.Has("github.com/acme/app.Unknown"))
}

func TestMake(t *testing.T) {
	c := createContainer(t, appDefinition(t).Build(), appCatalog(), nil)

	shared, err := c.Get(fileLoggerType.String())
	require.NoError(t, err)

	made, err := c.Make(fileLoggerType.String(), map[string]any{"path": "/tmp/debug.log"})
	require.NoError(t, err)
	assert.NotSame(t, shared, made)
	assert.Equal(t, "/tmp/debug.log", made.(*FileLogger).Path)

	again, err := c.Get(fileLoggerType.String())
	require.NoError(t, err)
	assert.Same(t, shared, again)
}

func TestPropertyAndMethodInjects(t *testing.T) {
	def := appDefinition(t).
		WithServiceDefinition(
			must[definition.ServiceDefinition](t)(definition.ConcreteService(authPluginType).WithImplements(pluginType).Build()),
			must[definition.ServiceDefinition](t)(definition.ConcreteService(cachePluginType).WithImplements(pluginType).Build()),
		).
		WithInjectDefinition(
			must[definition.InjectDefinition](t)(definition.NewInjectDefinitionBuilder(handlerType).
				WithProperty(types.Scalar(types.String), "Name").
				WithValue(definition.Literal("api")).
				Build()),
			must[definition.InjectDefinition](t)(definition.NewInjectDefinitionBuilder(handlerType).
				WithProperty(types.Scalar(types.Float), "Timeout").
				WithValue(definition.Literal(3)).
				Build()),
			must[definition.InjectDefinition](t)(definition.NewInjectDefinitionBuilder(handlerType).
				WithMethod("SetPlugins", types.Mixed(), "plugins").
				WithValue(definition.ServiceCollection(pluginType, "")).
				Build()),
		).
		Build()

	c := createContainer(t, def, appCatalog(), nil)
	handler, err := Resolve[*Handler](c, handlerType.String())
	require.NoError(t, err)

	assert.Equal(t, "api", handler.Name)
	assert.Equal(t, 3.0, handler.Timeout)
	assert.ElementsMatch(t, []Plugin{AuthPlugin{}, CachePlugin{}}, handler.Plugins)
}

func TestUnknownProperty(t *testing.T) {
	def := appDefinition(t).
		WithInjectDefinition(must[definition.InjectDefinition](t)(definition.NewInjectDefinitionBuilder(handlerType).
			WithProperty(types.Scalar(types.String), "Missing").
			WithValue(definition.Literal("x")).
			Build())).
		Build()

	c := createContainer(t, def, appCatalog(), nil)
	_, err := c.Get(handlerType.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no exported field Missing")
}

func TestPrepare(t *testing.T) {
	def := appDefinition(t).
		WithServicePrepareDefinition(must[definition.ServicePrepareDefinition](t)(definition.NewServicePrepareDefinitionBuilder(stdLoggerType).WithMethod("Open").Build())).
		Build()

	c := createContainer(t, def, appCatalog(), nil, "staging")
	logger, err := Resolve[*StdLogger](c, stdLoggerType.String())
	require.NoError(t, err)
	assert.Equal(t, 1, logger.Opened)

	_, err = c.Get(loggerType.String())
	require.NoError(t, err)
	assert.Equal(t, 1, logger.Opened, "prepare runs once per instance")
}

func TestDelegates(t *testing.T) {
	t.Run("method delegate", func(t *testing.T) {
		def := appDefinition(t).
			WithServiceDefinition(must[definition.ServiceDefinition](t)(definition.ConcreteService(loggerFactoryType).WithProfiles("staging").Build())).
			WithServiceDelegateDefinition(must[definition.ServiceDelegateDefinition](t)(definition.NewServiceDelegateDefinitionBuilder(stdLoggerType).
				WithMethod(loggerFactoryType, "Create").
				WithProfiles("staging").
				Build())).
			WithInjectDefinition(must[definition.InjectDefinition](t)(definition.NewInjectDefinitionBuilder(loggerFactoryType).
				WithMethod("Create", types.Scalar(types.String), "prefix").
				WithValue(definition.Literal("factory")).
				WithProfiles("staging").
				Build())).
			WithServicePrepareDefinition(must[definition.ServicePrepareDefinition](t)(definition.NewServicePrepareDefinitionBuilder(stdLoggerType).WithMethod("Open").Build())).
			Build()

		c := createContainer(t, def, appCatalog(), nil, "staging")
		logger, err := Resolve[*StdLogger](c, loggerType.String())
		require.NoError(t, err)
		assert.Equal(t, "factory", logger.Prefix)
		assert.Equal(t, 1, logger.Opened)

		f, err := Resolve[*LoggerFactory](c, loggerFactoryType.String())
		require.NoError(t, err)
		assert.Equal(t, 1, f.created)
	})

	t.Run("function delegate", func(t *testing.T) {
		def := appDefinition(t).
			WithServiceDelegateDefinition(must[definition.ServiceDelegateDefinition](t)(definition.NewServiceDelegateDefinitionBuilder(fileLoggerType).
				WithFunction("github.com/acme/app/logging.NewDiscard").
				Build())).
			Build()
		catalog := appCatalog().Function("github.com/acme/app/logging.NewDiscard", func() *FileLogger {
			return &FileLogger{Path: "/dev/null"}
		})

		c := createContainer(t, def, catalog, nil)
		logger, err := Resolve[*FileLogger](c, "logger")
		require.NoError(t, err)
		assert.Equal(t, "/dev/null", logger.Path)
	})

	t.Run("unregistered function fails the build", func(t *testing.T) {
		def := appDefinition(t).
			WithServiceDelegateDefinition(must[definition.ServiceDelegateDefinition](t)(definition.NewServiceDelegateDefinitionBuilder(fileLoggerType).
				WithFunction("github.com/acme/app/logging.Missing").
				Build())).
			Build()

		_, err := factory.New(NewAdapter(appCatalog())).CreateContainer(def)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ContainerCode))
		assert.Contains(t, err.Error(), "logging.Missing is not registered")
	})
}

func TestStoreValues(t *testing.T) {
	def := appDefinition(t).
		WithInjectDefinition(must[definition.InjectDefinition](t)(definition.NewInjectDefinitionBuilder(fileLoggerType).
			WithMethod(definition.ConstructorMethod, types.Scalar(types.String), "path").
			WithValue(definition.StoreKey("LOG_PATH")).
			WithStore(store.EnvironmentStoreName).
			Build())).
		Build()

	t.Run("value is read from the store", func(t *testing.T) {
		env := store.NewEnvironment(store.WithLookup(func(key string) (string, bool) {
			return "/srv/" + key, key == "LOG_PATH"
		}))
		c := createContainer(t, def, appCatalog(), []factory.Option{factory.WithStores(store.MustStores(env))})

		logger, err := Resolve[*FileLogger](c, fileLoggerType.String())
		require.NoError(t, err)
		assert.Equal(t, "/srv/LOG_PATH", logger.Path)
	})

	t.Run("missing value fails resolution", func(t *testing.T) {
		env := store.NewEnvironment(store.WithLookup(func(string) (string, bool) { return "", false }))
		c := createContainer(t, def, appCatalog(), []factory.Option{factory.WithStores(store.MustStores(env))})

		_, err := c.Get(handlerType.String())
		require.Error(t, err)

		var missing *errors.EnvironmentVarNotFoundError
		require.True(t, stderrors.As(err, &missing))
		assert.Equal(t, "LOG_PATH", missing.Name)
	})
}

func TestCircularDependency(t *testing.T) {
	def := definition.NewContainerDefinitionBuilder().
		WithServiceDefinition(
			must[definition.ServiceDefinition](t)(definition.ConcreteService(cycleAType).Build()),
			must[definition.ServiceDefinition](t)(definition.ConcreteService(cycleBType).Build()),
		).
		Build()
	catalog := NewCatalog().
		Constructor(cycleAType.String(), NewCycleA, "b").
		Constructor(cycleBType.String(), NewCycleB, "a")

	c := createContainer(t, def, catalog, nil)
	_, err := c.Get(cycleAType.String())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ContainerCode))
	assert.Contains(t, err.Error(), "circular dependency: "+cycleAType.String()+" -> "+cycleBType.String()+" -> "+cycleAType.String())
}

func TestConstructorErrors(t *testing.T) {
	def := definition.NewContainerDefinitionBuilder().
		WithServiceDefinition(must[definition.ServiceDefinition](t)(definition.ConcreteService(brokenType).Build())).
		Build()
	catalog := NewCatalog().Constructor(brokenType.String(), NewBroken)

	t.Run("lazy", func(t *testing.T) {
		c := createContainer(t, def, catalog, nil)
		_, err := c.Get(brokenType.String())
		require.Error(t, err)
		assert.ErrorIs(t, err, errBroken)
	})

	t.Run("eager", func(t *testing.T) {
		_, err := factory.New(NewAdapter(catalog, WithEager())).CreateContainer(def)
		require.Error(t, err)
		assert.ErrorIs(t, err, errBroken)
	})
}

func TestBuildValidation(t *testing.T) {
	t.Run("missing constructor", func(t *testing.T) {
		catalog := NewCatalog().Constructor(fileLoggerType.String(), NewFileLogger, "path")

		_, err := factory.New(NewAdapter(catalog)).CreateContainer(appDefinition(t).Build())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no constructor registered for "+handlerType.String())
	})

	t.Run("invalid catalog entries", func(t *testing.T) {
		catalog := NewCatalog().
			Constructor("a.NotAFunc", 42).
			Constructor("a.WrongNames", NewFileLogger).
			Function("a.Variadic", func(...string) *FileLogger { return nil })

		require.Len(t, catalog.Err(), 3)
		_, err := factory.New(NewAdapter(catalog)).CreateContainer(definition.NewContainerDefinitionBuilder().Build())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "multiple errors (3 total)")
	})
}

func TestInvoke(t *testing.T) {
	c := createContainer(t, appDefinition(t).Build(), appCatalog(), nil)

	results, err := c.Invoke(func(h *Handler, offset int) (int, error) {
		return h.Port + offset, nil
	}, map[string]any{"1": 2})
	require.NoError(t, err)
	assert.Equal(t, []any{8082, nil}, results)

	_, err = c.Invoke(func(string) {}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no value for parameter 0 of callable")

	_, err = c.Invoke("not a func", nil)
	require.Error(t, err)
}

func TestContainerLogsResolution(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c, err := factory.New(NewAdapter(appCatalog(), WithLogger(zap.New(core)))).CreateContainer(appDefinition(t).Build())
	require.NoError(t, err)

	_, err = c.Get(handlerType.String())
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("container built").Len())
	assert.Equal(t, 2, logs.FilterMessage("service resolved").Len())
	assert.NotEmpty(t, c.(*Container).ID())
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name  string
		raw   any
		into  any
		want  any
		fails bool
	}{
		{"assignable", "x", "", "x", false},
		{"int to float", 3, 0.0, 3.0, false},
		{"float to int", 2.0, 0, 2, false},
		{"nil to zero", nil, 0, 0, false},
		{"slice elements", []any{"a", "b"}, []string{}, []string{"a", "b"}, false},
		{"map values", map[string]any{"a": 1}, map[string]int{}, map[string]int{"a": 1}, false},
		{"number to string", 65, "", nil, true},
		{"string to int", "65", 0, nil, true},
		{"bad element", []any{"a", 1}, []string{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := convert(tt.raw, reflect.TypeOf(tt.into))
			if tt.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, value.Interface())
		})
	}
}

func TestTypeKey(t *testing.T) {
	assert.Equal(t, "github.com/toyz/anchor/pkg/anchor/container.FileLogger", TypeKey(&FileLogger{}))
	assert.Equal(t, TypeKey(&FileLogger{}), TypeKey(FileLogger{}))
	assert.Equal(t, "github.com/toyz/anchor/pkg/anchor/container.Logger", InterfaceKey[Logger]())
	assert.Empty(t, TypeKey(42))
	assert.Empty(t, TypeKey([]string{}))
	assert.Empty(t, TypeKey(nil))
}
