package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/factory"
	"github.com/toyz/anchor/pkg/anchor/store"
	"github.com/toyz/anchor/pkg/anchor/types"
)

var (
	loggerType     = types.Object("app.Logger")
	fileLoggerType = types.Object("app.FileLogger")
	stdLoggerType  = types.Object("app.StdLogger")
	factoryType    = types.Object("app.Factory")
)

func must[T any](t *testing.T) func(T, error) T {
	return func(v T, err error) T {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}

func loggingDefinition(t *testing.T) definition.ContainerDefinition {
	service := must[definition.ServiceDefinition](t)
	alias := must[definition.AliasDefinition](t)

	return definition.NewContainerDefinitionBuilder().
		WithServiceDefinition(
			service(definition.AbstractService(loggerType).WithName("logger").Build()),
			service(definition.ConcreteService(fileLoggerType).WithImplements(loggerType).Build()),
			service(definition.ConcreteService(stdLoggerType).
				WithProfiles("staging").
				WithImplements(loggerType).
				WithAttribute(definition.NewAttribute("service", []byte("//anchor::service -Profiles=staging"))).
				Build()),
			service(definition.ConcreteService(factoryType).Build()),
		).
		WithAliasDefinition(
			alias(definition.NewAliasDefinitionBuilder(loggerType).WithConcrete(fileLoggerType).Build()),
			alias(definition.NewAliasDefinitionBuilder(loggerType).WithConcrete(stdLoggerType).Build()),
		).
		WithServicePrepareDefinition(
			must[definition.ServicePrepareDefinition](t)(
				definition.NewServicePrepareDefinitionBuilder(stdLoggerType).WithMethod("Open").Build()),
		).
		WithServiceDelegateDefinition(
			must[definition.ServiceDelegateDefinition](t)(
				definition.NewServiceDelegateDefinitionBuilder(stdLoggerType).
					WithMethod(factoryType, "Create").
					WithProfiles("test").
					Build()),
		).
		WithInjectDefinition(
			must[definition.InjectDefinition](t)(
				definition.NewInjectDefinitionBuilder(fileLoggerType).
					WithMethod(definition.ConstructorMethod, types.Scalar(types.String), "path").
					WithValue(definition.Literal("/var/log/app.log")).
					Build()),
			must[definition.InjectDefinition](t)(
				definition.NewInjectDefinitionBuilder(stdLoggerType).
					WithProperty(types.Scalar(types.String), "Prefix").
					WithValue(definition.StoreKey("LOG_PREFIX")).
					WithStore(store.EnvironmentStoreName).
					WithProfiles("staging").
					Build()),
		).
		Build()
}

func reportFor(t *testing.T, profiles ...string) *Report {
	t.Helper()
	view := definition.NewProfilesAwareContainerDefinition(loggingDefinition(t), profiles...)
	state, err := factory.NewState(view, store.MustStores(store.NewEnvironment()))
	require.NoError(t, err)
	return FromState(state)
}

func TestFromStateDefaultProfile(t *testing.T) {
	r := reportFor(t)

	assert.Equal(t, []string{"default"}, r.Profiles)
	assert.Equal(t, []Service{
		{Type: "app.Factory", Kind: "concrete", Profiles: []string{"default"}},
		{Type: "app.FileLogger", Kind: "concrete", Profiles: []string{"default"}, Implements: []string{"app.Logger"}},
		{Type: "app.Logger", Name: "logger", Kind: "abstract", Profiles: []string{"default"}},
	}, r.Services)
	assert.Equal(t, []Alias{
		{Abstract: "app.Logger", Concrete: "app.FileLogger", Candidates: []string{"app.FileLogger"}},
	}, r.Aliases)
	assert.Empty(t, r.Delegates)
	assert.Empty(t, r.Prepares)
	assert.Equal(t, []Inject{{
		Target:   "app.FileLogger::New(path)",
		Type:     "string",
		Kind:     "literal",
		Value:    "/var/log/app.log",
		Profiles: []string{"default"},
	}}, r.Injects)
}

func TestFromStateStaging(t *testing.T) {
	r := reportFor(t, "default", "staging")

	require.Len(t, r.Services, 4)
	assert.Equal(t, "service", r.Services[3].Attribute)

	require.Len(t, r.Aliases, 1)
	assert.Empty(t, r.Aliases[0].Concrete)
	assert.Equal(t, []string{"app.FileLogger", "app.StdLogger"}, r.Aliases[0].Candidates)
	assert.NotEmpty(t, r.Aliases[0].Error)

	assert.Equal(t, []Prepare{{Service: "app.StdLogger", Method: "Open"}}, r.Prepares)
	require.Len(t, r.Injects, 2)
	assert.Equal(t, "app.StdLogger::Prefix", r.Injects[1].Target)
	assert.Equal(t, "store", r.Injects[1].Kind)
	assert.Equal(t, "env", r.Injects[1].Store)
}

func TestFromStateDelegates(t *testing.T) {
	r := reportFor(t, "staging", "test")

	assert.Equal(t, []Delegate{{Service: "app.StdLogger", Delegate: "app.Factory::Create"}}, r.Delegates)
	assert.Empty(t, r.Aliases)
}
