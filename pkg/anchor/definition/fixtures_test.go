package definition

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toyz/anchor/pkg/anchor/types"
)

var (
	loggerType     = types.Object("github.com/acme/app/logging.Logger")
	fileLoggerType = types.Object("github.com/acme/app/logging.FileLogger")
	stdLoggerType  = types.Object("github.com/acme/app/logging.StdLogger")
	nullLoggerType = types.Object("github.com/acme/app/logging.NullLogger")
	handlerType    = types.Object("github.com/acme/app/http.Handler")
)

func mustService(t *testing.T, builder *ServiceDefinitionBuilder) ServiceDefinition {
	t.Helper()
	service, err := builder.Build()
	require.NoError(t, err)
	return service
}

func mustAlias(t *testing.T, abstract, concrete types.Type) AliasDefinition {
	t.Helper()
	alias, err := NewAliasDefinitionBuilder(abstract).WithConcrete(concrete).Build()
	require.NoError(t, err)
	return alias
}

func mustInject(t *testing.T, builder *InjectDefinitionBuilder) InjectDefinition {
	t.Helper()
	inject, err := builder.Build()
	require.NoError(t, err)
	return inject
}
