package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()

	assert.Equal(t,
		[]AnnotationType{ServiceAnnotation, PrepareAnnotation, DelegateAnnotation, InjectAnnotation},
		registry.ListTypes())

	schema, err := registry.GetSchema(InjectAnnotation)
	require.NoError(t, err)
	assert.Len(t, schema.Validators, 1)
	assert.Contains(t, schema.Parameters, "Collect")
}

func TestRegistryRegister(t *testing.T) {
	t.Run("registers once", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(PrepareAnnotation, PrepareAnnotationSchema))
		assert.True(t, registry.IsRegistered(PrepareAnnotation))
		assert.False(t, registry.IsRegistered(ServiceAnnotation))

		err := registry.Register(PrepareAnnotation, PrepareAnnotationSchema)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("schema type must match", func(t *testing.T) {
		err := NewRegistry().Register(ServiceAnnotation, PrepareAnnotationSchema)
		require.Error(t, err)
		var registration *RegistrationError
		require.ErrorAs(t, err, &registration)
		assert.Equal(t, RegistrationErrorCode, registration.Code())
	})

	t.Run("invalid parameter spec", func(t *testing.T) {
		schema := AnnotationSchema{
			Type:       ServiceAnnotation,
			Parameters: map[string]ParameterSpec{"": {Type: StringType}},
		}
		err := NewRegistry().Register(ServiceAnnotation, schema)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parameter name cannot be empty")
	})

	t.Run("unknown schema", func(t *testing.T) {
		_, err := NewRegistry().GetSchema(InjectAnnotation)
		require.Error(t, err)
	})
}

func TestParserUsesItsRegistry(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(ServiceAnnotation, ServiceAnnotationSchema))

	parser := NewParser(registry)
	_, err := parser.ParseAnnotation("//anchor::service", testLocation)
	require.NoError(t, err)

	_, err = parser.ParseAnnotation("//anchor::prepare", testLocation)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Use one of: service")
}

func TestAnnotationTypes(t *testing.T) {
	for _, annotationType := range []AnnotationType{ServiceAnnotation, PrepareAnnotation, DelegateAnnotation, InjectAnnotation} {
		parsed, err := ParseAnnotationType(annotationType.String())
		require.NoError(t, err)
		assert.Equal(t, annotationType, parsed)
	}

	_, err := ParseAnnotationType("route")
	assert.Error(t, err)
	assert.Equal(t, "unknown", AnnotationType(99).String())
}

func TestParsedAnnotationAccessors(t *testing.T) {
	parsed := &ParsedAnnotation{Parameters: map[string]any{
		"Name":     "logger",
		"Primary":  true,
		"Profiles": []string{"a", "b"},
	}}

	assert.Equal(t, "logger", parsed.GetString("Name"))
	assert.Equal(t, "fallback", parsed.GetString("Missing", "fallback"))
	assert.True(t, parsed.GetBool("Primary"))
	assert.False(t, parsed.GetBool("Name"))
	assert.Equal(t, []string{"a", "b"}, parsed.GetStringSlice("Profiles"))
	assert.Nil(t, parsed.GetStringSlice("Missing"))
	assert.True(t, parsed.HasParameter("Primary"))
}
