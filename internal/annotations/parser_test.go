package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLocation = SourceLocation{File: "service.go", Line: 12, Column: 1}

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name       string
		comment    string
		wantType   AnnotationType
		wantParams map[string]any
	}{
		{
			name:       "bare service",
			comment:    "//anchor::service",
			wantType:   ServiceAnnotation,
			wantParams: map[string]any{},
		},
		{
			name:     "service with flags and params",
			comment:  "//anchor::service -Name=logger -Profiles=staging,qa -Primary",
			wantType: ServiceAnnotation,
			wantParams: map[string]any{
				"Name":     "logger",
				"Profiles": []string{"staging", "qa"},
				"Primary":  true,
			},
		},
		{
			name:     "space after the comment marker",
			comment:  "// anchor::delegate -Profiles=test,prod",
			wantType: DelegateAnnotation,
			wantParams: map[string]any{
				"Profiles": []string{"test", "prod"},
			},
		},
		{
			name:     "explicit bool value",
			comment:  "//anchor::service -Primary=false",
			wantType: ServiceAnnotation,
			wantParams: map[string]any{
				"Primary": false,
			},
		},
		{
			name:     "quoted literal",
			comment:  `//anchor::inject -Param=greeting -Value="hello \"world\""`,
			wantType: InjectAnnotation,
			wantParams: map[string]any{
				"Param": "greeting",
				"Value": `hello "world"`,
			},
		},
		{
			name:     "store value",
			comment:  "//anchor::inject -Param=user -From=env -Value=USER -Type=?string",
			wantType: InjectAnnotation,
			wantParams: map[string]any{
				"Param": "user",
				"From":  "env",
				"Value": "USER",
				"Type":  "?string",
			},
		},
		{
			name:     "collection",
			comment:  "//anchor::inject -Param=plugins -Collect=github.com/acme/app/plugin.Plugin -Shape=map",
			wantType: InjectAnnotation,
			wantParams: map[string]any{
				"Param":   "plugins",
				"Collect": "github.com/acme/app/plugin.Plugin",
				"Shape":   "map",
			},
		},
		{
			name:     "negative literal",
			comment:  "//anchor::inject -Param=offset -Value=-1",
			wantType: InjectAnnotation,
			wantParams: map[string]any{
				"Param": "offset",
				"Value": "-1",
			},
		},
		{
			name:       "prepare",
			comment:    "  //anchor::prepare  ",
			wantType:   PrepareAnnotation,
			wantParams: map[string]any{},
		},
	}

	parser := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parser.ParseAnnotation(tt.comment, testLocation)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, parsed.Type)
			assert.Equal(t, tt.wantParams, parsed.Parameters)
			assert.Equal(t, testLocation, parsed.Location)
		})
	}
}

func TestParseAnnotationErrors(t *testing.T) {
	tests := []struct {
		name     string
		comment  string
		code     ErrorCode
		contains string
	}{
		{"not an annotation", "// just a comment", SyntaxErrorCode, "syntax error"},
		{"unknown type", "//anchor::controller", SyntaxErrorCode, "unknown annotation type 'controller'"},
		{"trailing text", "//anchor::service logger", SyntaxErrorCode, "syntax error"},
		{"duplicate parameter", "//anchor::service -Name=a -Name=b", SyntaxErrorCode, "given more than once"},
		{"unknown parameter", "//anchor::service -Mode=Transient", ValidationErrorCode, "unknown parameter 'Mode'"},
		{"flag without value", "//anchor::service -Name", ValidationErrorCode, "a value is required"},
		{"bad bool", "//anchor::service -Primary=maybe", ValidationErrorCode, "value convertible to bool"},
		{"bad type", "//anchor::inject -Param=x -Value=1 -Type=int|", ValidationErrorCode, "parameter 'Type'"},
		{"scalar implements", "//anchor::service -Implements=string", ValidationErrorCode, "string is not an object type"},
		{"empty profile", "//anchor::service -Profiles=a,", ValidationErrorCode, "profile names cannot be empty"},
		{"bad shape", "//anchor::inject -Param=x -Collect=a.A -Shape=set", ValidationErrorCode, "must be 'list' or 'map'"},
		{"no value source", "//anchor::inject -Param=x", SchemaErrorCode, "exactly one of"},
		{"two value sources", "//anchor::inject -Param=x -Value=1 -Service=a.A", SchemaErrorCode, "exactly one of"},
		{"shape without collect", "//anchor::inject -Param=x -Value=1 -Shape=map", SchemaErrorCode, "-Shape can only be used with -Collect"},
		{"store without key", "//anchor::inject -Param=x -Service=a.A -From=env", SchemaErrorCode, "-From requires -Value"},
	}

	parser := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseAnnotation(tt.comment, testLocation)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Contains(t, err.Error(), "service.go:12:1")

			switch e := err.(type) {
			case *MultipleValidationErrors:
				assert.True(t, e.HasType(tt.code), "expected a %s in %v", tt.code, e)
			case AnnotationError:
				assert.Equal(t, tt.code, e.Code())
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}
}

func TestIsAnnotation(t *testing.T) {
	assert.True(t, IsAnnotation("//anchor::service"))
	assert.True(t, IsAnnotation("  // anchor::inject -Param=x -Value=1"))
	assert.False(t, IsAnnotation("// anchor is a DI tool"))
	assert.False(t, IsAnnotation("//di::core"))
}
