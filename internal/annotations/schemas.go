package annotations

import (
	"fmt"
	"strings"

	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// ServiceAnnotationSchema defines the schema for //anchor::service annotations
var ServiceAnnotationSchema = AnnotationSchema{
	Type:        ServiceAnnotation,
	Description: "Registers a struct as a concrete service or an interface as an abstract service",
	Parameters: map[string]ParameterSpec{
		"Name": {
			Type:        StringType,
			Description: "Explicit service id, used instead of the type when referencing the service",
			Validator:   ValidateNotEmpty,
		},
		"Profiles": ProfilesParameterSpec(),
		"Primary": {
			Type:        BoolType,
			Description: "Preferred implementation when an abstract service has several",
		},
		"Implements": {
			Type:        StringSliceType,
			Description: "Additional abstract types the service satisfies",
			Validator:   ValidateObjectTypes,
		},
	},
	Examples: []string{
		"//anchor::service",
		"//anchor::service -Name=logger",
		"//anchor::service -Profiles=staging,prod -Primary",
		"//anchor::service -Implements=github.com/acme/app/logging.Logger",
	},
}

// PrepareAnnotationSchema defines the schema for //anchor::prepare annotations
var PrepareAnnotationSchema = AnnotationSchema{
	Type:        PrepareAnnotation,
	Description: "Marks a method the container calls after the service is built",
	Parameters:  map[string]ParameterSpec{},
	Examples: []string{
		"//anchor::prepare",
	},
}

// DelegateAnnotationSchema defines the schema for //anchor::delegate annotations
var DelegateAnnotationSchema = AnnotationSchema{
	Type:        DelegateAnnotation,
	Description: "Marks a function or method that builds the service it returns",
	Parameters: map[string]ParameterSpec{
		"Profiles": ProfilesParameterSpec(),
	},
	Examples: []string{
		"//anchor::delegate",
		"//anchor::delegate -Profiles=test",
	},
}

// InjectAnnotationSchema defines the schema for //anchor::inject annotations
var InjectAnnotationSchema = AnnotationSchema{
	Type:        InjectAnnotation,
	Description: "Injects a value, a service or a collection of services into a parameter or field",
	Parameters: map[string]ParameterSpec{
		"Param": {
			Type:        StringType,
			Description: "Parameter of the annotated function; omitted on struct fields",
			Validator:   ValidateNotEmpty,
		},
		"Value": {
			Type:        StringType,
			Description: "Literal value, or the key to read when -From names a parameter store",
		},
		"Service": {
			Type:        StringType,
			Description: "Service type or name to inject",
			Validator:   ValidateNotEmpty,
		},
		"Collect": {
			Type:        StringType,
			Description: "Inject every active service that is a Collect type",
			Validator:   ValidateObjectType,
		},
		"Shape": {
			Type:        StringType,
			Description: "Collection shape: 'list' (default) or 'map'",
			Validator:   ValidateShape,
		},
		"From": {
			Type:        StringType,
			Description: "Parameter store the value is read from, such as env",
			Validator:   ValidateNotEmpty,
		},
		"Type": {
			Type:        StringType,
			Description: "Type of the injected value when it cannot be taken from the parameter",
			Validator:   ValidateType,
		},
		"Profiles": ProfilesParameterSpec(),
	},
	Examples: []string{
		"//anchor::inject -Param=port -Value=8080",
		"//anchor::inject -Param=user -From=env -Value=USER",
		"//anchor::inject -Param=logger -Service=logger -Profiles=staging",
		"//anchor::inject -Param=plugins -Collect=github.com/acme/app/plugin.Plugin -Shape=map",
		"//anchor::inject -Service=logger",
	},
}

// BuiltinSchemas returns every annotation schema anchor understands
func BuiltinSchemas() []AnnotationSchema {
	return []AnnotationSchema{
		ServiceAnnotationSchema,
		PrepareAnnotationSchema,
		DelegateAnnotationSchema,
		InjectAnnotationSchema,
	}
}

// ProfilesParameterSpec returns the standard Profiles parameter specification
func ProfilesParameterSpec() ParameterSpec {
	return ParameterSpec{
		Type:        StringSliceType,
		Description: "Comma-separated profiles the definition is active in (default: default)",
		Validator:   ValidateProfiles,
	}
}

// ValidateNotEmpty rejects empty string values
func ValidateNotEmpty(v any) error {
	if strings.TrimSpace(v.(string)) == "" {
		return fmt.Errorf("value cannot be empty")
	}
	return nil
}

// ValidateProfiles rejects empty profile names
func ValidateProfiles(v any) error {
	for _, profile := range v.([]string) {
		if profile == "" {
			return fmt.Errorf("profile names cannot be empty")
		}
	}
	return nil
}

// ValidateType checks that the value is a well-formed type expression
func ValidateType(v any) error {
	_, err := types.Parse(v.(string))
	return err
}

// ValidateObjectType checks that the value names a single object type
func ValidateObjectType(v any) error {
	t, err := types.Parse(v.(string))
	if err != nil {
		return err
	}
	if !t.IsObject() {
		return fmt.Errorf("%s is not an object type", t)
	}
	return nil
}

// ValidateObjectTypes checks every entry with ValidateObjectType
func ValidateObjectTypes(v any) error {
	for _, entry := range v.([]string) {
		if err := ValidateObjectType(entry); err != nil {
			return err
		}
	}
	return nil
}

// ValidateShape validates collection shapes (list/map)
func ValidateShape(v any) error {
	shape := v.(string)
	if shape != definition.DefaultCollectionShape && shape != "map" {
		return fmt.Errorf("must be 'list' or 'map', got '%s'", shape)
	}
	return nil
}

// ValidateInjectParameters is a custom validator for inject annotations
func ValidateInjectParameters(annotation *ParsedAnnotation) error {
	sources := 0
	for _, name := range []string{"Value", "Service", "Collect"} {
		if annotation.HasParameter(name) {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("inject requires exactly one of -Value, -Service or -Collect")
	}

	if annotation.HasParameter("Shape") && !annotation.HasParameter("Collect") {
		return fmt.Errorf("-Shape can only be used with -Collect")
	}
	if annotation.HasParameter("From") && !annotation.HasParameter("Value") {
		return fmt.Errorf("-From requires -Value to name the key to read")
	}
	return nil
}

func init() {
	InjectAnnotationSchema.Validators = []CustomValidator{
		ValidateInjectParameters,
	}
}
