package annotations

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SchemaValidator defines the interface for validating annotations against their schemas
type SchemaValidator interface {
	// Validate annotation against its schema
	Validate(annotation *ParsedAnnotation, schema AnnotationSchema) error

	// TransformParameters transforms parameter values to correct types
	TransformParameters(annotation *ParsedAnnotation, schema AnnotationSchema) error
}

// validator is the concrete implementation of SchemaValidator
type validator struct{}

// NewValidator creates a new schema validator
func NewValidator() SchemaValidator {
	return &validator{}
}

// Validate validates an annotation against its schema
func (v *validator) Validate(annotation *ParsedAnnotation, schema AnnotationSchema) error {
	var errs []AnnotationError

	for _, paramName := range sortedParameters(schema.Parameters) {
		paramSpec := schema.Parameters[paramName]
		if paramSpec.Required && !annotation.HasParameter(paramName) {
			errs = append(errs, &ValidationError{
				Parameter: paramName,
				Expected:  fmt.Sprintf("required parameter of type %s", paramSpec.Type),
				Actual:    "missing",
				Loc:       annotation.Location,
				Hint:      fmt.Sprintf("Add -%s=<value> to the annotation", paramName),
			})
		}
	}

	for _, paramName := range sortedKeys(annotation.Parameters) {
		paramValue := annotation.Parameters[paramName]
		paramSpec, exists := schema.Parameters[paramName]
		if !exists {
			errs = append(errs, &ValidationError{
				Parameter: paramName,
				Expected:  "known parameter",
				Actual:    fmt.Sprintf("unknown parameter '%s'", paramName),
				Loc:       annotation.Location,
				Hint:      fmt.Sprintf("Remove -%s or check parameter name spelling", paramName),
			})
			continue
		}

		if err := v.validateParameterType(paramName, paramSpec.Type, paramValue, annotation.Location); err != nil {
			errs = append(errs, err)
			continue
		}

		if paramSpec.Validator != nil {
			if err := paramSpec.Validator(paramValue); err != nil {
				errs = append(errs, &ValidationError{
					Parameter: paramName,
					Expected:  "valid value",
					Actual:    fmt.Sprintf("%v", paramValue),
					Loc:       annotation.Location,
					Hint:      err.Error(),
				})
			}
		}
	}

	for _, customValidator := range schema.Validators {
		if err := customValidator(annotation); err != nil {
			errs = append(errs, &SchemaError{
				Msg:  err.Error(),
				Loc:  annotation.Location,
				Hint: "Check annotation parameters and their combinations",
			})
		}
	}

	if len(errs) > 0 {
		return &MultipleValidationErrors{Errors: errs}
	}

	return nil
}

// TransformParameters transforms raw parameter values to the types the
// schema declares. Unknown parameters are left for Validate to report.
func (v *validator) TransformParameters(annotation *ParsedAnnotation, schema AnnotationSchema) error {
	for paramName, paramValue := range annotation.Parameters {
		paramSpec, exists := schema.Parameters[paramName]
		if !exists {
			continue
		}

		transformedValue, err := v.transformParameterValue(paramValue, paramSpec.Type)
		if err != nil {
			return &ValidationError{
				Parameter: paramName,
				Expected:  fmt.Sprintf("value convertible to %s", paramSpec.Type),
				Actual:    fmt.Sprintf("%v", paramValue),
				Loc:       annotation.Location,
				Hint:      err.Error(),
			}
		}

		annotation.Parameters[paramName] = transformedValue
	}

	return nil
}

// validateParameterType validates that a parameter value matches the expected type
func (v *validator) validateParameterType(paramName string, expectedType ParameterType, value any, location SourceLocation) AnnotationError {
	var ok bool
	switch expectedType {
	case StringType:
		_, ok = value.(string)
	case BoolType:
		_, ok = value.(bool)
	case StringSliceType:
		_, ok = value.([]string)
	}
	if ok {
		return nil
	}
	return &ValidationError{
		Parameter: paramName,
		Expected:  expectedType.String(),
		Actual:    fmt.Sprintf("%T", value),
		Loc:       location,
		Hint:      "Check the parameter value",
	}
}

// transformParameterValue converts a parsed value, a string or the true of
// a bare flag, to the target type
func (v *validator) transformParameterValue(value any, targetType ParameterType) (any, error) {
	switch raw := value.(type) {
	case bool:
		if targetType != BoolType {
			return nil, fmt.Errorf("a value is required, use -Name=<value>")
		}
		return raw, nil
	case string:
		return v.convertFromString(raw, targetType)
	default:
		return value, nil
	}
}

// convertFromString converts a string value to the target type
func (v *validator) convertFromString(strValue string, targetType ParameterType) (any, error) {
	switch targetType {
	case StringType:
		return strValue, nil
	case BoolType:
		return strconv.ParseBool(strValue)
	case StringSliceType:
		if strValue == "" {
			return []string{}, nil
		}
		parts := strings.Split(strValue, ",")
		result := make([]string, len(parts))
		for i, part := range parts {
			result[i] = strings.TrimSpace(part)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported target type: %d", targetType)
	}
}

func sortedParameters(specs map[string]ParameterSpec) []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(values map[string]any) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
