package errors

import (
	"fmt"
	"strings"
)

// Structural and authoring errors. These are raised as soon as they are
// discovered and are never recovered from.

// InvalidDefinitionError is returned by a definition builder whose required
// state is missing or malformed
type InvalidDefinitionError struct {
	*BaseError
	Definition string // definition kind, e.g. "InjectDefinition"
	Field      string // the field that is missing or invalid
}

// NewInvalidDefinitionError creates an error naming the definition kind and the
// reason it could not be built
func NewInvalidDefinitionError(definition, field, reason string) *InvalidDefinitionError {
	return &InvalidDefinitionError{
		BaseError: New(InvalidDefinitionCode, fmt.Sprintf("invalid %s: %s", definition, reason)).
			WithContext("definition", definition).
			WithContext("field", field),
		Definition: definition,
		Field:      field,
	}
}

// AliasSide identifies which half of an alias failed validation
type AliasSide string

const (
	AbstractSide AliasSide = "abstract"
	ConcreteSide AliasSide = "concrete"
)

// InvalidAliasError is returned when an alias references a type that is not a
// registered service, or a service with the wrong abstract/concrete flag
type InvalidAliasError struct {
	*BaseError
	Side     AliasSide
	Abstract string
	Concrete string
}

// NewAliasNotRegisteredError reports an alias side that is not a registered service
func NewAliasNotRegisteredError(side AliasSide, abstract, concrete string) *InvalidAliasError {
	offending := abstract
	if side == ConcreteSide {
		offending = concrete
	}
	message := fmt.Sprintf("an AliasDefinition has a %s type, %s, that is not a registered ServiceDefinition", side, offending)
	return &InvalidAliasError{
		BaseError: New(InvalidAliasCode, message).
			WithContext("abstract", abstract).
			WithContext("concrete", concrete).
			WithSuggestion(fmt.Sprintf("Annotate %s with //anchor::service or register it programmatically", offending)),
		Side:     side,
		Abstract: abstract,
		Concrete: concrete,
	}
}

// NewAliasFlagMismatchError reports an alias side registered with the wrong
// abstract/concrete flag
func NewAliasFlagMismatchError(side AliasSide, abstract, concrete string) *InvalidAliasError {
	offending, registeredAs := abstract, "a concrete"
	if side == ConcreteSide {
		offending, registeredAs = concrete, "an abstract"
	}
	message := fmt.Sprintf("an AliasDefinition has a %s type, %s, that is registered as %s ServiceDefinition", side, offending, registeredAs)
	return &InvalidAliasError{
		BaseError: New(InvalidAliasCode, message).
			WithContext("abstract", abstract).
			WithContext("concrete", concrete),
		Side:     side,
		Abstract: abstract,
		Concrete: concrete,
	}
}

// DelegateReturnShape describes an unsupported delegate return type
type DelegateReturnShape string

const (
	ScalarReturn    DelegateReturnShape = "a scalar type"
	UnionReturn     DelegateReturnShape = "a union type"
	IntersectReturn DelegateReturnShape = "an intersection type"
	MixedReturn     DelegateReturnShape = "an untyped value"
	NoReturn        DelegateReturnShape = "no value"
)

// InvalidServiceDelegateError is returned when a delegate method cannot
// produce a service because of its return shape
type InvalidServiceDelegateError struct {
	*BaseError
	DelegateType   string
	DelegateMethod string
	Shape          DelegateReturnShape
}

// NewInvalidServiceDelegateError creates an error for a delegate with an unsupported return shape
func NewInvalidServiceDelegateError(delegateType, delegateMethod string, shape DelegateReturnShape, returned string) *InvalidServiceDelegateError {
	message := fmt.Sprintf("the service delegate %s::%s returns %s", delegateType, delegateMethod, shape)
	if returned != "" {
		message = fmt.Sprintf("%s (%s)", message, returned)
	}
	message += "; only object types can be delegated"
	return &InvalidServiceDelegateError{
		BaseError: New(InvalidServiceDelegateCode, message).
			WithContext("delegate_type", delegateType).
			WithContext("delegate_method", delegateMethod).
			WithSuggestion("Return a named struct or interface type from the delegate"),
		DelegateType:   delegateType,
		DelegateMethod: delegateMethod,
		Shape:          shape,
	}
}

// SyntaxError represents an annotation that could not be parsed
type SyntaxError struct {
	*BaseError
	Annotation string
}

// NewSyntaxError creates a new syntax error for the raw annotation text
func NewSyntaxError(annotation string, cause error) *SyntaxError {
	return &SyntaxError{
		BaseError:  Wrap(SyntaxErrorCode, fmt.Sprintf("invalid annotation %q", strings.TrimSpace(annotation)), cause),
		Annotation: annotation,
	}
}

// ConfigurationError represents an invalid tool configuration
type ConfigurationError struct {
	*BaseError
	Source string
}

// NewConfigurationError creates a configuration error for the named source
func NewConfigurationError(source string, cause error) *ConfigurationError {
	return &ConfigurationError{
		BaseError: Wrap(ConfigurationErrorCode, fmt.Sprintf("invalid configuration in %s", source), cause).
			WithContext("source", source),
		Source: source,
	}
}

// FileSystemError creates a file system error
func FileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}
