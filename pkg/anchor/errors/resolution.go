package errors

import (
	"fmt"
	"strings"
)

// Resolution errors. These are raised at the point a value is actually
// needed, never while definitions are being collected.

// ServiceNotFoundError is returned when a container reference or an abstract
// type required at an injection site has no single concrete resolution
type ServiceNotFoundError struct {
	*BaseError
	Service  string // the requested service id or type
	Consumer string // the injection target that needed it, if any
}

// NewServiceNotFoundError creates a service-not-found error
func NewServiceNotFoundError(service, consumer string) *ServiceNotFoundError {
	message := fmt.Sprintf("service %s could not be resolved", service)
	if consumer != "" {
		message = fmt.Sprintf("service %s required by %s could not be resolved", service, consumer)
	}
	return &ServiceNotFoundError{
		BaseError: New(ServiceNotFoundCode, message).
			WithContext("service", service).
			WithContext("consumer", consumer),
		Service:  service,
		Consumer: consumer,
	}
}

// AmbiguousAliasError is returned when an abstract service has several
// profile-active aliases and not exactly one of them is primary
type AmbiguousAliasError struct {
	*BaseError
	Abstract   string
	Candidates []string
}

// NewAmbiguousAliasError creates an ambiguous-alias error listing every candidate
func NewAmbiguousAliasError(abstract string, candidates []string) *AmbiguousAliasError {
	message := fmt.Sprintf("abstract service %s has multiple aliases and no single primary: %s",
		abstract, strings.Join(candidates, ", "))
	return &AmbiguousAliasError{
		BaseError: New(AmbiguousAliasCode, message).
			WithContext("abstract", abstract).
			WithSuggestion("Mark exactly one concrete service with -Primary or narrow the active profiles"),
		Abstract:   abstract,
		Candidates: candidates,
	}
}

// ParameterStoreNotFoundError is returned when an inject names a store that was
// never registered
type ParameterStoreNotFoundError struct {
	*BaseError
	Store string
}

// NewParameterStoreNotFoundError creates a missing-store error
func NewParameterStoreNotFoundError(store, consumer string) *ParameterStoreNotFoundError {
	message := fmt.Sprintf("parameter store %q is not registered", store)
	if consumer != "" {
		message = fmt.Sprintf("parameter store %q required by %s is not registered", store, consumer)
	}
	return &ParameterStoreNotFoundError{
		BaseError: New(ParameterStoreCode, message).WithContext("store", store),
		Store:     store,
	}
}

// EnvironmentVarNotFoundError is returned by the env store when the variable is absent
type EnvironmentVarNotFoundError struct {
	*BaseError
	Name string
}

// NewEnvironmentVarNotFoundError creates a missing environment variable error
func NewEnvironmentVarNotFoundError(name string) *EnvironmentVarNotFoundError {
	return &EnvironmentVarNotFoundError{
		BaseError: New(ParameterStoreCode, fmt.Sprintf("environment variable %q is not set", name)).
			WithContext("store", "env").
			WithContext("name", name),
		Name: name,
	}
}

// ParameterNotFoundError is returned by key/value stores when a key is absent
type ParameterNotFoundError struct {
	*BaseError
	Store string
	Key   string
}

// NewParameterNotFoundError creates a missing key error for the named store
func NewParameterNotFoundError(store, key string) *ParameterNotFoundError {
	return &ParameterNotFoundError{
		BaseError: New(ParameterStoreCode, fmt.Sprintf("parameter store %q has no value for key %q", store, key)).
			WithContext("store", store).
			WithContext("key", key),
		Store: store,
		Key:   key,
	}
}

// IncompatibleParameterTypeError is returned when a store cannot provide a key
// as the requested type
type IncompatibleParameterTypeError struct {
	*BaseError
	Store string
	Key   string
	Type  string
}

// NewIncompatibleParameterTypeError creates an incompatible-type error
func NewIncompatibleParameterTypeError(store, key, typ string, cause error) *IncompatibleParameterTypeError {
	return &IncompatibleParameterTypeError{
		BaseError: Wrap(ParameterStoreCode, fmt.Sprintf("parameter store %q cannot provide key %q as type %s", store, key, typ), cause).
			WithContext("store", store).
			WithContext("key", key).
			WithContext("type", typ),
		Store: store,
		Key:   key,
		Type:  typ,
	}
}

// MismatchedSerializerVersionsError is returned when a serialized container
// definition was written by a different tool version
type MismatchedSerializerVersionsError struct {
	*BaseError
	Expected string
	Actual   string
}

// NewMismatchedSerializerVersionsError creates a version mismatch error
func NewMismatchedSerializerVersionsError(expected, actual string) *MismatchedSerializerVersionsError {
	message := fmt.Sprintf("the container definition was serialized with version %q but the running version is %q", actual, expected)
	return &MismatchedSerializerVersionsError{
		BaseError: New(SerializationCode, message).
			WithSuggestion("Clear the definition cache and compile again"),
		Expected: expected,
		Actual:   actual,
	}
}

// UnserializableValueError is returned when an injected literal cannot be persisted
type UnserializableValueError struct {
	*BaseError
	Target string
	Type   string
}

// NewUnserializableValueError creates an error for an injected value that cannot be serialized
func NewUnserializableValueError(target, typ string) *UnserializableValueError {
	return &UnserializableValueError{
		BaseError: New(SerializationCode, fmt.Sprintf("the value injected into %s has type %s and cannot be serialized", target, typ)).
			WithContext("target", target).
			WithSuggestion("Inject scalars, lists or string-keyed maps, or use a parameter store"),
		Target: target,
		Type:   typ,
	}
}

// SerializationError wraps a malformed serialized document
func SerializationError(message string, cause error) *BaseError {
	return Wrap(SerializationCode, message, cause)
}

// ContainerError is returned by backends while building or using a container
type ContainerError struct {
	*BaseError
	Service string
}

// NewContainerError creates a backend error for the named service
func NewContainerError(service, message string, cause error) *ContainerError {
	return &ContainerError{
		BaseError: Wrap(ContainerCode, message, cause).WithContext("service", service),
		Service:   service,
	}
}
