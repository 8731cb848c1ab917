package definition

import (
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// ServiceDelegateDefinition names a factory function the container calls
// instead of the service constructor.
//
// A method delegate has an object delegate type and a method name. A package
// level function has a Mixed delegate type and its fully qualified function
// name as the method, e.g. "github.com/acme/app/logging.NewLogger".
type ServiceDelegateDefinition struct {
	service        types.Type
	delegateType   types.Type
	delegateMethod string
	profiles       Profiles
	attribute      Attribute
}

// Service returns the type the delegate produces
func (d ServiceDelegateDefinition) Service() types.Type { return d.service }

// DelegateType returns the type that owns the delegate method
func (d ServiceDelegateDefinition) DelegateType() types.Type { return d.delegateType }

// DelegateMethod returns the method or function name
func (d ServiceDelegateDefinition) DelegateMethod() string { return d.delegateMethod }

// IsFunction reports whether the delegate is a package level function
func (d ServiceDelegateDefinition) IsFunction() bool { return d.delegateType.IsMixed() }

// Profiles returns the profiles the delegate is active in
func (d ServiceDelegateDefinition) Profiles() Profiles { return d.profiles }

// Attribute returns the annotation the delegate was declared with
func (d ServiceDelegateDefinition) Attribute() Attribute { return d.attribute }

// String returns "DelegateType::Method" or the function name
func (d ServiceDelegateDefinition) String() string {
	if d.IsFunction() {
		return d.delegateMethod
	}
	return d.delegateType.String() + "::" + d.delegateMethod
}

// ServiceDelegateDefinitionBuilder builds a ServiceDelegateDefinition
type ServiceDelegateDefinitionBuilder struct {
	service        types.Type
	delegateType   types.Type
	delegateMethod string
	profiles       Profiles
	attribute      Attribute
}

// NewServiceDelegateDefinitionBuilder starts a delegate producing service
func NewServiceDelegateDefinitionBuilder(service types.Type) *ServiceDelegateDefinitionBuilder {
	return &ServiceDelegateDefinitionBuilder{service: service}
}

// WithMethod sets the delegate to a method of delegateType
func (b *ServiceDelegateDefinitionBuilder) WithMethod(delegateType types.Type, method string) *ServiceDelegateDefinitionBuilder {
	next := *b
	next.delegateType = delegateType
	next.delegateMethod = method
	return &next
}

// WithFunction sets the delegate to a package level function
func (b *ServiceDelegateDefinitionBuilder) WithFunction(qualifiedName string) *ServiceDelegateDefinitionBuilder {
	next := *b
	next.delegateType = types.Mixed()
	next.delegateMethod = qualifiedName
	return &next
}

// WithProfiles replaces the profiles the delegate is active in
func (b *ServiceDelegateDefinitionBuilder) WithProfiles(profiles ...string) *ServiceDelegateDefinitionBuilder {
	next := *b
	next.profiles = NewProfiles(profiles...)
	return &next
}

// WithAttribute records the annotation the delegate was declared with
func (b *ServiceDelegateDefinitionBuilder) WithAttribute(attribute Attribute) *ServiceDelegateDefinitionBuilder {
	next := *b
	next.attribute = attribute
	return &next
}

// Build validates the builder state and returns the definition. A service
// type that is not a single object type is rejected with an
// InvalidServiceDelegateError.
func (b *ServiceDelegateDefinitionBuilder) Build() (ServiceDelegateDefinition, error) {
	if b.delegateMethod == "" {
		return ServiceDelegateDefinition{}, errors.NewInvalidDefinitionError("ServiceDelegateDefinition", "method", "a delegate method MUST be provided")
	}
	if !b.delegateType.IsObject() && !b.delegateType.IsMixed() {
		return ServiceDelegateDefinition{}, errors.NewInvalidDefinitionError("ServiceDelegateDefinition", "delegateType",
			"the delegate type "+b.delegateType.String()+" MUST be an object type")
	}

	owner := b.delegateType.String()
	if b.delegateType.IsMixed() {
		owner = "func"
	}
	if shape, invalid := delegateReturnShape(b.service); invalid {
		return ServiceDelegateDefinition{}, errors.NewInvalidServiceDelegateError(owner, b.delegateMethod, shape, b.service.String())
	}

	return ServiceDelegateDefinition{
		service:        b.service.Inner(),
		delegateType:   b.delegateType,
		delegateMethod: b.delegateMethod,
		profiles:       b.profiles,
		attribute:      b.attribute,
	}, nil
}

func delegateReturnShape(t types.Type) (errors.DelegateReturnShape, bool) {
	switch t.Kind() {
	case types.KindObject:
		return "", false
	case types.KindScalar:
		return errors.ScalarReturn, true
	case types.KindUnion:
		return errors.UnionReturn, true
	case types.KindIntersect:
		return errors.IntersectReturn, true
	case types.KindNullable:
		return delegateReturnShape(t.Inner())
	default:
		return errors.MixedReturn, true
	}
}
