package definition

import (
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// ServicePrepareDefinition names a method the container calls on a service
// right after it is created
type ServicePrepareDefinition struct {
	service   types.Type
	method    string
	attribute Attribute
}

// Service returns the prepared service type
func (p ServicePrepareDefinition) Service() types.Type { return p.service }

// MethodName returns the method to invoke
func (p ServicePrepareDefinition) MethodName() string { return p.method }

// Attribute returns the annotation the prepare method was declared with
func (p ServicePrepareDefinition) Attribute() Attribute { return p.attribute }

// String returns "Type::Method"
func (p ServicePrepareDefinition) String() string {
	return p.service.String() + "::" + p.method
}

// ServicePrepareDefinitionBuilder builds a ServicePrepareDefinition
type ServicePrepareDefinitionBuilder struct {
	service   types.Type
	method    string
	attribute Attribute
}

// NewServicePrepareDefinitionBuilder starts a prepare definition for service
func NewServicePrepareDefinitionBuilder(service types.Type) *ServicePrepareDefinitionBuilder {
	return &ServicePrepareDefinitionBuilder{service: service}
}

// WithMethod sets the method to invoke
func (b *ServicePrepareDefinitionBuilder) WithMethod(method string) *ServicePrepareDefinitionBuilder {
	next := *b
	next.method = method
	return &next
}

// WithAttribute records the annotation the prepare method was declared with
func (b *ServicePrepareDefinitionBuilder) WithAttribute(attribute Attribute) *ServicePrepareDefinitionBuilder {
	next := *b
	next.attribute = attribute
	return &next
}

// Build validates the builder state and returns the definition
func (b *ServicePrepareDefinitionBuilder) Build() (ServicePrepareDefinition, error) {
	if !b.service.IsObject() {
		return ServicePrepareDefinition{}, errors.NewInvalidDefinitionError("ServicePrepareDefinition", "service", "a service object type MUST be provided")
	}
	if b.method == "" {
		return ServicePrepareDefinition{}, errors.NewInvalidDefinitionError("ServicePrepareDefinition", "method", "a method to invoke MUST be provided")
	}
	return ServicePrepareDefinition{service: b.service, method: b.method, attribute: b.attribute}, nil
}
