package definition

import (
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// ServiceKind tells whether a service can be instantiated directly
type ServiceKind int

const (
	Concrete ServiceKind = iota
	Abstract
)

// String returns "concrete" or "abstract"
func (k ServiceKind) String() string {
	if k == Abstract {
		return "abstract"
	}
	return "concrete"
}

// ServiceDefinition declares that a type is a service
type ServiceDefinition struct {
	typ        types.Type
	name       string
	profiles   Profiles
	primary    bool
	kind       ServiceKind
	attribute  Attribute
	implements []types.Type
}

// Type returns the service type
func (s ServiceDefinition) Type() types.Type { return s.typ }

// Name returns the explicit service name, or "" when none was given
func (s ServiceDefinition) Name() string { return s.name }

// ID returns the name the service is registered under: its explicit name
// when set, otherwise its type
func (s ServiceDefinition) ID() string {
	if s.name != "" {
		return s.name
	}
	return s.typ.String()
}

// Profiles returns the profiles the service is active in
func (s ServiceDefinition) Profiles() Profiles { return s.profiles }

// IsPrimary reports whether the service wins alias tie-breaks
func (s ServiceDefinition) IsPrimary() bool { return s.primary }

// Kind returns whether the service is concrete or abstract
func (s ServiceDefinition) Kind() ServiceKind { return s.kind }

// IsConcrete reports whether the service can be instantiated
func (s ServiceDefinition) IsConcrete() bool { return s.kind == Concrete }

// IsAbstract reports whether the service must be aliased to a concrete one
func (s ServiceDefinition) IsAbstract() bool { return s.kind == Abstract }

// Attribute returns the annotation the service was declared with
func (s ServiceDefinition) Attribute() Attribute { return s.attribute }

// Implements returns the declared capability set
func (s ServiceDefinition) Implements() []types.Type {
	if len(s.implements) == 0 {
		return nil
	}
	return append([]types.Type(nil), s.implements...)
}

// IsA reports whether the service type is t or declares t in its capability set
func (s ServiceDefinition) IsA(t types.Type) bool {
	if s.typ.Equal(t) {
		return true
	}
	for _, capability := range s.implements {
		if capability.Equal(t) {
			return true
		}
	}
	return false
}

// ServiceDefinitionBuilder builds a ServiceDefinition. Every With method
// returns a new builder and leaves the receiver untouched.
type ServiceDefinitionBuilder struct {
	typ        types.Type
	kind       ServiceKind
	name       string
	profiles   Profiles
	primary    bool
	attribute  Attribute
	implements []types.Type
}

// ConcreteService starts a builder for a service that is instantiated directly
func ConcreteService(t types.Type) *ServiceDefinitionBuilder {
	return &ServiceDefinitionBuilder{typ: t, kind: Concrete}
}

// AbstractService starts a builder for an interface-like service
func AbstractService(t types.Type) *ServiceDefinitionBuilder {
	return &ServiceDefinitionBuilder{typ: t, kind: Abstract}
}

func (b *ServiceDefinitionBuilder) clone() *ServiceDefinitionBuilder {
	next := *b
	next.implements = append([]types.Type(nil), b.implements...)
	return &next
}

// WithName sets an explicit service name
func (b *ServiceDefinitionBuilder) WithName(name string) *ServiceDefinitionBuilder {
	next := b.clone()
	next.name = name
	return next
}

// WithProfiles replaces the profiles the service is active in
func (b *ServiceDefinitionBuilder) WithProfiles(profiles ...string) *ServiceDefinitionBuilder {
	next := b.clone()
	next.profiles = NewProfiles(profiles...)
	return next
}

// WithPrimary marks the service as the preferred alias target
func (b *ServiceDefinitionBuilder) WithPrimary(primary bool) *ServiceDefinitionBuilder {
	next := b.clone()
	next.primary = primary
	return next
}

// WithAttribute records the annotation the service was declared with
func (b *ServiceDefinitionBuilder) WithAttribute(attribute Attribute) *ServiceDefinitionBuilder {
	next := b.clone()
	next.attribute = attribute
	return next
}

// WithImplements adds types to the capability set
func (b *ServiceDefinitionBuilder) WithImplements(capabilities ...types.Type) *ServiceDefinitionBuilder {
	next := b.clone()
	for _, capability := range capabilities {
		if capability.Equal(next.typ) || containsType(next.implements, capability) {
			continue
		}
		next.implements = append(next.implements, capability)
	}
	return next
}

// Build validates the builder state and returns the definition
func (b *ServiceDefinitionBuilder) Build() (ServiceDefinition, error) {
	if b.typ.IsMixed() {
		return ServiceDefinition{}, errors.NewInvalidDefinitionError("ServiceDefinition", "type", "a service type MUST be provided")
	}
	if !b.typ.IsObject() {
		return ServiceDefinition{}, errors.NewInvalidDefinitionError("ServiceDefinition", "type",
			"the service type "+b.typ.String()+" MUST be an object type")
	}
	for _, capability := range b.implements {
		if !capability.IsObject() {
			return ServiceDefinition{}, errors.NewInvalidDefinitionError("ServiceDefinition", "implements",
				"the capability "+capability.String()+" of "+b.typ.String()+" MUST be an object type")
		}
	}

	return ServiceDefinition{
		typ:        b.typ,
		name:       b.name,
		profiles:   b.profiles,
		primary:    b.primary,
		kind:       b.kind,
		attribute:  b.attribute,
		implements: nilIfEmpty(b.implements),
	}, nil
}

func containsType(list []types.Type, t types.Type) bool {
	for _, candidate := range list {
		if candidate.Equal(t) {
			return true
		}
	}
	return false
}

func nilIfEmpty(list []types.Type) []types.Type {
	if len(list) == 0 {
		return nil
	}
	return append([]types.Type(nil), list...)
}
