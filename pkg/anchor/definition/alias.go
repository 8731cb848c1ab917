package definition

import (
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// AliasDefinition binds an abstract service to a concrete service that can
// stand in for it
type AliasDefinition struct {
	abstract types.Type
	concrete types.Type
}

// AbstractService returns the aliased abstract type
func (a AliasDefinition) AbstractService() types.Type { return a.abstract }

// ConcreteService returns the type that satisfies the abstract service
func (a AliasDefinition) ConcreteService() types.Type { return a.concrete }

// String returns "abstract => concrete"
func (a AliasDefinition) String() string {
	return a.abstract.String() + " => " + a.concrete.String()
}

// AliasDefinitionBuilder builds an AliasDefinition
type AliasDefinitionBuilder struct {
	abstract types.Type
	concrete types.Type
}

// NewAliasDefinitionBuilder starts an alias for the given abstract type
func NewAliasDefinitionBuilder(abstract types.Type) *AliasDefinitionBuilder {
	return &AliasDefinitionBuilder{abstract: abstract}
}

// WithConcrete sets the concrete side of the alias
func (b *AliasDefinitionBuilder) WithConcrete(concrete types.Type) *AliasDefinitionBuilder {
	next := *b
	next.concrete = concrete
	return &next
}

// Build validates the builder state and returns the definition. Whether both
// sides are registered services is checked against a container definition,
// not here.
func (b *AliasDefinitionBuilder) Build() (AliasDefinition, error) {
	if !b.abstract.IsObject() {
		return AliasDefinition{}, errors.NewInvalidDefinitionError("AliasDefinition", "abstract", "an abstract object type MUST be provided")
	}
	if !b.concrete.IsObject() {
		return AliasDefinition{}, errors.NewInvalidDefinitionError("AliasDefinition", "concrete", "a concrete object type MUST be provided")
	}
	return AliasDefinition{abstract: b.abstract, concrete: b.concrete}, nil
}
