package definition

import (
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// ProfilesAwareContainerDefinition is a read-only view of a
// ContainerDefinition restricted to the active profiles. Nothing is cached;
// every accessor filters the underlying definition again.
type ProfilesAwareContainerDefinition struct {
	def    ContainerDefinition
	active Profiles
}

// NewProfilesAwareContainerDefinition creates a view of def for the active
// profiles; no profiles means {"default"}
func NewProfilesAwareContainerDefinition(def ContainerDefinition, active ...string) ProfilesAwareContainerDefinition {
	return ProfilesAwareContainerDefinition{def: def, active: NewProfiles(active...)}
}

// ActiveProfiles returns the profiles the view filters by
func (p ProfilesAwareContainerDefinition) ActiveProfiles() Profiles { return p.active }

// Definition returns the unfiltered definition
func (p ProfilesAwareContainerDefinition) Definition() ContainerDefinition { return p.def }

// ServiceDefinitions returns the services whose profiles intersect the active set
func (p ProfilesAwareContainerDefinition) ServiceDefinitions() []ServiceDefinition {
	var result []ServiceDefinition
	for _, service := range p.def.services {
		if service.Profiles().Intersects(p.active) {
			result = append(result, service)
		}
	}
	return result
}

// AliasDefinitions returns the aliases whose two sides are both active.
//
// Both sides must be registered services, in any profile, with the expected
// abstract and concrete flags; otherwise an InvalidAliasError is returned even
// when the alias would have been filtered out. An alias with a side excluded
// by profile is dropped without error.
func (p ProfilesAwareContainerDefinition) AliasDefinitions() ([]AliasDefinition, error) {
	active := p.ServiceDefinitions()

	var result []AliasDefinition
	for _, alias := range p.def.aliases {
		abstract, concrete := alias.AbstractService(), alias.ConcreteService()

		abstractDef, ok := p.def.ServiceDefinition(abstract)
		if !ok {
			return nil, errors.NewAliasNotRegisteredError(errors.AbstractSide, abstract.String(), concrete.String())
		}
		if !abstractDef.IsAbstract() {
			return nil, errors.NewAliasFlagMismatchError(errors.AbstractSide, abstract.String(), concrete.String())
		}

		concreteDef, ok := p.def.ServiceDefinition(concrete)
		if !ok {
			return nil, errors.NewAliasNotRegisteredError(errors.ConcreteSide, abstract.String(), concrete.String())
		}
		if !concreteDef.IsConcrete() {
			return nil, errors.NewAliasFlagMismatchError(errors.ConcreteSide, abstract.String(), concrete.String())
		}

		if containsService(active, abstract) && containsService(active, concrete) {
			result = append(result, alias)
		}
	}
	return result, nil
}

// ServicePrepareDefinitions returns every prepare definition. Prepare methods
// carry no profiles; they only run for services that are active.
func (p ProfilesAwareContainerDefinition) ServicePrepareDefinitions() []ServicePrepareDefinition {
	return p.def.ServicePrepareDefinitions()
}

// ServiceDelegateDefinitions returns the delegates whose profiles intersect the active set
func (p ProfilesAwareContainerDefinition) ServiceDelegateDefinitions() []ServiceDelegateDefinition {
	var result []ServiceDelegateDefinition
	for _, delegate := range p.def.delegates {
		if delegate.Profiles().Intersects(p.active) {
			result = append(result, delegate)
		}
	}
	return result
}

// InjectDefinitions returns the injects whose profiles intersect the active set
func (p ProfilesAwareContainerDefinition) InjectDefinitions() []InjectDefinition {
	var result []InjectDefinition
	for _, inject := range p.def.injects {
		if inject.Profiles().Intersects(p.active) {
			result = append(result, inject)
		}
	}
	return result
}

// AliasResolver returns a resolver over the active aliases and services
func (p ProfilesAwareContainerDefinition) AliasResolver() (*AliasResolver, error) {
	aliases, err := p.AliasDefinitions()
	if err != nil {
		return nil, err
	}
	return NewAliasResolver(aliases, p.ServiceDefinitions()), nil
}

func containsService(services []ServiceDefinition, t types.Type) bool {
	for _, service := range services {
		if service.Type().Equal(t) {
			return true
		}
	}
	return false
}
