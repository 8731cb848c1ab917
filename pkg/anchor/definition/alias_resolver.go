package definition

import (
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// AliasResolver picks the concrete service that stands in for an abstract one
type AliasResolver struct {
	aliases  []AliasDefinition
	services []ServiceDefinition
}

// NewAliasResolver creates a resolver over already filtered aliases and the
// services they may point at
func NewAliasResolver(aliases []AliasDefinition, services []ServiceDefinition) *AliasResolver {
	return &AliasResolver{aliases: copyList(aliases), services: copyList(services)}
}

// Candidates returns the distinct concrete types aliased to abstract, in alias order
func (r *AliasResolver) Candidates(abstract types.Type) []types.Type {
	var candidates []types.Type
	for _, alias := range r.aliases {
		if alias.AbstractService().Equal(abstract) && !containsType(candidates, alias.ConcreteService()) {
			candidates = append(candidates, alias.ConcreteService())
		}
	}
	return candidates
}

// Resolve returns the single concrete type for abstract. One alias resolves
// to itself; several resolve to the only primary among them. Zero or several
// primaries return an AmbiguousAliasError, no alias at all a
// ServiceNotFoundError.
func (r *AliasResolver) Resolve(abstract types.Type) (types.Type, error) {
	candidates := r.Candidates(abstract)
	switch len(candidates) {
	case 0:
		return types.Type{}, errors.NewServiceNotFoundError(abstract.String(), "")
	case 1:
		return candidates[0], nil
	}

	var primaries []types.Type
	for _, candidate := range candidates {
		if r.isPrimary(candidate) {
			primaries = append(primaries, candidate)
		}
	}
	if len(primaries) == 1 {
		return primaries[0], nil
	}

	names := make([]string, len(candidates))
	for i, candidate := range candidates {
		names[i] = candidate.String()
	}
	return types.Type{}, errors.NewAmbiguousAliasError(abstract.String(), names)
}

func (r *AliasResolver) isPrimary(t types.Type) bool {
	for _, service := range r.services {
		if service.Type().Equal(t) && service.IsPrimary() {
			return true
		}
	}
	return false
}
