package definition

import "github.com/toyz/anchor/pkg/anchor/types"

// ContainerDefinition is everything one analysis pass learned about a
// program: services, aliases, prepare methods, delegates and injects, in the
// order they were found. It performs no validation; see
// ProfilesAwareContainerDefinition for the resolved view.
type ContainerDefinition struct {
	services  []ServiceDefinition
	aliases   []AliasDefinition
	prepares  []ServicePrepareDefinition
	delegates []ServiceDelegateDefinition
	injects   []InjectDefinition
}

// ServiceDefinitions returns every service definition
func (c ContainerDefinition) ServiceDefinitions() []ServiceDefinition {
	return copyList(c.services)
}

// AliasDefinitions returns every alias definition
func (c ContainerDefinition) AliasDefinitions() []AliasDefinition {
	return copyList(c.aliases)
}

// ServicePrepareDefinitions returns every prepare definition
func (c ContainerDefinition) ServicePrepareDefinitions() []ServicePrepareDefinition {
	return copyList(c.prepares)
}

// ServiceDelegateDefinitions returns every delegate definition
func (c ContainerDefinition) ServiceDelegateDefinitions() []ServiceDelegateDefinition {
	return copyList(c.delegates)
}

// InjectDefinitions returns every inject definition
func (c ContainerDefinition) InjectDefinitions() []InjectDefinition {
	return copyList(c.injects)
}

// ServiceDefinition returns the first service registered for t in any profile
func (c ContainerDefinition) ServiceDefinition(t types.Type) (ServiceDefinition, bool) {
	for _, service := range c.services {
		if service.Type().Equal(t) {
			return service, true
		}
	}
	return ServiceDefinition{}, false
}

// IsEmpty reports whether the definition holds nothing
func (c ContainerDefinition) IsEmpty() bool {
	return len(c.services) == 0 && len(c.aliases) == 0 && len(c.prepares) == 0 &&
		len(c.delegates) == 0 && len(c.injects) == 0
}

// Merge returns a definition holding c followed by others, preserving order
func (c ContainerDefinition) Merge(others ...ContainerDefinition) ContainerDefinition {
	builder := NewContainerDefinitionBuilder().From(c)
	for _, other := range others {
		builder = builder.From(other)
	}
	return builder.Build()
}

// ContainerDefinitionBuilder accumulates definitions. Every With method
// returns a new builder and leaves the receiver untouched.
type ContainerDefinitionBuilder struct {
	def ContainerDefinition
}

// NewContainerDefinitionBuilder starts an empty container definition
func NewContainerDefinitionBuilder() *ContainerDefinitionBuilder {
	return &ContainerDefinitionBuilder{}
}

func (b *ContainerDefinitionBuilder) clone() *ContainerDefinitionBuilder {
	return &ContainerDefinitionBuilder{def: ContainerDefinition{
		services:  copyList(b.def.services),
		aliases:   copyList(b.def.aliases),
		prepares:  copyList(b.def.prepares),
		delegates: copyList(b.def.delegates),
		injects:   copyList(b.def.injects),
	}}
}

// WithServiceDefinition appends service definitions
func (b *ContainerDefinitionBuilder) WithServiceDefinition(services ...ServiceDefinition) *ContainerDefinitionBuilder {
	next := b.clone()
	next.def.services = append(next.def.services, services...)
	return next
}

// WithAliasDefinition appends alias definitions
func (b *ContainerDefinitionBuilder) WithAliasDefinition(aliases ...AliasDefinition) *ContainerDefinitionBuilder {
	next := b.clone()
	next.def.aliases = append(next.def.aliases, aliases...)
	return next
}

// WithServicePrepareDefinition appends prepare definitions
func (b *ContainerDefinitionBuilder) WithServicePrepareDefinition(prepares ...ServicePrepareDefinition) *ContainerDefinitionBuilder {
	next := b.clone()
	next.def.prepares = append(next.def.prepares, prepares...)
	return next
}

// WithServiceDelegateDefinition appends delegate definitions
func (b *ContainerDefinitionBuilder) WithServiceDelegateDefinition(delegates ...ServiceDelegateDefinition) *ContainerDefinitionBuilder {
	next := b.clone()
	next.def.delegates = append(next.def.delegates, delegates...)
	return next
}

// WithInjectDefinition appends inject definitions
func (b *ContainerDefinitionBuilder) WithInjectDefinition(injects ...InjectDefinition) *ContainerDefinitionBuilder {
	next := b.clone()
	next.def.injects = append(next.def.injects, injects...)
	return next
}

// From appends every definition held by def
func (b *ContainerDefinitionBuilder) From(def ContainerDefinition) *ContainerDefinitionBuilder {
	return b.WithServiceDefinition(def.services...).
		WithAliasDefinition(def.aliases...).
		WithServicePrepareDefinition(def.prepares...).
		WithServiceDelegateDefinition(def.delegates...).
		WithInjectDefinition(def.injects...)
}

// Build returns the accumulated definition
func (b *ContainerDefinitionBuilder) Build() ContainerDefinition {
	return b.clone().def
}

func copyList[T any](list []T) []T {
	if len(list) == 0 {
		return nil
	}
	return append([]T(nil), list...)
}
