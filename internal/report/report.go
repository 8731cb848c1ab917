// Package report describes a container definition as resolved for a set of
// active profiles. The inspect command and the HTTP server both render it.
package report

import (
	"sort"

	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/factory"
)

// Report is the profile-resolved view of a definition
type Report struct {
	Profiles  []string   `json:"profiles"`
	Services  []Service  `json:"services"`
	Aliases   []Alias    `json:"aliases"`
	Delegates []Delegate `json:"delegates"`
	Prepares  []Prepare  `json:"prepares"`
	Injects   []Inject   `json:"injects"`
}

// Service is an active service
type Service struct {
	Type       string   `json:"type"`
	Name       string   `json:"name,omitempty"`
	Kind       string   `json:"kind"`
	Profiles   []string `json:"profiles"`
	Primary    bool     `json:"primary,omitempty"`
	Implements []string `json:"implements,omitempty"`
	Attribute  string   `json:"attribute,omitempty"`
}

// Alias is an active abstract service and the concrete service it resolves
// to. Error is set when it resolves to none or to several.
type Alias struct {
	Abstract   string   `json:"abstract"`
	Concrete   string   `json:"concrete,omitempty"`
	Candidates []string `json:"candidates"`
	Error      string   `json:"error,omitempty"`
}

// Delegate is the active delegate of a service
type Delegate struct {
	Service  string `json:"service"`
	Delegate string `json:"delegate"`
}

// Prepare is a method called after a service is built
type Prepare struct {
	Service string `json:"service"`
	Method  string `json:"method"`
}

// Inject is an active inject
type Inject struct {
	Target   string   `json:"target"`
	Type     string   `json:"type"`
	Kind     string   `json:"kind"`
	Value    string   `json:"value"`
	Store    string   `json:"store,omitempty"`
	Profiles []string `json:"profiles"`
}

// FromState describes the definition state was resolved from
func FromState(state *factory.State) *Report {
	view := state.View()
	r := &Report{
		Profiles:  state.ActiveProfiles().Names(),
		Services:  []Service{},
		Aliases:   []Alias{},
		Delegates: []Delegate{},
		Prepares:  []Prepare{},
		Injects:   []Inject{},
	}

	resolved := state.Aliases()
	for _, service := range state.Services() {
		r.Services = append(r.Services, serviceOf(service))
		if !service.IsAbstract() {
			continue
		}

		alias := Alias{Abstract: service.Type().String(), Candidates: []string{}}
		alias.Concrete = resolved[alias.Abstract]
		if err := state.AliasError(alias.Abstract); err != nil {
			alias.Error = err.Error()
		}
		r.Aliases = append(r.Aliases, alias)
	}
	if aliases, err := view.AliasDefinitions(); err == nil {
		candidates := make(map[string][]string)
		for _, alias := range aliases {
			abstract := alias.AbstractService().String()
			candidates[abstract] = append(candidates[abstract], alias.ConcreteService().String())
		}
		for i := range r.Aliases {
			if list, ok := candidates[r.Aliases[i].Abstract]; ok {
				sort.Strings(list)
				r.Aliases[i].Candidates = list
			}
		}
	}

	for _, service := range state.Services() {
		id := service.Type().String()
		if delegate, ok := state.Delegate(id); ok {
			r.Delegates = append(r.Delegates, Delegate{Service: id, Delegate: delegate.String()})
		}
		for _, prepare := range state.Prepares(id) {
			r.Prepares = append(r.Prepares, Prepare{Service: id, Method: prepare.MethodName()})
		}
	}
	for _, inject := range view.InjectDefinitions() {
		r.Injects = append(r.Injects, Inject{
			Target:   inject.Target().String(),
			Type:     inject.ValueType().String(),
			Kind:     inject.Value().Kind().String(),
			Value:    inject.Value().String(),
			Store:    inject.StoreName(),
			Profiles: inject.Profiles().Names(),
		})
	}

	sort.Slice(r.Services, func(i, j int) bool { return r.Services[i].Type < r.Services[j].Type })
	sort.Slice(r.Aliases, func(i, j int) bool { return r.Aliases[i].Abstract < r.Aliases[j].Abstract })
	sort.SliceStable(r.Delegates, func(i, j int) bool { return r.Delegates[i].Service < r.Delegates[j].Service })
	sort.SliceStable(r.Prepares, func(i, j int) bool { return r.Prepares[i].Service < r.Prepares[j].Service })
	return r
}

func serviceOf(service definition.ServiceDefinition) Service {
	s := Service{
		Type:     service.Type().String(),
		Name:     service.Name(),
		Kind:     service.Kind().String(),
		Profiles: service.Profiles().Names(),
		Primary:  service.IsPrimary(),
	}
	for _, t := range service.Implements() {
		s.Implements = append(s.Implements, t.String())
	}
	if !service.Attribute().IsZero() {
		s.Attribute = service.Attribute().Name
	}
	return s
}
