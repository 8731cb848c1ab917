// Package container is the reference backend: it builds a running container
// from factory state and a Catalog of Go constructors.
package container

import (
	"go.uber.org/zap"

	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/factory"
)

// AdapterName is the name the reference backend registers under
const AdapterName = "reference"

// Adapter builds reference containers
type Adapter struct {
	catalog *Catalog
	logger  *zap.Logger
	eager   bool
}

// Option configures an Adapter
type Option func(*Adapter)

// WithLogger sets the logger containers log resolution to
func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithEager builds every concrete service while the container is built, so
// any resolution failure surfaces from Build
func WithEager() Option {
	return func(a *Adapter) {
		a.eager = true
	}
}

// NewAdapter creates an adapter over catalog
func NewAdapter(catalog *Catalog, opts ...Option) *Adapter {
	a := &Adapter{catalog: catalog, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns AdapterName
func (a *Adapter) Name() string { return AdapterName }

// Build checks that every active concrete service has a constructor or a
// delegate and returns the container
func (a *Adapter) Build(state *factory.State) (factory.Container, error) {
	errs := errors.NewMultipleErrors()
	for _, err := range a.catalog.Err() {
		errs.Add(errors.NewContainerError("", "invalid catalog entry", err))
	}

	for _, service := range state.ConcreteServices() {
		id := service.Type().String()
		if delegate, ok := state.Delegate(id); ok {
			if delegate.IsFunction() {
				if _, ok := a.catalog.delegateFunction(delegate.DelegateMethod()); !ok {
					errs.Add(errors.NewContainerError(id, "delegate function "+delegate.DelegateMethod()+" is not registered", nil))
				}
			}
			continue
		}
		if _, ok := a.catalog.constructor(id); !ok {
			errs.Add(errors.NewContainerError(id, "no constructor registered for "+id, nil))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	c := newContainer(state, a.catalog, a.logger)
	if a.eager {
		for _, service := range state.ConcreteServices() {
			if _, err := c.Get(service.Type().String()); err != nil {
				return nil, err
			}
		}
	}

	a.logger.Debug("container built",
		zap.String("container", c.ID()),
		zap.Strings("profiles", state.ActiveProfiles().Names()),
		zap.Int("services", len(state.ConcreteServices())))
	return c, nil
}
