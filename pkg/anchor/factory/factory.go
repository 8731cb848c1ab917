package factory

import (
	"go.uber.org/zap"

	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/store"
)

// Factory creates containers from a container definition through an Adapter
type Factory struct {
	adapter Adapter
	stores  store.Stores
	logger  *zap.Logger
}

// Option configures a Factory
type Option func(*Factory)

// WithStores sets the parameter stores injects can read from. The env store
// is added when stores does not provide one.
func WithStores(stores store.Stores) Option {
	return func(f *Factory) {
		f.stores = stores
	}
}

// WithLogger sets the logger used while containers are created
func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// New creates a factory for adapter
func New(adapter Adapter, opts ...Option) *Factory {
	f := &Factory{
		adapter: adapter,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if _, ok := f.stores.Get(store.EnvironmentStoreName); !ok {
		// With only fails on duplicate names, which the check above rules out
		f.stores, _ = f.stores.With(store.NewEnvironment())
	}
	return f
}

// Stores returns the parameter stores containers are created with
func (f *Factory) Stores() store.Stores { return f.stores }

// State resolves def for the active profiles without building a container
func (f *Factory) State(def definition.ContainerDefinition, profiles ...string) (*State, error) {
	view := definition.NewProfilesAwareContainerDefinition(def, profiles...)
	return NewState(view, f.stores, WithStateLogger(f.logger))
}

// CreateContainer resolves def for the active profiles and hands the result
// to the adapter. No profiles means {"default"}.
func (f *Factory) CreateContainer(def definition.ContainerDefinition, profiles ...string) (Container, error) {
	state, err := f.State(def, profiles...)
	if err != nil {
		f.logger.Debug("container definition rejected", zap.Strings("profiles", profiles), zap.Error(err))
		return nil, err
	}

	f.logger.Debug("creating container",
		zap.String("adapter", f.adapter.Name()),
		zap.Strings("profiles", state.ActiveProfiles().Names()),
		zap.Int("services", len(state.ConcreteServices())))

	return f.adapter.Build(state)
}
