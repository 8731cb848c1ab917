package factory

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/store"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// State is everything a backend needs to build a container for one set of
// active profiles. Services are keyed by their canonical type string.
type State struct {
	view     definition.ProfilesAwareContainerDefinition
	stores   store.Stores
	resolver *definition.AliasResolver
	logger   *zap.Logger

	services  []definition.ServiceDefinition
	byID      map[string]definition.ServiceDefinition
	names     map[string]string
	aliases   map[string]string
	aliasErrs map[string]error
	delegates map[string]definition.ServiceDelegateDefinition
	prepares  map[string][]definition.ServicePrepareDefinition

	// owner -> methods that produce another service
	delegateMethods map[string]map[string]bool

	// class -> method -> parameter
	methodInjects map[string]map[string]map[string]ParameterValue
	// class -> property
	propertyInjects map[string]map[string]ParameterValue
}

// StateOption configures NewState
type StateOption func(*State)

// WithStateLogger sets the logger used while the state is built
func WithStateLogger(logger *zap.Logger) StateOption {
	return func(s *State) {
		s.logger = logger
	}
}

// NewState resolves view into backend state. Alias structure errors, service
// references that cannot be resolved and unknown parameter stores fail here;
// store values and collections are resolved later by the backend.
func NewState(view definition.ProfilesAwareContainerDefinition, stores store.Stores, opts ...StateOption) (*State, error) {
	s := &State{
		view:            view,
		stores:          stores,
		logger:          zap.NewNop(),
		byID:            make(map[string]definition.ServiceDefinition),
		names:           make(map[string]string),
		aliases:         make(map[string]string),
		aliasErrs:       make(map[string]error),
		delegates:       make(map[string]definition.ServiceDelegateDefinition),
		delegateMethods: make(map[string]map[string]bool),
		prepares:        make(map[string][]definition.ServicePrepareDefinition),
		methodInjects:   make(map[string]map[string]map[string]ParameterValue),
		propertyInjects: make(map[string]map[string]ParameterValue),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.addServices()
	if err := s.addAliases(); err != nil {
		return nil, err
	}
	s.addDelegates()
	s.addPrepares()
	if err := s.addInjects(); err != nil {
		return nil, err
	}
	return s, nil
}

// addServices registers the active services. When several profile variants
// of one type are active the first declared wins.
func (s *State) addServices() {
	for _, service := range s.view.ServiceDefinitions() {
		id := service.Type().String()
		if previous, ok := s.byID[id]; ok {
			s.logger.Debug("service variant skipped",
				zap.String("service", id),
				zap.Strings("kept", previous.Profiles().Names()),
				zap.Strings("skipped", service.Profiles().Names()))
			continue
		}
		s.services = append(s.services, service)
		s.byID[id] = service
		if service.Name() != "" {
			s.names[service.Name()] = id
		}
	}
	s.logger.Debug("services registered",
		zap.Strings("profiles", s.view.ActiveProfiles().Names()),
		zap.Int("count", len(s.services)))
}

func (s *State) addAliases() error {
	resolver, err := s.view.AliasResolver()
	if err != nil {
		return err
	}
	s.resolver = resolver

	for _, service := range s.services {
		if !service.IsAbstract() {
			continue
		}
		abstract := service.Type().String()
		concrete, err := resolver.Resolve(service.Type())
		if err != nil {
			// only fatal once something needs the abstract service
			s.aliasErrs[abstract] = err
			s.logger.Debug("alias unresolved", zap.String("alias", abstract), zap.Error(err))
			continue
		}
		s.aliases[abstract] = concrete.String()
		s.logger.Debug("alias bound", zap.String("alias", abstract), zap.String("service", concrete.String()))
	}
	return nil
}

func (s *State) addDelegates() {
	for _, delegate := range s.view.ServiceDelegateDefinitions() {
		id := delegate.Service().String()
		if previous, ok := s.delegates[id]; ok {
			s.logger.Debug("delegate replaced",
				zap.String("service", id),
				zap.String("previous", previous.String()),
				zap.String("delegate", delegate.String()))
		}
		s.delegates[id] = delegate
	}

	for _, delegate := range s.delegates {
		if delegate.IsFunction() {
			continue
		}
		owner := delegate.DelegateType().String()
		if s.delegateMethods[owner] == nil {
			s.delegateMethods[owner] = make(map[string]bool)
		}
		s.delegateMethods[owner][delegate.DelegateMethod()] = true
	}
}

func (s *State) addPrepares() {
	for _, prepare := range s.view.ServicePrepareDefinitions() {
		id := prepare.Service().String()
		if _, active := s.byID[id]; !active {
			continue
		}
		s.prepares[id] = append(s.prepares[id], prepare)
	}
}

func (s *State) addInjects() error {
	for _, inject := range s.view.InjectDefinitions() {
		value, err := s.parameterValue(inject)
		if err != nil {
			return err
		}

		target := inject.Target()
		class := target.Class().String()
		if target.IsProperty() {
			if s.propertyInjects[class] == nil {
				s.propertyInjects[class] = make(map[string]ParameterValue)
			}
			s.warnOverride(target, s.propertyInjects[class][target.PropertyName()])
			s.propertyInjects[class][target.PropertyName()] = value
			continue
		}

		if s.methodInjects[class] == nil {
			s.methodInjects[class] = make(map[string]map[string]ParameterValue)
		}
		if s.methodInjects[class][target.MethodName()] == nil {
			s.methodInjects[class][target.MethodName()] = make(map[string]ParameterValue)
		}
		s.warnOverride(target, s.methodInjects[class][target.MethodName()][target.ParameterName()])
		s.methodInjects[class][target.MethodName()][target.ParameterName()] = value
	}
	return nil
}

// warnOverride logs when a later inject replaces an earlier one for the same
// target; the last one registered wins
func (s *State) warnOverride(target definition.InjectTarget, previous ParameterValue) {
	if previous == nil {
		return
	}
	s.logger.Debug("inject replaced",
		zap.String("target", target.String()),
		zap.String("previous", previous.String()))
}

func (s *State) parameterValue(inject definition.InjectDefinition) (ParameterValue, error) {
	value := inject.Value()
	target := inject.Target()

	switch value.Kind() {
	case definition.ServiceReferenceValue:
		id, err := s.Lookup(value.ServiceID())
		if err != nil {
			notFound := errors.NewServiceNotFoundError(value.ServiceID(), target.String())
			notFound.WithCause(causeOf(err))
			return nil, notFound
		}
		return serviceValue{requested: value.ServiceID(), id: id}, nil

	case definition.ServiceCollectionValue:
		shape := value.Shape()
		if shape != ListShape && shape != MapShape {
			return nil, errors.NewInvalidDefinitionError("InjectDefinition", "shape",
				fmt.Sprintf("the collection shape %q for %s is not supported", shape, target.String()))
		}
		return &collectionValue{state: s, element: value.Element(), consumer: target.Class(), shape: shape}, nil

	case definition.StoreKeyValue:
		parameterStore, ok := s.stores.Get(inject.StoreName())
		if !ok {
			return nil, errors.NewParameterStoreNotFoundError(inject.StoreName(), target.String())
		}
		s.logger.Debug("store value deferred",
			zap.String("store", inject.StoreName()),
			zap.String("target", target.String()))
		return storeValue{store: parameterStore, valueType: inject.ValueType(), key: value.Key(), target: target.String()}, nil

	default:
		return literalValue{value: value.Literal()}, nil
	}
}

// causeOf unwraps the plain not-found error Lookup produces so the cause
// chain only carries the interesting part, such as an ambiguous alias
func causeOf(err error) error {
	if notFound, ok := err.(*errors.ServiceNotFoundError); ok && notFound.Cause == nil {
		return nil
	}
	return err
}

// Lookup returns the service id to build for a service name, a type with an
// active delegate, a concrete type, or an abstract type with a single alias
// resolution
func (s *State) Lookup(id string) (string, error) {
	if typeID, ok := s.names[id]; ok {
		id = typeID
	}
	if _, ok := s.delegates[id]; ok {
		return id, nil
	}
	if service, ok := s.byID[id]; ok {
		if service.IsConcrete() {
			return id, nil
		}
		if concrete, ok := s.aliases[id]; ok {
			return concrete, nil
		}
		if err, ok := s.aliasErrs[id]; ok {
			return "", err
		}
	}

	t, err := types.Parse(id)
	if err != nil || !t.IsObject() {
		return "", errors.NewServiceNotFoundError(id, "")
	}
	concrete, err := s.resolver.Resolve(t)
	if err != nil {
		return "", err
	}
	return concrete.String(), nil
}

// ActiveProfiles returns the profiles the state was built for
func (s *State) ActiveProfiles() definition.Profiles { return s.view.ActiveProfiles() }

// View returns the profile-filtered definition the state was built from
func (s *State) View() definition.ProfilesAwareContainerDefinition { return s.view }

// Services returns the active service definitions, concrete and abstract
func (s *State) Services() []definition.ServiceDefinition {
	return append([]definition.ServiceDefinition(nil), s.services...)
}

// ConcreteServices returns the active services a backend must register
func (s *State) ConcreteServices() []definition.ServiceDefinition {
	var result []definition.ServiceDefinition
	for _, service := range s.services {
		if service.IsConcrete() {
			result = append(result, service)
		}
	}
	return result
}

// Service returns the active service registered under the type id
func (s *State) Service(id string) (definition.ServiceDefinition, bool) {
	service, ok := s.byID[id]
	return service, ok
}

// Names returns the explicit service names mapped to type ids
func (s *State) Names() map[string]string {
	return copyMap(s.names)
}

// Aliases returns each resolvable abstract type id mapped to its concrete id
func (s *State) Aliases() map[string]string {
	return copyMap(s.aliases)
}

// AliasError returns why an active abstract service has no single resolution
func (s *State) AliasError(abstract string) error {
	return s.aliasErrs[abstract]
}

// Delegate returns the active delegate producing the service id
func (s *State) Delegate(id string) (definition.ServiceDelegateDefinition, bool) {
	delegate, ok := s.delegates[id]
	return delegate, ok
}

// Prepares returns the prepare methods of the service id in declaration order
func (s *State) Prepares(id string) []definition.ServicePrepareDefinition {
	return append([]definition.ServicePrepareDefinition(nil), s.prepares[id]...)
}

// MethodInjects returns the injected parameters of class::method
func (s *State) MethodInjects(class, method string) map[string]ParameterValue {
	return copyMap(s.methodInjects[class][method])
}

// InjectedMethods returns the methods of class that receive injects and are
// called while the class is built. Constructors and delegate methods are
// called on demand instead.
func (s *State) InjectedMethods(class string) []string {
	var methods []string
	for method := range s.methodInjects[class] {
		if method == definition.ConstructorMethod || s.delegateMethods[class][method] {
			continue
		}
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

// PropertyInjects returns the injected properties of class
func (s *State) PropertyInjects(class string) map[string]ParameterValue {
	return copyMap(s.propertyInjects[class])
}

// Stores returns the parameter stores the state was built with
func (s *State) Stores() store.Stores { return s.stores }

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
