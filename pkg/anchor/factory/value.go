package factory

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/store"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// Collection shapes a backend can receive collected services in
const (
	ListShape = definition.DefaultCollectionShape
	MapShape  = "map"
)

// ParameterValue is the resolved form of an inject. Service references are
// checked when the state is built; collections and store values are only
// evaluated when Resolve is called.
type ParameterValue interface {
	Resolve(c Container) (any, error)
	// Kind returns the kind of the inject the value came from
	Kind() definition.ValueKind
	String() string
}

type literalValue struct {
	value any
}

func (v literalValue) Resolve(Container) (any, error) { return v.value, nil }
func (v literalValue) Kind() definition.ValueKind { return definition.LiteralValue }
func (v literalValue) String() string { return fmt.Sprintf("%v", v.value) }

// serviceValue refers to a service already resolved to its concrete id
type serviceValue struct {
	requested string
	id        string
}

func (v serviceValue) Resolve(c Container) (any, error) { return c.Get(v.id) }
func (v serviceValue) Kind() definition.ValueKind { return definition.ServiceReferenceValue }
func (v serviceValue) String() string {
	if v.requested == v.id {
		return "service(" + v.id + ")"
	}
	return "service(" + v.requested + " => " + v.id + ")"
}

// ServiceID returns the concrete service id a service reference resolved to
func ServiceID(value ParameterValue) (string, bool) {
	ref, ok := value.(serviceValue)
	return ref.id, ok
}

type collectionValue struct {
	state    *State
	element  types.Type
	consumer types.Type
	shape    string

	once sync.Once
	ids  []string
}

func (v *collectionValue) members() []string {
	v.once.Do(func() {
		for _, service := range v.state.services {
			if !service.IsConcrete() || service.Type().Equal(v.consumer) {
				continue
			}
			if service.IsA(v.element) {
				v.ids = append(v.ids, service.Type().String())
			}
		}
	})
	return v.ids
}

func (v *collectionValue) Resolve(c Container) (any, error) {
	ids := v.members()
	if v.shape == MapShape {
		result := make(map[string]any, len(ids))
		for _, id := range ids {
			instance, err := c.Get(id)
			if err != nil {
				return nil, err
			}
			result[id] = instance
		}
		return result, nil
	}

	result := make([]any, 0, len(ids))
	for _, id := range ids {
		instance, err := c.Get(id)
		if err != nil {
			return nil, err
		}
		result = append(result, instance)
	}
	return result, nil
}

func (v *collectionValue) Kind() definition.ValueKind { return definition.ServiceCollectionValue }
func (v *collectionValue) String() string {
	return "collect(" + v.element.String() + ", " + v.shape + ")"
}

type storeValue struct {
	store     store.ParameterStore
	valueType types.Type
	key       string
	target    string
}

func (v storeValue) Resolve(Container) (any, error) {
	value, err := v.store.Fetch(v.valueType, v.key)
	if err != nil {
		var anchorErr errors.AnchorError
		if stderrors.As(err, &anchorErr) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ParameterStoreCode,
			fmt.Sprintf("parameter store %q failed to provide %q for %s", v.store.Name(), v.key, v.target), err)
	}
	return value, nil
}

func (v storeValue) Kind() definition.ValueKind { return definition.StoreKeyValue }
func (v storeValue) String() string { return v.store.Name() + "(" + v.key + ")" }
