// Package store provides the parameter stores an inject can read its value
// from at container build time.
package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/golobby/cast"

	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// ParameterStore provides values for injects declared with a store name
type ParameterStore interface {
	// Name returns the non-empty name injects refer to the store by
	Name() string
	// Fetch returns the value stored under key as type t
	Fetch(t types.Type, key string) (any, error)
}

// Stores is an immutable set of parameter stores keyed by name
type Stores struct {
	byName map[string]ParameterStore
}

// NewStores creates a set from stores. Empty and duplicate names are rejected.
func NewStores(stores ...ParameterStore) (Stores, error) {
	return Stores{}.With(stores...)
}

// MustStores is like NewStores but panics on error
func MustStores(stores ...ParameterStore) Stores {
	s, err := NewStores(stores...)
	if err != nil {
		panic(err)
	}
	return s
}

// With returns a new set holding the receiver's stores plus stores
func (s Stores) With(stores ...ParameterStore) (Stores, error) {
	next := make(map[string]ParameterStore, len(s.byName)+len(stores))
	for name, existing := range s.byName {
		next[name] = existing
	}
	for _, store := range stores {
		name := strings.TrimSpace(store.Name())
		if name == "" {
			return Stores{}, errors.New(errors.ParameterStoreCode, "a parameter store MUST have a name").
				WithContext("store", fmt.Sprintf("%T", store))
		}
		if _, exists := next[name]; exists {
			return Stores{}, errors.Newf(errors.ParameterStoreCode, "parameter store %q is registered twice", name).
				WithContext("store", name)
		}
		next[name] = store
	}
	return Stores{byName: next}, nil
}

// Get returns the store registered under name
func (s Stores) Get(name string) (ParameterStore, bool) {
	store, ok := s.byName[name]
	return store, ok
}

// Names returns the registered store names, sorted
func (s Stores) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered stores
func (s Stores) Len() int { return len(s.byName) }

var scalarTypes = map[types.ScalarKind]reflect.Type{
	types.String: reflect.TypeOf(""),
	types.Int:    reflect.TypeOf(0),
	types.Float:  reflect.TypeOf(float64(0)),
	types.Bool:   reflect.TypeOf(false),
}

// Coerce converts raw to the scalar type t on behalf of store. A Mixed type
// returns raw unchanged; object and composite types cannot be coerced.
func Coerce(store, key string, t types.Type, raw string) (any, error) {
	if t.Inner().IsMixed() {
		return raw, nil
	}
	kind, ok := t.ScalarKind()
	if !ok {
		return nil, errors.NewIncompatibleParameterTypeError(store, key, t.String(), nil)
	}
	value, err := cast.FromType(raw, scalarTypes[kind])
	if err != nil {
		return nil, errors.NewIncompatibleParameterTypeError(store, key, t.String(), err)
	}
	return value, nil
}
