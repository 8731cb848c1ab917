package container

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/factory"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Container is the reference container. Every service is a singleton keyed
// by its concrete type id; Make bypasses the cache.
type Container struct {
	id      string
	state   *factory.State
	catalog *Catalog
	logger  *zap.Logger
	names   map[string]string

	// held for the whole of Get, Make and Invoke; nested resolution goes
	// through a scope instead
	mu        sync.Mutex
	instances map[string]any
}

func newContainer(state *factory.State, catalog *Catalog, logger *zap.Logger) *Container {
	id := uuid.NewString()
	return &Container{
		id:        id,
		state:     state,
		catalog:   catalog,
		logger:    logger.With(zap.String("container", id)),
		names:     state.Names(),
		instances: make(map[string]any),
	}
}

// ID returns the unique id of this container
func (c *Container) ID() string { return c.id }

// Get returns the shared instance of a service, by type or name
func (c *Container) Get(id string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(id, nil)
}

// Has reports whether id resolves to a service the container can build
func (c *Container) Has(id string) bool {
	concrete, err := c.resolveID(id)
	if err != nil {
		return false
	}
	if _, ok := c.state.Delegate(concrete); ok {
		return true
	}
	_, ok := c.catalog.constructor(concrete)
	return ok
}

// Make builds a new instance of a service. params override constructor
// parameters by name.
func (c *Container) Make(id string, params map[string]any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.make(id, params, nil)
}

// Invoke calls callable. Arguments are taken from params keyed by their
// position ("0", "1", ...) and otherwise resolved from the container by type.
// A trailing non-nil error result is returned as the error.
func (c *Container) Invoke(callable any, params map[string]any) ([]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invoke(callable, params, nil)
}

// resolveID maps a name, type or alias to the id the service is built under
func (c *Container) resolveID(id string) (string, error) {
	if typeID, ok := c.names[id]; ok {
		id = typeID
	}
	if _, ok := c.state.Delegate(id); ok {
		return id, nil
	}
	return c.state.Lookup(id)
}

func (c *Container) get(id string, stack []string) (any, error) {
	concrete, err := c.resolveID(id)
	if err != nil {
		return nil, err
	}
	if instance, ok := c.instances[concrete]; ok {
		return instance, nil
	}

	instance, err := c.build(concrete, nil, stack)
	if err != nil {
		return nil, err
	}
	c.instances[concrete] = instance
	c.logger.Debug("service resolved", zap.String("service", concrete), zap.String("requested", id))
	return instance, nil
}

func (c *Container) make(id string, params map[string]any, stack []string) (any, error) {
	concrete, err := c.resolveID(id)
	if err != nil {
		return nil, err
	}
	return c.build(concrete, params, stack)
}

func (c *Container) invoke(callable any, params map[string]any, stack []string) ([]any, error) {
	fn := reflect.ValueOf(callable)
	if fn.Kind() != reflect.Func {
		return nil, errors.NewContainerError("", fmt.Sprintf("cannot invoke %T", callable), nil)
	}

	names := make([]string, fn.Type().NumIn())
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	scope := &scope{container: c, stack: stack}
	args, err := c.arguments("callable", fn.Type(), names, nil, params, scope)
	if err != nil {
		return nil, err
	}

	results := fn.Call(args)
	out := make([]any, len(results))
	for i, result := range results {
		out[i] = result.Interface()
	}
	if err := callError(results); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Container) build(id string, params map[string]any, stack []string) (any, error) {
	for i, building := range stack {
		if building == id {
			cycle := append(append([]string(nil), stack[i:]...), id)
			return nil, errors.NewContainerError(id,
				"circular dependency: "+strings.Join(cycle, " -> "), nil)
		}
	}
	scope := &scope{container: c, stack: append(stack[:len(stack):len(stack)], id)}

	var (
		instance any
		err      error
	)
	if delegate, ok := c.state.Delegate(id); ok {
		instance, err = c.delegate(delegate, params, scope)
	} else {
		instance, err = c.construct(id, params, scope)
	}
	if err != nil {
		return nil, err
	}

	if err := c.injectProperties(id, instance, scope); err != nil {
		return nil, err
	}
	if err := c.injectMethods(id, instance, scope); err != nil {
		return nil, err
	}
	if err := c.prepare(id, instance, scope); err != nil {
		return nil, err
	}
	return instance, nil
}

func (c *Container) construct(id string, params map[string]any, scope *scope) (any, error) {
	constructor, ok := c.catalog.constructor(id)
	if !ok {
		return nil, errors.NewContainerError(id, "no constructor registered for "+id, nil)
	}
	owner := id + "::" + definition.ConstructorMethod
	injects := c.state.MethodInjects(id, definition.ConstructorMethod)
	args, err := c.arguments(owner, constructor.fn.Type(), constructor.params, injects, params, scope)
	if err != nil {
		return nil, err
	}
	return instanceOf(id, owner, constructor.fn.Call(args))
}

func (c *Container) delegate(delegate definition.ServiceDelegateDefinition, params map[string]any, scope *scope) (any, error) {
	id := delegate.Service().String()

	if delegate.IsFunction() {
		fn, ok := c.catalog.delegateFunction(delegate.DelegateMethod())
		if !ok {
			return nil, errors.NewContainerError(id, "delegate function "+delegate.DelegateMethod()+" is not registered", nil)
		}
		args, err := c.arguments(delegate.String(), fn.fn.Type(), fn.params, nil, params, scope)
		if err != nil {
			return nil, err
		}
		return instanceOf(id, delegate.String(), fn.fn.Call(args))
	}

	ownerID := delegate.DelegateType().String()
	owner, err := scope.Get(ownerID)
	if err != nil {
		return nil, errors.NewContainerError(id, "failed to resolve delegate "+delegate.String(), err)
	}
	method := reflect.ValueOf(owner).MethodByName(delegate.DelegateMethod())
	if !method.IsValid() {
		return nil, errors.NewContainerError(id, fmt.Sprintf("%T has no method %s", owner, delegate.DelegateMethod()), nil)
	}
	names, _ := c.catalog.methodParams(ownerID, delegate.DelegateMethod())
	injects := c.state.MethodInjects(ownerID, delegate.DelegateMethod())
	args, err := c.arguments(delegate.String(), method.Type(), names, injects, params, scope)
	if err != nil {
		return nil, err
	}
	return instanceOf(id, delegate.String(), method.Call(args))
}

func (c *Container) injectProperties(id string, instance any, scope *scope) error {
	injects := c.state.PropertyInjects(id)
	if len(injects) == 0 {
		return nil
	}

	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return errors.NewContainerError(id, fmt.Sprintf("properties can only be injected into a struct pointer, got %T", instance), nil)
	}

	names := make([]string, 0, len(injects))
	for name := range injects {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := v.Elem().FieldByName(name)
		if !field.IsValid() || !field.CanSet() {
			return errors.NewContainerError(id, fmt.Sprintf("%T has no exported field %s", instance, name), nil)
		}
		raw, err := injects[name].Resolve(scope)
		if err != nil {
			return err
		}
		value, err := convert(raw, field.Type())
		if err != nil {
			return errors.NewContainerError(id, "cannot inject "+id+"::"+name, err)
		}
		field.Set(value)
	}
	return nil
}

func (c *Container) injectMethods(id string, instance any, scope *scope) error {
	for _, method := range c.state.InjectedMethods(id) {
		if err := c.call(id, instance, method, c.state.MethodInjects(id, method), scope); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) prepare(id string, instance any, scope *scope) error {
	for _, prepare := range c.state.Prepares(id) {
		if err := c.call(id, instance, prepare.MethodName(), nil, scope); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) call(id string, instance any, method string, injects map[string]factory.ParameterValue, scope *scope) error {
	owner := id + "::" + method
	fn := reflect.ValueOf(instance).MethodByName(method)
	if !fn.IsValid() {
		return errors.NewContainerError(id, fmt.Sprintf("%T has no method %s", instance, method), nil)
	}
	names, _ := c.catalog.methodParams(id, method)
	args, err := c.arguments(owner, fn.Type(), names, injects, nil, scope)
	if err != nil {
		return err
	}
	if err := callError(fn.Call(args)); err != nil {
		return errors.NewContainerError(id, owner+" failed", err)
	}
	return nil
}

// arguments resolves the arguments of fn. A named parameter is taken from
// params, then from injects; anything else is resolved from the container
// by its Go type.
func (c *Container) arguments(owner string, fn reflect.Type, names []string, injects map[string]factory.ParameterValue, params map[string]any, scope *scope) ([]reflect.Value, error) {
	args := make([]reflect.Value, fn.NumIn())
	for i := range args {
		paramType := fn.In(i)
		name := "#" + strconv.Itoa(i)
		if i < len(names) {
			name = names[i]
		}

		raw, found, err := c.argument(name, paramType, injects, params, scope)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.NewContainerError(owner, fmt.Sprintf("no value for parameter %s of %s", name, owner), nil)
		}

		value, err := convert(raw, paramType)
		if err != nil {
			return nil, errors.NewContainerError(owner, fmt.Sprintf("cannot use value for parameter %s of %s", name, owner), err)
		}
		args[i] = value
	}
	return args, nil
}

func (c *Container) argument(name string, paramType reflect.Type, injects map[string]factory.ParameterValue, params map[string]any, scope *scope) (any, bool, error) {
	if raw, ok := params[name]; ok {
		return raw, true, nil
	}
	if value, ok := injects[name]; ok {
		raw, err := value.Resolve(scope)
		return raw, true, err
	}
	if key := typeKey(paramType); key != "" && c.Has(key) {
		raw, err := scope.Get(key)
		return raw, true, err
	}
	return nil, false, nil
}

func instanceOf(id, owner string, results []reflect.Value) (any, error) {
	if len(results) == 0 {
		return nil, errors.NewContainerError(id, owner+" returns nothing", nil)
	}
	if err := callError(results); err != nil {
		return nil, errors.NewContainerError(id, owner+" failed", err)
	}
	return results[0].Interface(), nil
}

// callError returns the trailing error result of a call, if any
func callError(results []reflect.Value) error {
	if len(results) == 0 {
		return nil
	}
	last := results[len(results)-1]
	if last.Type() != errorType || last.IsNil() {
		return nil
	}
	return last.Interface().(error)
}

// scope resolves nested dependencies while the container lock is held and
// carries the chain of services being built
type scope struct {
	container *Container
	stack     []string
}

func (s *scope) Get(id string) (any, error) { return s.container.get(id, s.stack) }
func (s *scope) Has(id string) bool { return s.container.Has(id) }

func (s *scope) Make(id string, params map[string]any) (any, error) {
	return s.container.make(id, params, s.stack)
}

func (s *scope) Invoke(callable any, params map[string]any) ([]any, error) {
	return s.container.invoke(callable, params, s.stack)
}
