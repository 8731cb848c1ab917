package container

import (
	"fmt"
	"reflect"
)

// function is a Go func together with the names of its parameters, which
// reflection cannot recover
type function struct {
	fn     reflect.Value
	params []string
}

// Catalog holds the Go code behind a container definition: constructors
// keyed by service type, parameter names of injected methods, and delegate
// functions keyed by their qualified name. Generated code fills it in.
type Catalog struct {
	constructors map[string]function
	methods      map[string]map[string][]string
	functions    map[string]function
	errs         []error
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		constructors: make(map[string]function),
		methods:      make(map[string]map[string][]string),
		functions:    make(map[string]function),
	}
}

// Constructor registers fn as the constructor of the service type id.
// params names the parameters of fn in order.
func (c *Catalog) Constructor(typeID string, fn any, params ...string) *Catalog {
	if f, ok := c.function(typeID, fn, params); ok {
		c.constructors[typeID] = f
	}
	return c
}

// Method records the parameter names of a method of the service type id
func (c *Catalog) Method(typeID, method string, params ...string) *Catalog {
	if c.methods[typeID] == nil {
		c.methods[typeID] = make(map[string][]string)
	}
	c.methods[typeID][method] = params
	return c
}

// Function registers a package level delegate under its qualified name
func (c *Catalog) Function(name string, fn any, params ...string) *Catalog {
	if f, ok := c.function(name, fn, params); ok {
		c.functions[name] = f
	}
	return c
}

func (c *Catalog) function(name string, fn any, params []string) (function, bool) {
	value := reflect.ValueOf(fn)
	if value.Kind() != reflect.Func {
		c.errs = append(c.errs, fmt.Errorf("%s: expected a func, got %T", name, fn))
		return function{}, false
	}
	if value.Type().IsVariadic() {
		c.errs = append(c.errs, fmt.Errorf("%s: variadic funcs are not supported", name))
		return function{}, false
	}
	if value.Type().NumIn() != len(params) {
		c.errs = append(c.errs, fmt.Errorf("%s: %d parameter names given for a func with %d parameters",
			name, len(params), value.Type().NumIn()))
		return function{}, false
	}
	return function{fn: value, params: params}, true
}

// Err returns the registration errors collected so far
func (c *Catalog) Err() []error {
	return append([]error(nil), c.errs...)
}

func (c *Catalog) constructor(typeID string) (function, bool) {
	f, ok := c.constructors[typeID]
	return f, ok
}

func (c *Catalog) delegateFunction(name string) (function, bool) {
	f, ok := c.functions[name]
	return f, ok
}

func (c *Catalog) methodParams(typeID, method string) ([]string, bool) {
	params, ok := c.methods[typeID][method]
	return params, ok
}
