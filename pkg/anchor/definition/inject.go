package definition

import (
	"fmt"

	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// ConstructorMethod is the method name an InjectTarget uses for the
// constructor of its class, whatever the Go function is called
const ConstructorMethod = "New"

// DefaultCollectionShape is the shape collected services are delivered in
const DefaultCollectionShape = "list"

// InjectTarget is the parameter of a method, or the property of a class, that
// receives an injected value
type InjectTarget struct {
	class     types.Type
	method    string
	parameter string
	property  string
}

// MethodTarget targets parameter of method on class
func MethodTarget(class types.Type, method, parameter string) InjectTarget {
	return InjectTarget{class: class, method: method, parameter: parameter}
}

// ConstructorTarget targets parameter of the class constructor
func ConstructorTarget(class types.Type, parameter string) InjectTarget {
	return MethodTarget(class, ConstructorMethod, parameter)
}

// PropertyTarget targets a property of class
func PropertyTarget(class types.Type, property string) InjectTarget {
	return InjectTarget{class: class, property: property}
}

// Class returns the type that owns the target
func (t InjectTarget) Class() types.Type { return t.class }

// MethodName returns the method name, or "" for a property target
func (t InjectTarget) MethodName() string { return t.method }

// ParameterName returns the parameter name, or "" for a property target
func (t InjectTarget) ParameterName() string { return t.parameter }

// PropertyName returns the property name, or "" for a method target
func (t InjectTarget) PropertyName() string { return t.property }

// IsProperty reports whether the target is a property
func (t InjectTarget) IsProperty() bool { return t.property != "" }

// IsConstructor reports whether the target is a constructor parameter
func (t InjectTarget) IsConstructor() bool { return t.method == ConstructorMethod }

// String returns "Class::method(param)" or "Class::property"
func (t InjectTarget) String() string {
	if t.IsProperty() {
		return t.class.String() + "::" + t.property
	}
	return fmt.Sprintf("%s::%s(%s)", t.class.String(), t.method, t.parameter)
}

// ValueKind says how an injected value is produced
type ValueKind int

const (
	LiteralValue ValueKind = iota
	ServiceReferenceValue
	ServiceCollectionValue
	StoreKeyValue
)

// String returns the name of the value kind
func (k ValueKind) String() string {
	switch k {
	case ServiceReferenceValue:
		return "service"
	case ServiceCollectionValue:
		return "collect"
	case StoreKeyValue:
		return "store"
	default:
		return "literal"
	}
}

// Value is what an inject provides: a literal, a reference to another service,
// every service of a type, or a key looked up in a parameter store
type Value struct {
	kind    ValueKind
	literal any
	ref     string
	element types.Type
	shape   string
	set     bool
}

// Literal returns a value that is passed through unchanged
func Literal(v any) Value {
	return Value{kind: LiteralValue, literal: v, set: true}
}

// ServiceReference returns a value resolved from the container by service
// name or type
func ServiceReference(id string) Value {
	return Value{kind: ServiceReferenceValue, ref: id, set: true}
}

// ServiceCollection returns a value holding every active concrete service
// that is an element; an empty shape is the default list shape
func ServiceCollection(element types.Type, shape string) Value {
	if shape == "" {
		shape = DefaultCollectionShape
	}
	return Value{kind: ServiceCollectionValue, element: element, shape: shape, set: true}
}

// StoreKey returns a value fetched from a parameter store under key
func StoreKey(key string) Value {
	return Value{kind: StoreKeyValue, ref: key, set: true}
}

// Kind returns how the value is produced
func (v Value) Kind() ValueKind { return v.kind }

// Literal returns the literal payload
func (v Value) Literal() any { return v.literal }

// ServiceID returns the referenced service name or type
func (v Value) ServiceID() string {
	if v.kind != ServiceReferenceValue {
		return ""
	}
	return v.ref
}

// Key returns the parameter store key
func (v Value) Key() string {
	if v.kind != StoreKeyValue {
		return ""
	}
	return v.ref
}

// Element returns the collected element type
func (v Value) Element() types.Type { return v.element }

// Shape returns the collection shape
func (v Value) Shape() string { return v.shape }

// IsSet reports whether a value was provided at all
func (v Value) IsSet() bool { return v.set }

// String describes the value for diagnostics
func (v Value) String() string {
	switch v.kind {
	case ServiceReferenceValue:
		return "service(" + v.ref + ")"
	case ServiceCollectionValue:
		return "collect(" + v.element.String() + ", " + v.shape + ")"
	case StoreKeyValue:
		return "store(" + v.ref + ")"
	default:
		return fmt.Sprintf("%v", v.literal)
	}
}

// InjectDefinition declares the value a method parameter or property receives
type InjectDefinition struct {
	target    InjectTarget
	valueType types.Type
	value     Value
	profiles  Profiles
	store     string
}

// Target returns the injection target
func (d InjectDefinition) Target() InjectTarget { return d.target }

// Service returns the class that owns the target
func (d InjectDefinition) Service() types.Type { return d.target.class }

// ValueType returns the declared type of the injected value
func (d InjectDefinition) ValueType() types.Type { return d.valueType }

// Value returns the injected value
func (d InjectDefinition) Value() Value { return d.value }

// Profiles returns the profiles the inject is active in
func (d InjectDefinition) Profiles() Profiles { return d.profiles }

// StoreName returns the parameter store the value is fetched from, if any
func (d InjectDefinition) StoreName() string { return d.store }

// InjectDefinitionBuilder builds an InjectDefinition
type InjectDefinitionBuilder struct {
	class     types.Type
	method    string
	parameter string
	property  string
	valueType types.Type
	value     Value
	profiles  Profiles
	store     string
}

// NewInjectDefinitionBuilder starts an inject into a member of class
func NewInjectDefinitionBuilder(class types.Type) *InjectDefinitionBuilder {
	return &InjectDefinitionBuilder{class: class}
}

// WithMethod targets parameter of method, declared with paramType
func (b *InjectDefinitionBuilder) WithMethod(method string, paramType types.Type, parameter string) *InjectDefinitionBuilder {
	next := *b
	next.method = method
	next.parameter = parameter
	next.property = ""
	next.valueType = paramType
	return &next
}

// WithProperty targets property, declared with propertyType
func (b *InjectDefinitionBuilder) WithProperty(propertyType types.Type, property string) *InjectDefinitionBuilder {
	next := *b
	next.property = property
	next.method = ""
	next.parameter = ""
	next.valueType = propertyType
	return &next
}

// WithValue sets the injected value
func (b *InjectDefinitionBuilder) WithValue(value Value) *InjectDefinitionBuilder {
	next := *b
	next.value = value
	return &next
}

// WithStore names the parameter store the value key is fetched from
func (b *InjectDefinitionBuilder) WithStore(name string) *InjectDefinitionBuilder {
	next := *b
	next.store = name
	return &next
}

// WithProfiles replaces the profiles the inject is active in
func (b *InjectDefinitionBuilder) WithProfiles(profiles ...string) *InjectDefinitionBuilder {
	next := *b
	next.profiles = NewProfiles(profiles...)
	return &next
}

// Build validates the builder state and returns the definition. A literal
// string value combined with a store name is treated as the store key.
func (b *InjectDefinitionBuilder) Build() (InjectDefinition, error) {
	const kind = "InjectDefinition"

	if !b.class.IsObject() {
		return InjectDefinition{}, errors.NewInvalidDefinitionError(kind, "class", "a class object type MUST be provided")
	}
	if b.method == "" && b.property == "" {
		return InjectDefinition{}, errors.NewInvalidDefinitionError(kind, "method", "a method to inject into MUST be provided")
	}
	if b.method != "" && b.parameter == "" {
		return InjectDefinition{}, errors.NewInvalidDefinitionError(kind, "parameter",
			fmt.Sprintf("a parameter of %s::%s to inject into MUST be provided", b.class.String(), b.method))
	}
	if !b.value.IsSet() {
		return InjectDefinition{}, errors.NewInvalidDefinitionError(kind, "value", "a value MUST be provided")
	}

	value := b.value
	if b.store != "" {
		if key, ok := value.literal.(string); ok && value.kind == LiteralValue {
			value = StoreKey(key)
		}
		if value.kind != StoreKeyValue {
			return InjectDefinition{}, errors.NewInvalidDefinitionError(kind, "value",
				fmt.Sprintf("a parameter store key MUST be provided when injecting from store %q", b.store))
		}
	}
	if value.kind == StoreKeyValue {
		if b.store == "" {
			return InjectDefinition{}, errors.NewInvalidDefinitionError(kind, "store", "a parameter store MUST be named for key "+value.ref)
		}
		if value.ref == "" {
			return InjectDefinition{}, errors.NewInvalidDefinitionError(kind, "value", "a parameter store key MUST be provided")
		}
	}
	if value.kind == ServiceReferenceValue && value.ref == "" {
		return InjectDefinition{}, errors.NewInvalidDefinitionError(kind, "value", "a service to inject MUST be provided")
	}
	if value.kind == ServiceCollectionValue && !value.element.IsObject() {
		return InjectDefinition{}, errors.NewInvalidDefinitionError(kind, "value",
			"the collected type "+value.element.String()+" MUST be an object type")
	}

	target := InjectTarget{class: b.class, method: b.method, parameter: b.parameter, property: b.property}
	return InjectDefinition{
		target:    target,
		valueType: b.valueType,
		value:     value,
		profiles:  b.profiles,
		store:     b.store,
	}, nil
}
