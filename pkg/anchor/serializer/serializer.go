// Package serializer persists a ContainerDefinition as a versioned XML
// document so a compiled definition can be cached between runs.
package serializer

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"

	"github.com/toyz/anchor/pkg/anchor"
	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// Serializer converts container definitions to and from XML. A document
// written by one version is rejected by every other version.
type Serializer struct {
	version string
}

// Option configures a Serializer
type Option func(*Serializer)

// WithVersion overrides the version written to and expected in documents
func WithVersion(version string) Option {
	return func(s *Serializer) {
		s.version = version
	}
}

// New creates a serializer for the running tool version
func New(opts ...Option) *Serializer {
	s := &Serializer{version: anchor.Version}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Version returns the version the serializer writes and accepts
func (s *Serializer) Version() string { return s.version }

// Serialize writes def as an XML document. Literal inject values that cannot
// be represented return an UnserializableValueError.
func (s *Serializer) Serialize(def definition.ContainerDefinition) ([]byte, error) {
	doc := containerDocument{Version: s.version}

	for _, service := range def.ServiceDefinitions() {
		doc.Services = append(doc.Services, serviceElement{
			Type:       service.Type().String(),
			Name:       service.Name(),
			Kind:       service.Kind().String(),
			Primary:    service.IsPrimary(),
			Profiles:   service.Profiles().Names(),
			Implements: typeStrings(service.Implements()),
			Attribute:  encodeAttribute(service.Attribute()),
		})
	}

	for _, alias := range def.AliasDefinitions() {
		doc.Aliases = append(doc.Aliases, aliasElement{
			Abstract: alias.AbstractService().String(),
			Concrete: alias.ConcreteService().String(),
		})
	}

	for _, prepare := range def.ServicePrepareDefinitions() {
		doc.Prepares = append(doc.Prepares, prepareElement{
			Service:   prepare.Service().String(),
			Method:    prepare.MethodName(),
			Attribute: encodeAttribute(prepare.Attribute()),
		})
	}

	for _, delegate := range def.ServiceDelegateDefinitions() {
		element := delegateElement{
			Service:        delegate.Service().String(),
			DelegateMethod: delegate.DelegateMethod(),
			Profiles:       delegate.Profiles().Names(),
			Attribute:      encodeAttribute(delegate.Attribute()),
		}
		if !delegate.IsFunction() {
			element.DelegateType = delegate.DelegateType().String()
		}
		doc.Delegates = append(doc.Delegates, element)
	}

	for _, inject := range def.InjectDefinitions() {
		element, err := encodeInject(inject)
		if err != nil {
			return nil, err
		}
		doc.Injects = append(doc.Injects, element)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return nil, errors.SerializationError("failed to encode container definition", err)
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Deserialize reads a document written by Serialize. Every definition is
// rebuilt through its builder, so malformed documents fail the same way
// malformed annotations do.
func (s *Serializer) Deserialize(data []byte) (definition.ContainerDefinition, error) {
	var doc containerDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return definition.ContainerDefinition{}, errors.SerializationError("failed to decode container definition", err)
	}
	if doc.Version != s.version {
		return definition.ContainerDefinition{}, errors.NewMismatchedSerializerVersionsError(s.version, doc.Version)
	}

	builder := definition.NewContainerDefinitionBuilder()

	for _, element := range doc.Services {
		service, err := decodeService(element)
		if err != nil {
			return definition.ContainerDefinition{}, err
		}
		builder = builder.WithServiceDefinition(service)
	}

	for _, element := range doc.Aliases {
		abstract, err := parseType(element.Abstract)
		if err != nil {
			return definition.ContainerDefinition{}, err
		}
		concrete, err := parseType(element.Concrete)
		if err != nil {
			return definition.ContainerDefinition{}, err
		}
		alias, err := definition.NewAliasDefinitionBuilder(abstract).WithConcrete(concrete).Build()
		if err != nil {
			return definition.ContainerDefinition{}, err
		}
		builder = builder.WithAliasDefinition(alias)
	}

	for _, element := range doc.Prepares {
		service, err := parseType(element.Service)
		if err != nil {
			return definition.ContainerDefinition{}, err
		}
		attribute, err := decodeAttribute(element.Attribute)
		if err != nil {
			return definition.ContainerDefinition{}, err
		}
		prepare, err := definition.NewServicePrepareDefinitionBuilder(service).
			WithMethod(element.Method).
			WithAttribute(attribute).
			Build()
		if err != nil {
			return definition.ContainerDefinition{}, err
		}
		builder = builder.WithServicePrepareDefinition(prepare)
	}

	for _, element := range doc.Delegates {
		delegate, err := decodeDelegate(element)
		if err != nil {
			return definition.ContainerDefinition{}, err
		}
		builder = builder.WithServiceDelegateDefinition(delegate)
	}

	for _, element := range doc.Injects {
		inject, err := decodeInject(element)
		if err != nil {
			return definition.ContainerDefinition{}, err
		}
		builder = builder.WithInjectDefinition(inject)
	}

	return builder.Build(), nil
}

func decodeService(element serviceElement) (definition.ServiceDefinition, error) {
	typ, err := parseType(element.Type)
	if err != nil {
		return definition.ServiceDefinition{}, err
	}
	attribute, err := decodeAttribute(element.Attribute)
	if err != nil {
		return definition.ServiceDefinition{}, err
	}

	var builder *definition.ServiceDefinitionBuilder
	switch element.Kind {
	case definition.Concrete.String():
		builder = definition.ConcreteService(typ)
	case definition.Abstract.String():
		builder = definition.AbstractService(typ)
	default:
		return definition.ServiceDefinition{}, errors.SerializationError(
			fmt.Sprintf("service %s has unknown kind %q", element.Type, element.Kind), nil)
	}

	for _, capability := range element.Implements {
		t, err := parseType(capability)
		if err != nil {
			return definition.ServiceDefinition{}, err
		}
		builder = builder.WithImplements(t)
	}

	return builder.
		WithName(element.Name).
		WithPrimary(element.Primary).
		WithProfiles(element.Profiles...).
		WithAttribute(attribute).
		Build()
}

func decodeDelegate(element delegateElement) (definition.ServiceDelegateDefinition, error) {
	service, err := parseType(element.Service)
	if err != nil {
		return definition.ServiceDelegateDefinition{}, err
	}
	attribute, err := decodeAttribute(element.Attribute)
	if err != nil {
		return definition.ServiceDelegateDefinition{}, err
	}

	builder := definition.NewServiceDelegateDefinitionBuilder(service).
		WithProfiles(element.Profiles...).
		WithAttribute(attribute)
	if element.DelegateType == "" {
		builder = builder.WithFunction(element.DelegateMethod)
	} else {
		delegateType, err := parseType(element.DelegateType)
		if err != nil {
			return definition.ServiceDelegateDefinition{}, err
		}
		builder = builder.WithMethod(delegateType, element.DelegateMethod)
	}
	return builder.Build()
}

func encodeInject(inject definition.InjectDefinition) (injectElement, error) {
	target := inject.Target()
	element := injectElement{
		Class:     target.Class().String(),
		Method:    target.MethodName(),
		Parameter: target.ParameterName(),
		Property:  target.PropertyName(),
		ValueType: inject.ValueType().String(),
		Store:     inject.StoreName(),
		Profiles:  inject.Profiles().Names(),
	}

	value := inject.Value()
	element.Value.Kind = value.Kind().String()
	switch value.Kind() {
	case definition.ServiceReferenceValue:
		element.Value.Ref = value.ServiceID()
	case definition.StoreKeyValue:
		element.Value.Ref = value.Key()
	case definition.ServiceCollectionValue:
		element.Value.Element = value.Element().String()
		element.Value.Shape = value.Shape()
	default:
		if !serializable(value.Literal()) {
			return injectElement{}, errors.NewUnserializableValueError(target.String(), fmt.Sprintf("%T", value.Literal()))
		}
		text, err := encodeLiteral(value.Literal())
		if err != nil {
			return injectElement{}, errors.NewUnserializableValueError(target.String(), fmt.Sprintf("%T", value.Literal()))
		}
		element.Value.Literal = text
	}
	return element, nil
}

func decodeInject(element injectElement) (definition.InjectDefinition, error) {
	class, err := parseType(element.Class)
	if err != nil {
		return definition.InjectDefinition{}, err
	}
	valueType, err := parseType(element.ValueType)
	if err != nil {
		return definition.InjectDefinition{}, err
	}

	var value definition.Value
	switch element.Value.Kind {
	case definition.ServiceReferenceValue.String():
		value = definition.ServiceReference(element.Value.Ref)
	case definition.StoreKeyValue.String():
		value = definition.StoreKey(element.Value.Ref)
	case definition.ServiceCollectionValue.String():
		elementType, err := parseType(element.Value.Element)
		if err != nil {
			return definition.InjectDefinition{}, err
		}
		value = definition.ServiceCollection(elementType, element.Value.Shape)
	case definition.LiteralValue.String():
		literal, err := decodeLiteral(element.Value.Literal)
		if err != nil {
			return definition.InjectDefinition{}, errors.SerializationError(
				fmt.Sprintf("inject into %s::%s%s has a malformed literal", element.Class, element.Method, element.Property), err)
		}
		value = definition.Literal(literal)
	default:
		return definition.InjectDefinition{}, errors.SerializationError(
			fmt.Sprintf("inject into %s has unknown value kind %q", element.Class, element.Value.Kind), nil)
	}

	builder := definition.NewInjectDefinitionBuilder(class).
		WithValue(value).
		WithStore(element.Store).
		WithProfiles(element.Profiles...)
	if element.Property != "" {
		builder = builder.WithProperty(valueType, element.Property)
	} else {
		builder = builder.WithMethod(element.Method, valueType, element.Parameter)
	}
	return builder.Build()
}

func encodeAttribute(attribute definition.Attribute) *attributeElement {
	if attribute.IsZero() {
		return nil
	}
	return &attributeElement{
		Name: attribute.Name,
		Data: base64.StdEncoding.EncodeToString(attribute.Data),
	}
}

func decodeAttribute(element *attributeElement) (definition.Attribute, error) {
	if element == nil {
		return definition.Attribute{}, nil
	}
	data, err := base64.StdEncoding.DecodeString(element.Data)
	if err != nil {
		return definition.Attribute{}, errors.SerializationError("attribute "+element.Name+" has a malformed payload", err)
	}
	return definition.NewAttribute(element.Name, data), nil
}

func parseType(text string) (types.Type, error) {
	t, err := types.Parse(text)
	if err != nil {
		return types.Type{}, errors.SerializationError("malformed type in container definition", err)
	}
	return t, nil
}

func typeStrings(list []types.Type) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.String()
	}
	return out
}
