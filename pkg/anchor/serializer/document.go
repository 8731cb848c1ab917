package serializer

import "encoding/xml"

// The XML document layout. Types are written in their canonical string form.

type containerDocument struct {
	XMLName   xml.Name          `xml:"containerDefinition"`
	Version   string            `xml:"version,attr"`
	Services  []serviceElement  `xml:"serviceDefinitions>serviceDefinition"`
	Aliases   []aliasElement    `xml:"aliasDefinitions>aliasDefinition"`
	Prepares  []prepareElement  `xml:"servicePrepareDefinitions>servicePrepareDefinition"`
	Delegates []delegateElement `xml:"serviceDelegateDefinitions>serviceDelegateDefinition"`
	Injects   []injectElement   `xml:"injectDefinitions>injectDefinition"`
}

type attributeElement struct {
	Name string `xml:"name,attr"`
	Data string `xml:",chardata"` // base64
}

type serviceElement struct {
	Type       string            `xml:"type,attr"`
	Name       string            `xml:"name,attr,omitempty"`
	Kind       string            `xml:"kind,attr"`
	Primary    bool              `xml:"isPrimary,attr"`
	Profiles   []string          `xml:"profiles>profile"`
	Implements []string          `xml:"implements>type"`
	Attribute  *attributeElement `xml:"attribute,omitempty"`
}

type aliasElement struct {
	Abstract string `xml:"abstractService,attr"`
	Concrete string `xml:"concreteService,attr"`
}

type prepareElement struct {
	Service   string            `xml:"service,attr"`
	Method    string            `xml:"method,attr"`
	Attribute *attributeElement `xml:"attribute,omitempty"`
}

type delegateElement struct {
	Service        string            `xml:"service,attr"`
	DelegateType   string            `xml:"delegateType,attr,omitempty"`
	DelegateMethod string            `xml:"delegateMethod,attr"`
	Profiles       []string          `xml:"profiles>profile"`
	Attribute      *attributeElement `xml:"attribute,omitempty"`
}

type injectElement struct {
	Class     string       `xml:"class,attr"`
	Method    string       `xml:"method,attr,omitempty"`
	Parameter string       `xml:"parameter,attr,omitempty"`
	Property  string       `xml:"property,attr,omitempty"`
	ValueType string       `xml:"type,attr"`
	Store     string       `xml:"store,attr,omitempty"`
	Profiles  []string     `xml:"profiles>profile"`
	Value     valueElement `xml:"value"`
}

type valueElement struct {
	Kind    string `xml:"kind,attr"`
	Ref     string `xml:"ref,attr,omitempty"`
	Element string `xml:"element,attr,omitempty"`
	Shape   string `xml:"shape,attr,omitempty"`
	Literal string `xml:",chardata"` // YAML encoded
}
