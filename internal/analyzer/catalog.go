package analyzer

import "sort"

// Constructor is the Go function that builds a concrete service. An empty
// Func means the service is built as a pointer to its zero value.
type Constructor struct {
	Service string // service type id
	Package string
	Func    string
	Params  []string
}

// Method is a method the container calls with named arguments
type Method struct {
	Service string
	Method  string
	Params  []string
}

// Function is a package level delegate
type Function struct {
	Name    string // qualified name, "<import path>.<Func>"
	Package string
	Func    string
	Params  []string
}

// Catalog lists the Go code the definition refers to, which generated code
// registers with the reference container
type Catalog struct {
	Constructors []Constructor
	Methods      []Method
	Functions    []Function
}

// Packages returns the import paths the catalog refers to, sorted
func (c Catalog) Packages() []string {
	seen := make(map[string]bool)
	for _, constructor := range c.Constructors {
		seen[constructor.Package] = true
	}
	for _, function := range c.Functions {
		seen[function.Package] = true
	}

	packages := make([]string, 0, len(seen))
	for pkg := range seen {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)
	return packages
}

// IsEmpty reports whether the catalog registers nothing
func (c Catalog) IsEmpty() bool {
	return len(c.Constructors) == 0 && len(c.Methods) == 0 && len(c.Functions) == 0
}

type catalogBuilder struct {
	constructors map[string]Constructor
	methods      map[string]Method
	functions    map[string]Function
}

func newCatalogBuilder() *catalogBuilder {
	return &catalogBuilder{
		constructors: make(map[string]Constructor),
		methods:      make(map[string]Method),
		functions:    make(map[string]Function),
	}
}

func (b *catalogBuilder) constructor(c Constructor) {
	b.constructors[c.Service] = c
}

func (b *catalogBuilder) method(m Method) {
	b.methods[m.Service+"::"+m.Method] = m
}

func (b *catalogBuilder) function(f Function) {
	b.functions[f.Name] = f
}

func (b *catalogBuilder) build() Catalog {
	var catalog Catalog
	for _, key := range sortedKeys(b.constructors) {
		catalog.Constructors = append(catalog.Constructors, b.constructors[key])
	}
	for _, key := range sortedKeys(b.methods) {
		catalog.Methods = append(catalog.Methods, b.methods[key])
	}
	for _, key := range sortedKeys(b.functions) {
		catalog.Functions = append(catalog.Functions, b.functions[key])
	}
	return catalog
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
