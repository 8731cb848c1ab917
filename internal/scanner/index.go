package scanner

import (
	"sort"
	"strings"

	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// TypeDecl is a named struct or interface type found while scanning
type TypeDecl struct {
	ID        string // canonical id, "<import path>.<Name>"
	Package   string
	Name      string
	Interface bool
	Struct    bool
	Methods   []string              // declared interface methods
	Embedded  []string              // ids of embedded interfaces
	Fields    map[string]types.Type // exported struct fields
	Location  errors.SourceLocation
}

// Param is a named function parameter
type Param struct {
	Name string
	Type types.Type
}

// FuncDecl is a top-level function or a method
type FuncDecl struct {
	Package  string
	Name     string
	Receiver string // type id of the receiver, "" for functions
	Params   []Param
	Results  []types.Type
	Location errors.SourceLocation
}

// ID returns "<import path>.<Name>" for functions and "<type id>::<Name>"
// for methods
func (f *FuncDecl) ID() string {
	if f.Receiver != "" {
		return f.Receiver + "::" + f.Name
	}
	return f.Package + "." + f.Name
}

// IsMethod reports whether the declaration has a receiver
func (f *FuncDecl) IsMethod() bool { return f.Receiver != "" }

// ParamNames returns the parameter names in declaration order
func (f *FuncDecl) ParamNames() []string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
	}
	return names
}

// Param returns the named parameter
func (f *FuncDecl) Param(name string) (Param, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// ReturnType returns the first result, the produced value of a
// constructor or delegate. A function without results returns Mixed.
func (f *FuncDecl) ReturnType() types.Type {
	if len(f.Results) == 0 {
		return types.Mixed()
	}
	return f.Results[0]
}

// TypeIndex records the declarations of every scanned package
type TypeIndex struct {
	types   map[string]*TypeDecl
	funcs   map[string]*FuncDecl
	methods map[string][]string // receiver id -> method names
}

// NewTypeIndex creates an empty index
func NewTypeIndex() *TypeIndex {
	return &TypeIndex{
		types:   make(map[string]*TypeDecl),
		funcs:   make(map[string]*FuncDecl),
		methods: make(map[string][]string),
	}
}

// AddType records a type declaration
func (x *TypeIndex) AddType(decl *TypeDecl) {
	x.types[decl.ID] = decl
}

// AddFunc records a function or method declaration
func (x *TypeIndex) AddFunc(decl *FuncDecl) {
	x.funcs[decl.ID()] = decl
	if decl.IsMethod() {
		x.methods[decl.Receiver] = append(x.methods[decl.Receiver], decl.Name)
	}
}

// Type returns the declaration of the type id
func (x *TypeIndex) Type(id string) (*TypeDecl, bool) {
	decl, ok := x.types[id]
	return decl, ok
}

// Func returns the function "<import path>.<Name>"
func (x *TypeIndex) Func(id string) (*FuncDecl, bool) {
	decl, ok := x.funcs[id]
	return decl, ok && !decl.IsMethod()
}

// Method returns the method name declared on the type id
func (x *TypeIndex) Method(typeID, name string) (*FuncDecl, bool) {
	decl, ok := x.funcs[typeID+"::"+name]
	return decl, ok
}

// Types returns every indexed type sorted by id
func (x *TypeIndex) Types() []*TypeDecl {
	list := make([]*TypeDecl, 0, len(x.types))
	for _, decl := range x.types {
		list = append(list, decl)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Constructor returns New<Name> from the type's package when it produces
// the type or a pointer to it
func (x *TypeIndex) Constructor(typeID string) (*FuncDecl, bool) {
	decl, ok := x.types[typeID]
	if !ok {
		return nil, false
	}

	fn, ok := x.Func(decl.Package + ".New" + decl.Name)
	if !ok {
		return nil, false
	}
	result := fn.ReturnType()
	if !result.IsObject() || result.Name() != typeID {
		return nil, false
	}
	return fn, true
}

// MethodSet returns the sorted method names of the type id. Interfaces
// include the methods of embedded interfaces.
func (x *TypeIndex) MethodSet(typeID string) []string {
	set := make(map[string]bool)
	x.collectMethods(typeID, set, make(map[string]bool))

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (x *TypeIndex) collectMethods(typeID string, set, visited map[string]bool) {
	if visited[typeID] {
		return
	}
	visited[typeID] = true

	decl, ok := x.types[typeID]
	if !ok {
		return
	}
	if !decl.Interface {
		for _, name := range x.methods[typeID] {
			set[name] = true
		}
		return
	}
	for _, name := range decl.Methods {
		set[name] = true
	}
	for _, embedded := range decl.Embedded {
		x.collectMethods(embedded, set, visited)
	}
}

// Implements reports whether the method set of typeID covers every method
// of the interface ifaceID. Empty and unknown interfaces match nothing.
func (x *TypeIndex) Implements(typeID, ifaceID string) bool {
	if typeID == ifaceID {
		return false
	}
	iface, ok := x.types[ifaceID]
	if !ok || !iface.Interface {
		return false
	}

	required := x.MethodSet(ifaceID)
	if len(required) == 0 {
		return false
	}

	have := make(map[string]bool)
	for _, name := range x.MethodSet(typeID) {
		have[name] = true
	}
	for _, name := range required {
		if !have[name] {
			return false
		}
	}
	return true
}

// Interfaces returns the ids of the indexed interfaces typeID implements
func (x *TypeIndex) Interfaces(typeID string) []string {
	var ids []string
	for _, decl := range x.Types() {
		if decl.Interface && x.Implements(typeID, decl.ID) {
			ids = append(ids, decl.ID)
		}
	}
	return ids
}

// ShortID strips the import path from a type id, "logging.FileLogger"
func ShortID(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
