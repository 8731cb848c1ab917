package scanner

import (
	"fmt"
	"strings"

	"github.com/toyz/anchor/internal/annotations"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/types"
)

// TargetKind identifies the kind of declaration an annotation is attached to
type TargetKind int

const (
	TypeTarget TargetKind = iota
	FuncTarget
	MethodTarget
	FieldTarget
)

// String returns the lowercase name of the kind
func (k TargetKind) String() string {
	switch k {
	case TypeTarget:
		return "type"
	case FuncTarget:
		return "func"
	case MethodTarget:
		return "method"
	case FieldTarget:
		return "field"
	default:
		return "unknown"
	}
}

// Target is the declaration an annotation is attached to
type Target struct {
	Kind      TargetKind
	Type      string     // owning type id for types, methods and fields
	Func      string     // function or method name
	Field     string     // struct field name
	FieldType types.Type // declared type of the field
}

// String describes the target for diagnostics
func (t Target) String() string {
	switch t.Kind {
	case TypeTarget:
		return t.Type
	case FuncTarget:
		return t.Func
	case MethodTarget:
		return t.Type + "::" + t.Func
	case FieldTarget:
		return t.Type + "::$" + t.Field
	default:
		return "?"
	}
}

// Scope is the naming context of the file an annotation was found in
type Scope struct {
	Package string            // import path of the package
	Imports map[string]string // local package name -> import path
}

// QualifyName expands a type name written in annotation values. "Logger"
// names a type of the current package, "logging.Logger" a type of an
// imported package; anything else is returned unchanged.
func (s Scope) QualifyName(name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	dot := strings.Index(name, ".")
	if dot < 0 {
		if s.Package == "" || types.IsScalarName(name) {
			return name
		}
		return s.Package + "." + name
	}
	if path, ok := s.Imports[name[:dot]]; ok {
		return path + name[dot:]
	}
	return name
}

// Qualify applies QualifyName to every object type in t
func (s Scope) Qualify(t types.Type) types.Type {
	switch t.Kind() {
	case types.KindObject:
		return types.Object(s.QualifyName(t.Name()))
	case types.KindNullable:
		return types.Nullable(s.Qualify(t.Inner()))
	case types.KindUnion, types.KindIntersect:
		members := t.Members()
		for i, member := range members {
			members[i] = s.Qualify(member)
		}
		if t.Kind() == types.KindUnion {
			return types.Union(members...)
		}
		return types.Intersect(members...)
	default:
		return t
	}
}

// Fact is one parsed annotation and the declaration it belongs to
type Fact struct {
	Kind       annotations.AnnotationType
	Annotation *annotations.ParsedAnnotation
	Target     Target
	Scope      Scope
	Location   errors.SourceLocation
}

// String describes the fact for diagnostics
func (f Fact) String() string {
	return fmt.Sprintf("%s on %s %s", f.Kind, f.Target.Kind, f.Target)
}
