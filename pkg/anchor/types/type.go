// Package types models the static types that service definitions refer to:
// scalars, named objects, unions, intersections, nullables and mixed.
//
// A Type is an immutable value. Two types are compared with Equal, never with
// ==, and every type has a canonical string form that Parse reads back.
package types

import (
	"sort"
	"strings"
)

// Kind identifies the shape of a Type
type Kind int

const (
	KindMixed Kind = iota
	KindScalar
	KindObject
	KindUnion
	KindIntersect
	KindNullable
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindUnion:
		return "union"
	case KindIntersect:
		return "intersect"
	case KindNullable:
		return "nullable"
	default:
		return "mixed"
	}
}

// ScalarKind is one of the built-in scalar types
type ScalarKind string

const (
	String ScalarKind = "string"
	Int    ScalarKind = "int"
	Float  ScalarKind = "float"
	Bool   ScalarKind = "bool"
)

const mixedName = "mixed"

// ScalarKinds lists every supported scalar kind
var ScalarKinds = []ScalarKind{String, Int, Float, Bool}

// IsScalarName reports whether name is the canonical name of a scalar kind
func IsScalarName(name string) bool {
	for _, kind := range ScalarKinds {
		if string(kind) == name {
			return true
		}
	}
	return false
}

// Type is a structural description of a value type. The zero value is Mixed.
type Type struct {
	kind    Kind
	name    string // scalar kind or fully qualified object name
	members []Type // union and intersect members, sorted and unique
	inner   *Type  // nullable payload
}

// Scalar returns the scalar type of the given kind
func Scalar(kind ScalarKind) Type {
	return Type{kind: KindScalar, name: string(kind)}
}

// Object returns the object type with the given fully qualified name,
// e.g. "github.com/acme/app/logging.Logger"
func Object(name string) Type {
	return Type{kind: KindObject, name: name}
}

// Mixed returns the untyped type
func Mixed() Type {
	return Type{kind: KindMixed}
}

// Nullable wraps t so that it also admits nil. Nullable is idempotent.
func Nullable(t Type) Type {
	if t.kind == KindNullable {
		return t
	}
	inner := t
	return Type{kind: KindNullable, inner: &inner}
}

// Union returns the union of members. Nested unions are flattened, duplicates
// removed and members ordered canonically; a single distinct member is
// returned as is.
func Union(members ...Type) Type {
	return newSet(KindUnion, members)
}

// Intersect returns the intersection of members with the same set semantics
// as Union.
func Intersect(members ...Type) Type {
	return newSet(KindIntersect, members)
}

func newSet(kind Kind, members []Type) Type {
	flat := make([]Type, 0, len(members))
	for _, member := range members {
		if member.kind == kind {
			flat = append(flat, member.members...)
			continue
		}
		flat = append(flat, member)
	}

	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].String() < flat[j].String()
	})

	unique := flat[:0]
	for _, member := range flat {
		if len(unique) > 0 && unique[len(unique)-1].Equal(member) {
			continue
		}
		unique = append(unique, member)
	}

	switch len(unique) {
	case 0:
		return Mixed()
	case 1:
		return unique[0]
	}
	return Type{kind: kind, members: append([]Type(nil), unique...)}
}

// Kind returns the kind of the type
func (t Type) Kind() Kind { return t.kind }

// Name returns the object name or scalar kind, and "" for composite types
func (t Type) Name() string { return t.name }

// Members returns a copy of the union or intersect members
func (t Type) Members() []Type {
	if len(t.members) == 0 {
		return nil
	}
	return append([]Type(nil), t.members...)
}

// Inner returns the payload of a nullable type, or the type itself
func (t Type) Inner() Type {
	if t.kind == KindNullable && t.inner != nil {
		return *t.inner
	}
	return t
}

// IsObject reports whether t is a named object type
func (t Type) IsObject() bool { return t.kind == KindObject }

// IsScalar reports whether t is a scalar type
func (t Type) IsScalar() bool { return t.kind == KindScalar }

// IsMixed reports whether t is the untyped type
func (t Type) IsMixed() bool { return t.kind == KindMixed }

// ScalarKind returns the scalar kind of t, looking through a nullable wrapper
func (t Type) ScalarKind() (ScalarKind, bool) {
	inner := t.Inner()
	if inner.kind != KindScalar {
		return "", false
	}
	return ScalarKind(inner.name), true
}

// Equal reports whether t and other describe the same type
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case KindScalar, KindObject:
		return t.name == other.name
	case KindNullable:
		return t.Inner().Equal(other.Inner())
	case KindUnion, KindIntersect:
		if len(t.members) != len(other.members) {
			return false
		}
		for i := range t.members {
			if !t.members[i].Equal(other.members[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String returns the canonical form of t: "string", "pkg.Name", "?T",
// "A|B" and "A&B", with parentheses around nested composites.
func (t Type) String() string {
	switch t.kind {
	case KindScalar, KindObject:
		return t.name
	case KindNullable:
		inner := t.Inner()
		if inner.kind == KindUnion || inner.kind == KindIntersect {
			return "?(" + inner.String() + ")"
		}
		return "?" + inner.String()
	case KindUnion:
		return joinMembers(t.members, "|", KindIntersect)
	case KindIntersect:
		return joinMembers(t.members, "&", KindUnion)
	default:
		return mixedName
	}
}

func joinMembers(members []Type, separator string, grouped Kind) string {
	parts := make([]string, len(members))
	for i, member := range members {
		if member.kind == grouped {
			parts[i] = "(" + member.String() + ")"
			continue
		}
		parts[i] = member.String()
	}
	return strings.Join(parts, separator)
}

// ShortName returns the object name without its import path, so
// "github.com/acme/app/logging.Logger" becomes "logging.Logger"
func (t Type) ShortName() string {
	if t.kind != KindObject {
		return t.String()
	}
	if idx := strings.LastIndex(t.name, "/"); idx >= 0 {
		return t.name[idx+1:]
	}
	return t.name
}

// Package returns the import path of an object type
func (t Type) Package() string {
	if t.kind != KindObject {
		return ""
	}
	if idx := strings.LastIndex(t.name, "."); idx > strings.LastIndex(t.name, "/") {
		return t.name[:idx]
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler using the canonical form
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using Parse
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
