package types

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// unionExpr is the root of the type grammar:
//
//	union     = intersect { "|" intersect }
//	intersect = unary { "&" unary }
//	unary     = [ "?" ] ( "(" union ")" | Name )
type unionExpr struct {
	Terms []*intersectExpr `parser:"@@ ( '|' @@ )*"`
}

type intersectExpr struct {
	Factors []*unaryExpr `parser:"@@ ( '&' @@ )*"`
}

type unaryExpr struct {
	Nullable bool       `parser:"@'?'?"`
	Group    *unionExpr `parser:"( '(' @@ ')'"`
	Name     string     `parser:"| @Name )"`
}

var typeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Name", Pattern: `[a-zA-Z_][a-zA-Z0-9_\.\-/]*`},
	{Name: "Punct", Pattern: `[|&?()]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var typeParser = participle.MustBuild[unionExpr](
	participle.Lexer(typeLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse reads a type from its canonical string form. Whitespace between
// tokens is ignored; the names "string", "int", "float", "bool" and "mixed"
// are reserved for the built-in types.
func Parse(input string) (Type, error) {
	if strings.TrimSpace(input) == "" {
		return Type{}, fmt.Errorf("empty type expression")
	}
	expr, err := typeParser.ParseString("", input)
	if err != nil {
		return Type{}, fmt.Errorf("invalid type expression %q: %w", input, err)
	}
	return expr.toType(), nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixed tables.
func MustParse(input string) Type {
	t, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return t
}

func (u *unionExpr) toType() Type {
	members := make([]Type, len(u.Terms))
	for i, term := range u.Terms {
		members[i] = term.toType()
	}
	return Union(members...)
}

func (i *intersectExpr) toType() Type {
	members := make([]Type, len(i.Factors))
	for idx, factor := range i.Factors {
		members[idx] = factor.toType()
	}
	return Intersect(members...)
}

func (u *unaryExpr) toType() Type {
	var t Type
	switch {
	case u.Group != nil:
		t = u.Group.toType()
	case u.Name == mixedName:
		t = Mixed()
	case IsScalarName(u.Name):
		t = Scalar(ScalarKind(u.Name))
	default:
		t = Object(u.Name)
	}
	if u.Nullable {
		return Nullable(t)
	}
	return t
}
