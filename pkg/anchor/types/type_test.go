package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	logger     = "github.com/acme/app/logging.Logger"
	fileLogger = "github.com/acme/app/logging.FileLogger"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		name     string
		typ      Type
		expected string
	}{
		{"scalar", Scalar(Int), "int"},
		{"object", Object(logger), logger},
		{"mixed", Mixed(), "mixed"},
		{"zero value is mixed", Type{}, "mixed"},
		{"nullable scalar", Nullable(Scalar(String)), "?string"},
		{"union sorted", Union(Scalar(String), Scalar(Bool)), "bool|string"},
		{"intersect sorted", Intersect(Object("b.B"), Object("a.A")), "a.A&b.B"},
		{"nullable union", Nullable(Union(Object("a.A"), Object("b.B"))), "?(a.A|b.B)"},
		{"union with intersect", Union(Intersect(Object("a.A"), Object("b.B")), Object("c.C")), "(a.A&b.B)|c.C"},
		{"intersect with union", Intersect(Union(Object("a.A"), Object("b.B")), Object("c.C")), "(a.A|b.B)&c.C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.typ.String())
		})
	}
}

func TestSetSemantics(t *testing.T) {
	t.Run("order does not matter", func(t *testing.T) {
		a := Union(Object("a.A"), Object("b.B"), Scalar(Int))
		b := Union(Scalar(Int), Object("b.B"), Object("a.A"))
		assert.True(t, a.Equal(b))
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		a := Intersect(Object("a.A"), Object("a.A"), Object("b.B"))
		b := Intersect(Object("b.B"), Object("a.A"))
		assert.True(t, a.Equal(b))
		assert.Len(t, a.Members(), 2)
	})

	t.Run("nested unions flatten", func(t *testing.T) {
		a := Union(Object("a.A"), Union(Object("b.B"), Object("c.C")))
		assert.Equal(t, "a.A|b.B|c.C", a.String())
	})

	t.Run("single member collapses", func(t *testing.T) {
		assert.True(t, Union(Object("a.A"), Object("a.A")).Equal(Object("a.A")))
	})

	t.Run("union differs from intersect", func(t *testing.T) {
		assert.False(t, Union(Object("a.A"), Object("b.B")).Equal(Intersect(Object("a.A"), Object("b.B"))))
	})

	t.Run("nullable is idempotent", func(t *testing.T) {
		assert.True(t, Nullable(Nullable(Scalar(Int))).Equal(Nullable(Scalar(Int))))
	})

	t.Run("members are copies", func(t *testing.T) {
		u := Union(Object("a.A"), Object("b.B"))
		members := u.Members()
		members[0] = Object("z.Z")
		assert.Equal(t, "a.A|b.B", u.String())
	})
}

func TestParseRoundTrip(t *testing.T) {
	fixtures := []Type{
		Scalar(String),
		Scalar(Int),
		Scalar(Float),
		Scalar(Bool),
		Mixed(),
		Object(logger),
		Object("github.com/acme/my-app/v2/internal/store.Repo"),
		Nullable(Object(fileLogger)),
		Nullable(Mixed()),
		Union(Object(logger), Scalar(String)),
		Intersect(Object(logger), Object(fileLogger)),
		Nullable(Union(Object("a.A"), Object("b.B"))),
		Union(Intersect(Object("a.A"), Object("b.B")), Nullable(Object("c.C"))),
		Intersect(Union(Object("a.A"), Object("b.B")), Object("c.C")),
	}

	for _, fixture := range fixtures {
		t.Run(fixture.String(), func(t *testing.T) {
			parsed, err := Parse(fixture.String())
			require.NoError(t, err)
			assert.True(t, parsed.Equal(fixture), "parsed %s, want %s", parsed, fixture)
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("whitespace is ignored", func(t *testing.T) {
		parsed, err := Parse(" a.A | ( b.B & c.C ) ")
		require.NoError(t, err)
		assert.Equal(t, "a.A|(b.B&c.C)", parsed.String())
	})

	t.Run("scalar names are reserved", func(t *testing.T) {
		parsed, err := Parse("float")
		require.NoError(t, err)
		assert.True(t, parsed.IsScalar())
		kind, ok := parsed.ScalarKind()
		assert.True(t, ok)
		assert.Equal(t, Float, kind)
	})

	invalid := []string{"", "   ", "a.A|", "(a.A", "a.A&&b.B", "?", "a.A b.B"}
	for _, input := range invalid {
		t.Run("invalid "+input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestObjectNames(t *testing.T) {
	typ := Object(fileLogger)
	assert.Equal(t, "logging.FileLogger", typ.ShortName())
	assert.Equal(t, "github.com/acme/app/logging", typ.Package())
	assert.Equal(t, "", Scalar(Int).Package())
	assert.Equal(t, "int", Scalar(Int).ShortName())
}

func TestTextMarshaling(t *testing.T) {
	original := Nullable(Union(Object("a.A"), Scalar(Int)))
	text, err := original.MarshalText()
	require.NoError(t, err)

	var decoded Type
	require.NoError(t, decoded.UnmarshalText(text))
	assert.True(t, decoded.Equal(original))

	assert.Error(t, decoded.UnmarshalText([]byte("|")))
}
