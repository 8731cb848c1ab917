package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfiles(t *testing.T) {
	t.Run("zero value is default", func(t *testing.T) {
		var p Profiles
		assert.Equal(t, []string{DefaultProfile}, p.Names())
		assert.True(t, p.IsDefault())
		assert.True(t, p.Equal(NewProfiles("default")))
	})

	t.Run("order kept and duplicates dropped", func(t *testing.T) {
		p := NewProfiles("staging", " prod ", "staging", "")
		assert.Equal(t, []string{"staging", "prod"}, p.Names())
		assert.Equal(t, "staging,prod", p.String())
	})

	t.Run("parse list", func(t *testing.T) {
		assert.Equal(t, []string{"default", "test"}, ParseProfiles("default, test").Names())
		assert.True(t, ParseProfiles("").IsDefault())
	})

	t.Run("explicit default equals zero value", func(t *testing.T) {
		assert.Equal(t, DefaultProfiles(), NewProfiles(DefaultProfile))
	})
}

func TestProfilesIntersects(t *testing.T) {
	tests := []struct {
		name     string
		declared Profiles
		active   Profiles
		expected bool
	}{
		{"default matches default", DefaultProfiles(), DefaultProfiles(), true},
		{"one shared profile is enough", NewProfiles("default", "staging"), NewProfiles("staging", "prod"), true},
		{"declared subset of active", NewProfiles("prod"), NewProfiles("default", "prod"), true},
		{"active subset of declared", NewProfiles("default", "prod", "test"), NewProfiles("prod"), true},
		{"disjoint", NewProfiles("staging"), DefaultProfiles(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.declared.Intersects(tt.active))
			assert.Equal(t, tt.expected, tt.active.Intersects(tt.declared))
		})
	}
}
