package definition

import "strings"

// DefaultProfile is the profile a definition belongs to when none is declared
const DefaultProfile = "default"

// Profiles is an ordered set of profile names. The zero value is the
// default set {"default"}.
type Profiles struct {
	names []string
}

// NewProfiles creates a profile set from names. Blank names are ignored and
// duplicates keep their first position; an empty result is the default set.
func NewProfiles(names ...string) Profiles {
	var unique []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
	}
	if len(unique) == 1 && unique[0] == DefaultProfile {
		return Profiles{}
	}
	return Profiles{names: unique}
}

// ParseProfiles splits a comma separated list such as "default,staging"
func ParseProfiles(list string) Profiles {
	return NewProfiles(strings.Split(list, ",")...)
}

// DefaultProfiles returns {"default"}
func DefaultProfiles() Profiles {
	return Profiles{}
}

// Names returns a copy of the profile names in declaration order
func (p Profiles) Names() []string {
	if len(p.names) == 0 {
		return []string{DefaultProfile}
	}
	return append([]string(nil), p.names...)
}

// Len returns the number of profiles in the set
func (p Profiles) Len() int {
	if len(p.names) == 0 {
		return 1
	}
	return len(p.names)
}

// Contains reports whether name is in the set
func (p Profiles) Contains(name string) bool {
	for _, candidate := range p.Names() {
		if candidate == name {
			return true
		}
	}
	return false
}

// Intersects reports whether p and other share at least one profile
func (p Profiles) Intersects(other Profiles) bool {
	for _, name := range p.Names() {
		if other.Contains(name) {
			return true
		}
	}
	return false
}

// Equal reports whether p and other hold the same names, ignoring order
func (p Profiles) Equal(other Profiles) bool {
	if p.Len() != other.Len() {
		return false
	}
	for _, name := range p.Names() {
		if !other.Contains(name) {
			return false
		}
	}
	return true
}

// IsDefault reports whether the set is exactly {"default"}
func (p Profiles) IsDefault() bool {
	return len(p.names) == 0
}

// String returns the names joined with commas
func (p Profiles) String() string {
	return strings.Join(p.Names(), ",")
}
