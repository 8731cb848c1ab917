package definition

import "bytes"

// Attribute is the annotation a definition was created from. Its payload is
// opaque to the resolution core and carried through serialization untouched.
type Attribute struct {
	Name string
	Data []byte
}

// NewAttribute creates an attribute, normalising an empty payload to nil
func NewAttribute(name string, data []byte) Attribute {
	if len(data) == 0 {
		return Attribute{Name: name}
	}
	return Attribute{Name: name, Data: append([]byte(nil), data...)}
}

// IsZero reports whether no attribute was recorded
func (a Attribute) IsZero() bool {
	return a.Name == "" && len(a.Data) == 0
}

// Equal reports whether both attributes carry the same name and payload
func (a Attribute) Equal(other Attribute) bool {
	return a.Name == other.Name && bytes.Equal(a.Data, other.Data)
}
