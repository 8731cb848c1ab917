// Package factory turns a profile resolved container definition into the
// state a backend needs to build a running container.
package factory

// Container is a running container produced by an Adapter
type Container interface {
	// Get returns the shared instance of a service, by type or name
	Get(id string) (any, error)
	// Has reports whether the container can provide id
	Has(id string) bool
	// Make creates a new instance of a service. params override injected
	// constructor parameters by name.
	Make(id string, params map[string]any) (any, error)
	// Invoke calls callable, resolving its arguments from params and the
	// container, and returns its results
	Invoke(callable any, params map[string]any) ([]any, error)
}

// Adapter builds a Container for a specific injection backend. An adapter
// registers the concrete services, binds the aliases, calls delegates
// instead of constructors, wires the injects and runs prepare methods.
type Adapter interface {
	Name() string
	Build(state *State) (Container, error)
}
