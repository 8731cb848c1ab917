// Package anchor is the runtime surface of the anchor dependency-injection
// metadata compiler.
//
// The compiler scans //anchor:: annotations in Go source, resolves them into a
// ContainerDefinition and hands a profile-resolved view of that definition to a
// backend adapter which builds the running container.
//
// The sub-packages are layered leaves first:
//
//	types       semantic type references (scalar, object, union, intersection, nullable, mixed)
//	definition  definition entities, the ContainerDefinition aggregate, profile and alias resolution
//	store       parameter stores consulted for externally sourced values
//	factory     factory state, parameter resolution and the backend adapter contract
//	container   the reference backend adapter
//	serializer  the versioned XML cache format
//	errors      the error taxonomy shared by every layer
package anchor
