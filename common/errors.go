package common

import "errors"

var (
	// ErrUnsupportedPrimitive is returned when a mesh primitive type has no generator.
	ErrUnsupportedPrimitive = errors.New("unsupported primitive")

	// ErrInvalidParameter is returned when a primitive parameter is out of range or of the wrong kind.
	ErrInvalidParameter = errors.New("invalid primitive parameter")

	// ErrShaderCompileFailure is returned when the GPU backend rejects a shader variant.
	ErrShaderCompileFailure = errors.New("shader compile failure")

	// ErrInvariantViolation marks a programming error such as mutating a Final cache entry
	// or reparenting a node under one of its own descendants.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrMissingResource marks a resource that is not ready yet. It is never fatal; the
	// owning feature is re-resolved on the next frame.
	ErrMissingResource = errors.New("missing resource")

	// ErrMalformedDocument is returned for document groups that cannot be mapped onto the scene.
	ErrMalformedDocument = errors.New("malformed document")
)
