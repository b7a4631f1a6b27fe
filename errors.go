package hnsw

import "errors"

// Sentinel errors returned across the host-facing boundary. Wrap them
// with fmt.Errorf("...: %w", ...) for context and compare with
// errors.Is.
var (
	// ErrDimensionMismatch is returned when a vector or query's length
	// does not equal the index's dimensionality. The index is left
	// unchanged.
	ErrDimensionMismatch = errors.New("hnsw: vector dimension mismatch")

	// ErrInvalidComponent is returned when a vector contains a
	// non-finite component (NaN or ±Inf). The index is left unchanged.
	ErrInvalidComponent = errors.New("hnsw: vector contains a non-finite component")

	// ErrSerialization is returned when a persisted document is
	// malformed, or references an ID missing from its own node table.
	// No partial index is exposed.
	ErrSerialization = errors.New("hnsw: malformed serialized document")

	// ErrVersionUnsupported is returned when a persisted document's
	// version is recognized but not supported by this build.
	ErrVersionUnsupported = errors.New("hnsw: unsupported persistence version")
)
