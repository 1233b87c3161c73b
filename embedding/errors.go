package embedding

import "errors"

var (
	// ErrBackend indicates the embedding provider failed.
	ErrBackend = errors.New("embedding backend failure")

	// ErrDimensionMismatch indicates a returned vector does not have
	// the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCountMismatch indicates the provider returned a different
	// number of vectors than texts submitted.
	ErrCountMismatch = errors.New("embedding count mismatch")
)
