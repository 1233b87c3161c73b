package chunk

import "errors"

var (
	// ErrInvalidConfig indicates the builder was configured with an
	// unusable parameter combination.
	ErrInvalidConfig = errors.New("invalid chunking configuration")
)
