package ingestion

import "errors"

var (
	// ErrConverterRequired is returned when a converter is not provided.
	ErrConverterRequired = errors.New("converter required")

	// ErrBuilderRequired is returned when a chunk builder is not provided.
	ErrBuilderRequired = errors.New("chunk builder required")

	// ErrBatcherRequired is returned when an embedding batcher is not provided.
	ErrBatcherRequired = errors.New("embedding batcher required")

	// ErrStoreRequired is returned when a document store is not provided.
	ErrStoreRequired = errors.New("document store required")
)
