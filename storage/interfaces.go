package storage

import (
	"context"

	"github.com/poiesic/lexindex/core"
)

// DocumentStore provides persistence for documents and their chunks.
// Implementations must be thread-safe and support concurrent access.
type DocumentStore interface {
	// InitSchema prepares the backend for use (tables, sequences).
	// Idempotent: calling it on an already initialized store is a no-op
	// and existing data is preserved.
	InitSchema(ctx context.Context) error

	// StoreDocument persists a document and returns its assigned ID.
	// For documents with Id=0, a new ID is generated.
	StoreDocument(ctx context.Context, doc *core.Document) (core.ID, error)

	// StoreChunks persists the chunks of a single document atomically.
	// Either every chunk is stored or none is. Chunks with Id=0 get
	// generated IDs. An empty slice is a no-op.
	StoreChunks(ctx context.Context, chunks ...*core.Chunk) error

	// StoreDocumentWithChunks persists a document and its chunks in one
	// transaction, assigning the document's generated ID to every
	// chunk. A failure leaves neither the document nor any chunk behind.
	StoreDocumentWithChunks(ctx context.Context, doc *core.Document, chunks []*core.Chunk) (core.ID, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetChunks retrieves all chunks of a document ordered by Index.
	// Returns an empty slice when the document has no chunks.
	GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// SearchSimilarChunks finds chunks similar to the query vector.
	// Returns matches with similarity >= threshold, ordered by
	// similarity descending (ties broken by chunk ID ascending), up to
	// limit results. Returns ErrInvalidQuery if limit is not positive
	// or threshold is outside [0, 1].
	SearchSimilarChunks(ctx context.Context, vector []float32, limit int, threshold float32) ([]*core.SearchMatch, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
