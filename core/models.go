package core

import (
	"time"
)

// ID is a unique identifier for domain entities.
// It is assigned by the storage backend on insert (database sequence
// or autoincrement column) and is immutable afterwards.
type ID uint64

// Document represents one ingested source file. Exactly one Document
// exists per successfully downloaded and converted file. Documents are
// never updated after insertion.
type Document struct {
	Id           ID
	Filename     string
	SourceURL    string
	DownloadDate time.Time         // When the file was fetched from its source
	FileSize     int64             // Size of the source file in bytes
	DocumentType string            // e.g. "pdf"
	Metadata     map[string]string // Free-form provenance metadata (manifest columns, checksum, ...)
}

// ChunkMetadata holds counts derived from a chunk's text content.
type ChunkMetadata struct {
	WordCount     int `json:"word_count"`
	CharCount     int `json:"char_count"`
	CitationCount int `json:"citation_marker_count"`
}

// Span is a positional range expressed in the document's original
// chunking unit (converted segments). End is exclusive.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Chunk is a contiguous passage of a document's text, the unit of
// retrieval. Chunks are immutable after persistence.
//
// Index is zero-based and defines document-local ordering; for a
// stored document the Index sequence is 0..k-1 with no gaps. Vector is
// populated by the embedding batcher before the chunk is persisted; a
// chunk is never stored without it.
type Chunk struct {
	Id             ID
	DocumentId     ID
	Index          int
	Content        string
	Pages          []int  // De-duplicated union of the contained segments' pages
	SectionTitle   string // Optional; empty when the source has no outline
	HierarchyLevel int    // Depth in the document outline, 0 = top level
	Metadata       ChunkMetadata
	Span           Span
	Vector         []float32
	CreatedAt      time.Time
}

// SearchMatch is one result of a vector similarity search.
type SearchMatch struct {
	ChunkId    ID
	DocumentId ID
	ChunkIndex int
	Content    string
	Metadata   ChunkMetadata
	Similarity float32
}

// ProcessingStatus is the terminal outcome of processing one document.
type ProcessingStatus string

const (
	// StatusSuccess indicates the document was converted, chunked,
	// embedded and stored. A success with zero chunks means conversion
	// succeeded but produced no content.
	StatusSuccess ProcessingStatus = "success"

	// StatusError indicates processing stopped at some stage; the
	// document was not stored.
	StatusError ProcessingStatus = "error"
)

// ProcessingResult is the transient per-document outcome of one
// pipeline run. It is never persisted.
type ProcessingResult struct {
	Filename   string
	SourceURL  string
	Status     ProcessingStatus
	DocumentId ID // Zero unless Status is success
	Chunks     []*Chunk
	Err        string // Failure description, empty on success
}
