package convert

import (
	"context"
)

// Segment is one unit of converted text. Segments are the original
// chunking unit: chunk spans and overlap are both expressed in
// segments.
type Segment struct {
	Text           string
	Pages          []int  // Page numbers the segment appears on, 1-based
	SectionTitle   string // Optional; set when the converter detects an outline
	HierarchyLevel int    // Depth of SectionTitle in the outline, 0 = top level
}

// Converted is the structured output of a document conversion: an
// ordered segment list in source order.
//
// A Converted with zero segments is a valid result; it means the file
// parsed cleanly but contained no extractable text. Parse failures are
// reported as errors, never as an empty Converted.
type Converted struct {
	Path     string
	Segments []Segment
	Pages    int // Total page count of the source file
}

// Converter turns a file on disk into an ordered segment list.
// Implementations must be safe for concurrent use.
type Converter interface {
	// Convert parses the file at path. Returns ErrNotFound if the file
	// is missing and ErrConversion (wrapped) if it cannot be parsed.
	Convert(ctx context.Context, path string) (*Converted, error)
}
