// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Filename must not be empty
//
// NOT validated:
//   - ID (0 is valid before the store assigns one)
//   - SourceURL, FileSize, DocumentType, Metadata (all optional)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Index must not be negative
//   - HierarchyLevel must not be negative
//   - Span.End must not precede Span.Start
//
// NOT validated (populated later in the pipeline):
//   - Vector (attached by the embedding batcher before persistence)
//   - ID and DocumentId (0 is valid before the store assigns them)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeIndex)
	}

	if chunk.HierarchyLevel < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeHierarchyLevel)
	}

	if chunk.Span.End < chunk.Span.Start {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidSpan)
	}

	return nil
}

// ValidateChunkSequence verifies that chunk indices are exactly 0..k-1
// in slice order, the invariant every stored document must satisfy.
func ValidateChunkSequence(chunks []*Chunk) error {
	for i, chunk := range chunks {
		if err := ValidateChunk(chunk); err != nil {
			return err
		}
		if chunk.Index != i {
			return fmt.Errorf("%w: index %d at position %d", ErrInvalidChunk, chunk.Index, i)
		}
	}
	return nil
}
