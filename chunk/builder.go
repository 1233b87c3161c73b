// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chunk

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/lexindex/convert"
	"github.com/poiesic/lexindex/core"
)

// DefaultMaxChunkSize is the soft chunk budget in characters.
const DefaultMaxChunkSize = 1000

// DefaultCitationMarkers are the markers counted per chunk for
// Brazilian legal texts.
var DefaultCitationMarkers = []string{"Art.", "§", "Inciso"}

// Builder groups segments into chunks.
type Builder struct {
	maxChunkSize      int
	overlap           int
	preserveStructure bool
	citationMarkers   []string
	logger            *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithMaxChunkSize sets the soft character budget per chunk. A single
// segment larger than the budget still becomes a chunk of its own.
func WithMaxChunkSize(size int) Option {
	return func(b *Builder) {
		b.maxChunkSize = size
	}
}

// WithOverlap sets how many trailing segments of each chunk are
// repeated at the start of the next chunk.
func WithOverlap(overlap int) Option {
	return func(b *Builder) {
		b.overlap = overlap
	}
}

// WithPreserveStructure controls whether a section title change forces
// a chunk boundary.
func WithPreserveStructure(preserve bool) Option {
	return func(b *Builder) {
		b.preserveStructure = preserve
	}
}

// WithCitationMarkers sets the markers counted into chunk metadata.
func WithCitationMarkers(markers []string) Option {
	return func(b *Builder) {
		b.citationMarkers = markers
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger.With("component", "chunk-builder")
	}
}

// NewBuilder creates a Builder with the given options applied over
// the defaults (budget 1000, overlap 1, structure preserved).
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		maxChunkSize:      DefaultMaxChunkSize,
		overlap:           1,
		preserveStructure: true,
		citationMarkers:   DefaultCitationMarkers,
		logger:            slog.Default().With("component", "chunk-builder"),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.maxChunkSize <= 0 {
		return nil, fmt.Errorf("%w: max chunk size must be positive, got %d", ErrInvalidConfig, b.maxChunkSize)
	}
	if b.overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidConfig, b.overlap)
	}

	return b, nil
}

// group is a run of consecutive source segments destined for one chunk.
// carried counts leading segments repeated from the previous chunk.
type group struct {
	start    int
	segments []convert.Segment
	carried  int
}

// Build assembles chunks for the document from its converted segments.
// Chunk indices are assigned contiguously from zero. Blank segments
// are ignored; an input with no usable segments yields no chunks.
func (b *Builder) Build(documentID core.ID, segments []convert.Segment) ([]*core.Chunk, error) {
	groups := b.partition(segments)

	now := time.Now()
	chunks := make([]*core.Chunk, 0, len(groups))
	for i, g := range groups {
		c := b.assemble(documentID, i, g, now)
		if err := core.ValidateChunk(c); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	b.logger.Debug("built chunks", "document_id", documentID,
		"segments", len(segments), "chunks", len(chunks))

	return chunks, nil
}

// partition walks the segments greedily, closing a group when the
// character budget would be exceeded or when the section changes.
func (b *Builder) partition(segments []convert.Segment) []group {
	var groups []group
	var cur group
	curSize := 0

	flush := func(next int) {
		if len(cur.segments) == 0 || len(cur.segments) == cur.carried {
			return
		}
		groups = append(groups, cur)

		cur = group{start: next}
		curSize = 0

		// Seed the next group with trailing segments from the one
		// just closed. They keep their original starting position so
		// the span stays truthful about coverage.
		if b.overlap > 0 && next < len(segments) {
			prev := groups[len(groups)-1]
			carry := b.overlap
			if carry >= len(prev.segments) {
				carry = len(prev.segments) - 1
			}
			if carry > 0 {
				tail := prev.segments[len(prev.segments)-carry:]
				cur.start = prev.start + len(prev.segments) - carry
				cur.segments = append(cur.segments, tail...)
				cur.carried = carry
				for _, s := range tail {
					curSize += utf8.RuneCountInString(s.Text)
				}
			}
		}
	}

	for i, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}

		size := utf8.RuneCountInString(seg.Text)

		if len(cur.segments) > 0 {
			sectionBreak := b.preserveStructure &&
				seg.SectionTitle != cur.segments[len(cur.segments)-1].SectionTitle
			// A group holding nothing but carried overlap never
			// flushes on size alone, or it would duplicate the
			// previous chunk verbatim.
			overBudget := curSize+size > b.maxChunkSize && len(cur.segments) > cur.carried
			if sectionBreak || overBudget {
				flush(i)
			}
			// Overlap carried across a section break would leak the
			// previous section into this one.
			if sectionBreak && len(cur.segments) > 0 {
				cur = group{start: i}
				curSize = 0
			}
		}

		if len(cur.segments) == 0 {
			cur.start = i
		}
		cur.segments = append(cur.segments, seg)
		curSize += size
	}
	flush(len(segments))

	return groups
}

// assemble materializes a group into a chunk with derived metadata.
func (b *Builder) assemble(documentID core.ID, index int, g group, now time.Time) *core.Chunk {
	parts := make([]string, 0, len(g.segments))
	pageSet := make(map[int]struct{})
	for _, s := range g.segments {
		parts = append(parts, s.Text)
		for _, p := range s.Pages {
			pageSet[p] = struct{}{}
		}
	}
	content := strings.Join(parts, "\n\n")

	pages := make([]int, 0, len(pageSet))
	for p := range pageSet {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	citations := 0
	for _, marker := range b.citationMarkers {
		citations += strings.Count(content, marker)
	}

	first := g.segments[0]
	return &core.Chunk{
		DocumentId:     documentID,
		Index:          index,
		Content:        content,
		Pages:          pages,
		SectionTitle:   first.SectionTitle,
		HierarchyLevel: first.HierarchyLevel,
		Metadata: core.ChunkMetadata{
			WordCount:     len(strings.Fields(content)),
			CharCount:     utf8.RuneCountInString(content),
			CitationCount: citations,
		},
		Span: core.Span{
			Start: g.start,
			End:   g.start + len(g.segments),
		},
		CreatedAt: now,
	}
}
