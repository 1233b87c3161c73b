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

package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the domain types. Fields are encoded
// sequentially in declaration order; timestamps use microsecond Unix
// precision. Changing field order or encoding breaks every existing
// store, so treat this file as a wire format definition.
var (
	IDMUS            = idMUS{}
	VectorMUS        = ord.NewSliceSer[float32](raw.Float32)
	PagesMUS         = ord.NewSliceSer[int](varint.Int)
	StringMapMUS     = ord.NewMapSer[string, string](ord.String, ord.String)
	ChunkMetadataMUS = chunkMetadataMUS{}
	SpanMUS          = spanMUS{}
	DocumentMUS      = documentMUS{}
	ChunkMUS         = chunkMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type chunkMetadataMUS struct{}

func (chunkMetadataMUS) Marshal(m ChunkMetadata, bs []byte) (n int) {
	n = varint.Int.Marshal(m.WordCount, bs)
	n += varint.Int.Marshal(m.CharCount, bs[n:])
	n += varint.Int.Marshal(m.CitationCount, bs[n:])
	return n
}

func (chunkMetadataMUS) Unmarshal(bs []byte) (m ChunkMetadata, n int, err error) {
	var n1 int
	if m.WordCount, n, err = varint.Int.Unmarshal(bs); err != nil {
		return m, n, err
	}
	if m.CharCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.CitationCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	return m, n + n1, nil
}

func (chunkMetadataMUS) Size(m ChunkMetadata) int {
	return varint.Int.Size(m.WordCount) +
		varint.Int.Size(m.CharCount) +
		varint.Int.Size(m.CitationCount)
}

func (chunkMetadataMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for range 3 {
		if n1, err = varint.Int.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	return n, nil
}

type spanMUS struct{}

func (spanMUS) Marshal(s Span, bs []byte) (n int) {
	n = varint.Int.Marshal(s.Start, bs)
	n += varint.Int.Marshal(s.End, bs[n:])
	return n
}

func (spanMUS) Unmarshal(bs []byte) (s Span, n int, err error) {
	var n1 int
	if s.Start, n, err = varint.Int.Unmarshal(bs); err != nil {
		return s, n, err
	}
	if s.End, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	return s, n + n1, nil
}

func (spanMUS) Size(s Span) int {
	return varint.Int.Size(s.Start) + varint.Int.Size(s.End)
}

func (spanMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for range 2 {
		if n1, err = varint.Int.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	return n, nil
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Filename, bs[n:])
	n += ord.String.Marshal(d.SourceURL, bs[n:])
	n += raw.TimeUnixMicro.Marshal(d.DownloadDate, bs[n:])
	n += varint.Int64.Marshal(d.FileSize, bs[n:])
	n += ord.String.Marshal(d.DocumentType, bs[n:])
	n += StringMapMUS.Marshal(d.Metadata, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return d, n, err
	}
	if d.Filename, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.SourceURL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.DownloadDate, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.FileSize, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.DocumentType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Metadata, n1, err = StringMapMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	return d, n + n1, nil
}

func (documentMUS) Size(d Document) int {
	return IDMUS.Size(d.Id) +
		ord.String.Size(d.Filename) +
		ord.String.Size(d.SourceURL) +
		raw.TimeUnixMicro.Size(d.DownloadDate) +
		varint.Int64.Size(d.FileSize) +
		ord.String.Size(d.DocumentType) +
		StringMapMUS.Size(d.Metadata)
}

func (documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = DocumentMUS.Unmarshal(bs)
	return n, err
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.DocumentId, bs[n:])
	n += varint.Int.Marshal(c.Index, bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += PagesMUS.Marshal(c.Pages, bs[n:])
	n += ord.String.Marshal(c.SectionTitle, bs[n:])
	n += varint.Int.Marshal(c.HierarchyLevel, bs[n:])
	n += ChunkMetadataMUS.Marshal(c.Metadata, bs[n:])
	n += SpanMUS.Marshal(c.Span, bs[n:])
	n += VectorMUS.Marshal(c.Vector, bs[n:])
	n += raw.TimeUnixMicro.Marshal(c.CreatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return c, n, err
	}
	if c.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Index, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Pages, n1, err = PagesMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.SectionTitle, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.HierarchyLevel, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Metadata, n1, err = ChunkMetadataMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Span, n1, err = SpanMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Vector, n1, err = VectorMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.CreatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	return c, n + n1, nil
}

func (chunkMUS) Size(c Chunk) int {
	return IDMUS.Size(c.Id) +
		IDMUS.Size(c.DocumentId) +
		varint.Int.Size(c.Index) +
		ord.String.Size(c.Content) +
		PagesMUS.Size(c.Pages) +
		ord.String.Size(c.SectionTitle) +
		varint.Int.Size(c.HierarchyLevel) +
		ChunkMetadataMUS.Size(c.Metadata) +
		SpanMUS.Size(c.Span) +
		VectorMUS.Size(c.Vector) +
		raw.TimeUnixMicro.Size(c.CreatedAt)
}

func (chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = ChunkMUS.Unmarshal(bs)
	return n, err
}
