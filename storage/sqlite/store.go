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

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"github.com/poiesic/lexindex/core"
	"github.com/poiesic/lexindex/embedding"
	"github.com/poiesic/lexindex/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT NOT NULL,
    source_url TEXT NOT NULL,
    download_date TIMESTAMP NOT NULL,
    file_size INTEGER NOT NULL,
    document_type TEXT NOT NULL,
    metadata TEXT
);

CREATE TABLE IF NOT EXISTS document_chunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id INTEGER NOT NULL,
    chunk_index INTEGER NOT NULL,
    content TEXT NOT NULL,
    pages TEXT,
    section_title TEXT,
    hierarchy_level INTEGER NOT NULL DEFAULT 0,
    word_count INTEGER NOT NULL DEFAULT 0,
    char_count INTEGER NOT NULL DEFAULT 0,
    citation_count INTEGER NOT NULL DEFAULT 0,
    span_start INTEGER NOT NULL DEFAULT 0,
    span_end INTEGER NOT NULL DEFAULT 0,
    embedding BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (document_id, chunk_index),
    FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON document_chunks(document_id);
`

// Store implements storage.DocumentStore on SQLite via the pure-Go
// modernc driver. Vectors are packed into the embedding BLOB column;
// similarity ranking happens in Go over the candidate rows.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.DocumentStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "sqlite-store")
	}
}

// OpenStore opens (creating if necessary) a SQLite database at path.
// The special path ":memory:" opens an in-memory database, used by
// tests; an in-memory store is pinned to a single connection so every
// statement sees the same database.
func OpenStore(path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("%w: create %s: %v", storage.ErrConnection, dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrConnection, err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrConnection, err)
	}

	s := &Store{
		db:     db,
		logger: slog.Default().With("component", "sqlite-store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the tables and indexes if they do not exist.
// Idempotent; existing data is untouched.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrConnection, err)
	}
	return nil
}

// StoreDocument persists a document and returns its assigned ID.
func (s *Store) StoreDocument(ctx context.Context, doc *core.Document) (core.ID, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return 0, err
	}

	id, err := s.insertDocument(ctx, s.db, doc)
	if err != nil {
		return 0, err
	}

	doc.Id = id
	return id, nil
}

// execer abstracts *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertDocument(ctx context.Context, ex execer, doc *core.Document) (core.ID, error) {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}

	res, err := ex.ExecContext(ctx,
		`INSERT INTO documents (filename, source_url, download_date, file_size, document_type, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.Filename, doc.SourceURL, doc.DownloadDate.UTC(), doc.FileSize, doc.DocumentType, string(metadata))
	if err != nil {
		return 0, fmt.Errorf("%w: insert document: %v", storage.ErrWrite, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrWrite, err)
	}

	return core.ID(id), nil
}

func (s *Store) insertChunk(ctx context.Context, ex execer, chunk *core.Chunk) (core.ID, error) {
	pages, err := json.Marshal(chunk.Pages)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}

	res, err := ex.ExecContext(ctx,
		`INSERT INTO document_chunks
		 (document_id, chunk_index, content, pages, section_title, hierarchy_level,
		  word_count, char_count, citation_count, span_start, span_end, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chunk.DocumentId, chunk.Index, chunk.Content, string(pages), chunk.SectionTitle,
		chunk.HierarchyLevel, chunk.Metadata.WordCount, chunk.Metadata.CharCount,
		chunk.Metadata.CitationCount, chunk.Span.Start, chunk.Span.End,
		storage.MarshalVector(chunk.Vector), chunk.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: insert chunk %d: %v", storage.ErrWrite, chunk.Index, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrWrite, err)
	}

	return core.ID(id), nil
}

// StoreChunks persists the chunks of a single document atomically.
func (s *Store) StoreChunks(ctx context.Context, chunks ...*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	for _, chunk := range chunks {
		id, err := s.insertChunk(ctx, tx, chunk)
		if err != nil {
			return err
		}
		chunk.Id = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	return nil
}

// StoreDocumentWithChunks persists a document and its chunks in one
// transaction, stamping the document's generated ID onto every chunk.
func (s *Store) StoreDocumentWithChunks(ctx context.Context, doc *core.Document, chunks []*core.Chunk) (core.ID, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return 0, err
	}
	if err := core.ValidateChunkSequence(chunks); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	docID, err := s.insertDocument(ctx, tx, doc)
	if err != nil {
		return 0, err
	}

	for _, chunk := range chunks {
		chunk.DocumentId = docID
		id, err := s.insertChunk(ctx, tx, chunk)
		if err != nil {
			return 0, err
		}
		chunk.Id = id
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	doc.Id = docID
	s.logger.Debug("stored document", "document_id", docID, "chunks", len(chunks))

	return docID, nil
}

// GetDocument retrieves a single document by ID.
func (s *Store) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, source_url, download_date, file_size, document_type, metadata
		 FROM documents WHERE id = ?`, id)

	var doc core.Document
	var downloadDate time.Time
	var metadata sql.NullString
	err := row.Scan(&doc.Id, &doc.Filename, &doc.SourceURL, &downloadDate,
		&doc.FileSize, &doc.DocumentType, &metadata)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrQuery, err)
	}

	doc.DownloadDate = downloadDate
	if metadata.Valid && metadata.String != "" && metadata.String != "null" {
		if err := json.Unmarshal([]byte(metadata.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("%w: document metadata: %v", storage.ErrSerializationFailed, err)
		}
	}

	return &doc, nil
}

// GetChunks retrieves all chunks of a document ordered by Index.
func (s *Store) GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, chunk_index, content, pages, section_title, hierarchy_level,
		        word_count, char_count, citation_count, span_start, span_end, embedding, created_at
		 FROM document_chunks WHERE document_id = ? ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrQuery, err)
	}
	defer rows.Close()

	chunks := []*core.Chunk{}
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrQuery, err)
	}

	return chunks, nil
}

func scanChunk(rows *sql.Rows) (*core.Chunk, error) {
	var chunk core.Chunk
	var pages sql.NullString
	var section sql.NullString
	var blob []byte
	var createdAt time.Time

	err := rows.Scan(&chunk.Id, &chunk.DocumentId, &chunk.Index, &chunk.Content,
		&pages, &section, &chunk.HierarchyLevel,
		&chunk.Metadata.WordCount, &chunk.Metadata.CharCount, &chunk.Metadata.CitationCount,
		&chunk.Span.Start, &chunk.Span.End, &blob, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrQuery, err)
	}

	if pages.Valid && pages.String != "" && pages.String != "null" {
		if err := json.Unmarshal([]byte(pages.String), &chunk.Pages); err != nil {
			return nil, fmt.Errorf("%w: chunk pages: %v", storage.ErrSerializationFailed, err)
		}
	}
	chunk.SectionTitle = section.String
	chunk.CreatedAt = createdAt

	chunk.Vector, err = storage.UnmarshalVector(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk vector: %v", storage.ErrSerializationFailed, err)
	}

	return &chunk, nil
}

// SearchSimilarChunks ranks every stored chunk by cosine similarity
// against the query vector.
func (s *Store) SearchSimilarChunks(ctx context.Context, vector []float32, limit int, threshold float32) ([]*core.SearchMatch, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be in [0, 1], got %v", storage.ErrInvalidQuery, threshold)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, chunk_index, content,
		        word_count, char_count, citation_count, embedding
		 FROM document_chunks`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrQuery, err)
	}
	defer rows.Close()

	var matches []*core.SearchMatch
	for rows.Next() {
		var m core.SearchMatch
		var blob []byte
		err := rows.Scan(&m.ChunkId, &m.DocumentId, &m.ChunkIndex, &m.Content,
			&m.Metadata.WordCount, &m.Metadata.CharCount, &m.Metadata.CitationCount, &blob)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrQuery, err)
		}

		stored, err := storage.UnmarshalVector(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d vector: %v", storage.ErrSerializationFailed, m.ChunkId, err)
		}
		if len(stored) == 0 {
			continue
		}

		m.Similarity = embedding.Cosine(vector, stored)
		if m.Similarity >= threshold {
			matches = append(matches, &m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrQuery, err)
	}

	slices.SortFunc(matches, func(a, b *core.SearchMatch) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		if a.ChunkId < b.ChunkId {
			return -1
		}
		if a.ChunkId > b.ChunkId {
			return 1
		}
		return 0
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}
