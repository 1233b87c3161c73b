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

package badger

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexindex/core"
	"github.com/poiesic/lexindex/embedding"
	"github.com/poiesic/lexindex/storage"
)

// Store implements storage.DocumentStore on BadgerDB. Documents and
// chunks are stored as MUS-encoded values under per-type key prefixes;
// a composite (documentID, chunkIndex) key keeps each document's
// chunks scannable in order.
type Store struct {
	backend  *Backend
	docSeq   *badger.Sequence
	chunkSeq *badger.Sequence
}

var _ storage.DocumentStore = (*Store)(nil)

// OpenStore opens a BadgerDB-backed document store at path.
func OpenStore(path string) (*Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrConnection, err)
	}
	return newStore(backend)
}

func newStore(backend *Backend) (*Store, error) {
	docSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrConnection, err)
	}

	chunkSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		docSeq.Release()
		backend.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrConnection, err)
	}

	return &Store{
		backend:  backend,
		docSeq:   docSeq,
		chunkSeq: chunkSeq,
	}, nil
}

// Close releases the ID sequences and closes the database.
func (s *Store) Close() error {
	s.docSeq.Release()
	s.chunkSeq.Release()
	return s.backend.Close()
}

// InitSchema is a no-op for BadgerDB: there is no schema to create,
// and the ID sequences are acquired when the store is opened. Safe to
// call any number of times.
func (s *Store) InitSchema(ctx context.Context) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// nextID draws the next ID from a sequence.
// BadgerDB sequences can return 0 on first call, so we skip it.
func nextID(seq *badger.Sequence) (core.ID, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		n, err = seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(n), nil
}

// StoreDocument persists a document and returns its assigned ID.
func (s *Store) StoreDocument(ctx context.Context, doc *core.Document) (core.ID, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return 0, err
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := s.putDocument(tx, doc); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrWrite, err)
	}

	return doc.Id, nil
}

func (s *Store) putDocument(tx *badger.Txn, doc *core.Document) error {
	if doc.Id == 0 {
		id, err := nextID(s.docSeq)
		if err != nil {
			return err
		}
		doc.Id = id
	}
	return tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc))
}

// StoreChunks persists the chunks of a single document atomically.
func (s *Store) StoreChunks(ctx context.Context, chunks ...*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := s.putChunks(tx, chunks); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWrite, err)
	}

	return nil
}

func (s *Store) putChunks(tx *badger.Txn, chunks []*core.Chunk) error {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}

		if chunk.Id == 0 {
			id, err := nextID(s.chunkSeq)
			if err != nil {
				return err
			}
			chunk.Id = id
		}

		if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
			return err
		}

		indexKey := makeDocumentChunkKey(chunk.DocumentId, chunk.Index)
		if err := tx.Set(indexKey, storage.MarshalID(chunk.Id)); err != nil {
			return err
		}
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

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := s.putDocument(tx, doc); err != nil {
			return err
		}
		for _, chunk := range chunks {
			chunk.DocumentId = doc.Id
		}
		if err := s.putChunks(tx, chunks); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", storage.ErrWrite, err)
	}

	return doc.Id, nil
}

// GetDocument retrieves a single document by ID.
func (s *Store) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			doc, err = storage.UnmarshalDocument(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GetChunks retrieves all chunks of a document ordered by Index.
func (s *Store) GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	chunks := []*core.Chunk{}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialDocumentChunkKey(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunkID core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			item, err := tx.Get(makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrQuery, err)
	}

	return chunks, nil
}

// SearchSimilarChunks scans every stored chunk and ranks by cosine
// similarity against the query vector.
func (s *Store) SearchSimilarChunks(ctx context.Context, vector []float32, limit int, threshold float32) ([]*core.SearchMatch, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be in [0, 1], got %v", storage.ErrInvalidQuery, threshold)
	}

	var matches []*core.SearchMatch

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			// The sequence key shares the chunk prefix
			if bytes.Equal(item.Key(), []byte(chunkIDSeq)) {
				continue
			}

			var chunk *core.Chunk
			err := item.Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) == 0 {
				continue
			}

			similarity := embedding.Cosine(vector, chunk.Vector)
			if similarity >= threshold {
				matches = append(matches, &core.SearchMatch{
					ChunkId:    chunk.Id,
					DocumentId: chunk.DocumentId,
					ChunkIndex: chunk.Index,
					Content:    chunk.Content,
					Metadata:   chunk.Metadata,
					Similarity: similarity,
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrQuery, err)
	}

	// Sort by similarity descending, ties by chunk ID ascending
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
