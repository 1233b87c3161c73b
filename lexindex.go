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

// Package lexindex assembles the document index from its parts: a
// storage backend, an embedding provider and the chunking
// configuration. Open gives back a ready Index; the pipeline and
// searcher constructors wire the configured components together.
package lexindex

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/lexindex/ai"
	"github.com/poiesic/lexindex/ai/openai"
	"github.com/poiesic/lexindex/chunk"
	"github.com/poiesic/lexindex/config"
	"github.com/poiesic/lexindex/convert"
	"github.com/poiesic/lexindex/embedding"
	"github.com/poiesic/lexindex/ingestion"
	"github.com/poiesic/lexindex/search"
	"github.com/poiesic/lexindex/storage"
	"github.com/poiesic/lexindex/storage/badger"
	"github.com/poiesic/lexindex/storage/sqlite"
)

// Index bundles the configured store and embedder.
type Index struct {
	cfg      *config.AppConfig
	store    storage.DocumentStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// IndexOption configures an Index.
type IndexOption func(*indexOptions)

type indexOptions struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// WithEmbedder injects a pre-built embedder instead of constructing
// one from the configuration. Used by tests and embedding experiments.
func WithEmbedder(embedder ai.Embedder) IndexOption {
	return func(o *indexOptions) {
		o.embedder = embedder
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) IndexOption {
	return func(o *indexOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open builds an Index from the configuration: it opens the storage
// backend named by the config and connects the embedding provider.
func Open(cfg *config.AppConfig, opts ...IndexOption) (*Index, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &indexOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(ai.NewConfig(
			ai.WithHost(cfg.Embedding.Host),
			ai.WithModel(cfg.Embedding.Model),
			ai.WithToken(os.Getenv(cfg.Embedding.APIKeyEnv)),
			ai.WithDimension(cfg.Embedding.Dimension),
		), openai.WithLogger(options.logger))
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	return &Index{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		logger:   options.logger,
	}, nil
}

func openStore(cfg *config.AppConfig) (storage.DocumentStore, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return sqlite.OpenStore(cfg.Storage.Path)
	case "badger":
		return badger.OpenStore(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Close closes the storage backend.
func (ix *Index) Close() error {
	return ix.store.Close()
}

// Store exposes the configured document store.
func (ix *Index) Store() storage.DocumentStore {
	return ix.store
}

// Embedder exposes the configured embedder.
func (ix *Index) Embedder() ai.Embedder {
	return ix.embedder
}

// InitSchema prepares the storage backend. Idempotent.
func (ix *Index) InitSchema(ctx context.Context) error {
	return ix.store.InitSchema(ctx)
}

// NewBatcher creates an embedding batcher with the configured batch
// size and dimension.
func (ix *Index) NewBatcher() *embedding.Batcher {
	return embedding.NewBatcher(ix.embedder,
		embedding.WithBatchSize(ix.cfg.Embedding.BatchSize),
		embedding.WithDimension(ix.cfg.Embedding.Dimension),
		embedding.WithLogger(ix.logger))
}

// NewPipeline creates an ingestion pipeline over the given converter,
// wiring in the configured chunking parameters, batcher and store.
func (ix *Index) NewPipeline(converter convert.Converter, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	builder, err := chunk.NewBuilder(
		chunk.WithMaxChunkSize(ix.cfg.Chunking.MaxChunkSize),
		chunk.WithOverlap(ix.cfg.Chunking.Overlap),
		chunk.WithPreserveStructure(ix.cfg.Chunking.PreserveStructure),
		chunk.WithCitationMarkers(ix.cfg.Chunking.CitationMarkers),
		chunk.WithLogger(ix.logger))
	if err != nil {
		return nil, err
	}

	return ingestion.NewPipeline(converter, builder, ix.NewBatcher(), ix.store, opts...)
}

// NewSearcher creates a searcher over the index.
func (ix *Index) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(ix.store, ix.embedder, opts...)
}
