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

package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexindex/chunk"
	"github.com/poiesic/lexindex/convert"
	"github.com/poiesic/lexindex/core"
	"github.com/poiesic/lexindex/embedding"
	"github.com/poiesic/lexindex/storage"
)

// DefaultDocumentTimeout bounds the processing of one document.
const DefaultDocumentTimeout = 5 * time.Minute

// Source describes one local file ready for ingestion, together with
// the provenance recorded about it.
type Source struct {
	Path         string
	Filename     string
	SourceURL    string
	FileSize     int64
	DownloadDate time.Time
	Metadata     map[string]string
}

// Summary totals the outcome of one ingestion run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Chunks    int
	Results   []*core.ProcessingResult
}

// Pipeline orchestrates document processing: conversion, chunking,
// embedding and storage, fanned out over a bounded worker pool.
type Pipeline struct {
	converter  convert.Converter
	builder    *chunk.Builder
	batcher    *embedding.Batcher
	store      storage.DocumentStore
	pool       *ants.Pool
	docTimeout time.Duration
	progress   *ProgressTracker
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		return nil
	}
}

// WithDocumentTimeout bounds how long one document may take before
// its processing is abandoned with an error result.
func WithDocumentTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout > 0 {
			p.docTimeout = timeout
		}
		return nil
	}
}

// WithProgress attaches a progress tracker; it is started and
// finished by Run.
func WithProgress(progress *ProgressTracker) Option {
	return func(p *Pipeline) error {
		p.progress = progress
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	converter convert.Converter,
	builder *chunk.Builder,
	batcher *embedding.Batcher,
	store storage.DocumentStore,
	opts ...Option,
) (*Pipeline, error) {
	if converter == nil {
		return nil, ErrConverterRequired
	}
	if builder == nil {
		return nil, ErrBuilderRequired
	}
	if batcher == nil {
		return nil, ErrBatcherRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		converter:  converter,
		builder:    builder,
		batcher:    batcher,
		store:      store,
		pool:       pool,
		docTimeout: DefaultDocumentTimeout,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Run processes every source and returns the summary. Results line up
// with the input: Results[i] is the outcome for sources[i]. Individual
// failures are collected, never propagated as Run's error; only a
// canceled context aborts the run early.
func (p *Pipeline) Run(ctx context.Context, sources []Source) (*Summary, error) {
	results := make([]*core.ProcessingResult, len(sources))

	if p.progress != nil {
		p.progress.Start()
	}

	var wg sync.WaitGroup
	for i := range sources {
		idx := i
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			results[idx] = p.processOne(ctx, sources[idx])
			if p.progress != nil {
				p.progress.Increment(1)
			}
		})
		if err != nil {
			wg.Done()
			results[idx] = errorResult(sources[idx], err)
		}
	}
	wg.Wait()

	if p.progress != nil {
		p.progress.Finish()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &Summary{
		Total:   len(sources),
		Results: results,
	}
	for _, r := range results {
		if r.Status == core.StatusSuccess {
			summary.Succeeded++
			summary.Chunks += len(r.Chunks)
		} else {
			summary.Failed++
		}
	}

	p.logger.Info("ingestion run finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"chunks", summary.Chunks)

	return summary, nil
}

// processOne takes a source through the full pipeline. Every failure
// path produces an error result; a conversion yielding no content is
// a success with zero chunks, and the document row is stored anyway
// so the file is not re-fetched on the next run.
func (p *Pipeline) processOne(ctx context.Context, source Source) *core.ProcessingResult {
	ctx, cancel := context.WithTimeout(ctx, p.docTimeout)
	defer cancel()

	converted, err := p.converter.Convert(ctx, source.Path)
	if err != nil {
		p.logger.Warn("conversion failed", "filename", source.Filename, "error", err)
		return errorResult(source, err)
	}

	chunks, err := p.builder.Build(0, converted.Segments)
	if err != nil {
		p.logger.Warn("chunking failed", "filename", source.Filename, "error", err)
		return errorResult(source, err)
	}

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}

		vectors, err := p.batcher.EmbedAll(ctx, texts)
		if err != nil {
			p.logger.Warn("embedding failed", "filename", source.Filename, "error", err)
			return errorResult(source, err)
		}

		for i, c := range chunks {
			c.Vector = vectors[i]
		}
	}

	doc := &core.Document{
		Filename:     source.Filename,
		SourceURL:    source.SourceURL,
		DownloadDate: source.DownloadDate,
		FileSize:     source.FileSize,
		DocumentType: "pdf",
		Metadata:     source.Metadata,
	}

	docID, err := p.store.StoreDocumentWithChunks(ctx, doc, chunks)
	if err != nil {
		p.logger.Warn("storing failed", "filename", source.Filename, "error", err)
		return errorResult(source, err)
	}

	p.logger.Debug("document ingested",
		"filename", source.Filename, "document_id", docID, "chunks", len(chunks))

	return &core.ProcessingResult{
		Filename:   source.Filename,
		SourceURL:  source.SourceURL,
		Status:     core.StatusSuccess,
		DocumentId: docID,
		Chunks:     chunks,
	}
}

func errorResult(source Source, err error) *core.ProcessingResult {
	return &core.ProcessingResult{
		Filename:  source.Filename,
		SourceURL: source.SourceURL,
		Status:    core.StatusError,
		Err:       err.Error(),
	}
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
