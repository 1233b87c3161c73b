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

package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/lexindex/ai"
)

// DefaultBatchSize is the number of texts submitted per provider call.
const DefaultBatchSize = 32

// Batcher embeds texts through an ai.Embedder in bounded batches.
// Splitting into batches is transparent: the output vectors line up
// with the input texts regardless of how many calls were made.
type Batcher struct {
	embedder  ai.Embedder
	batchSize int
	dimension int
	logger    *slog.Logger
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithBatchSize sets the maximum number of texts per provider call.
// Values below one fall back to the default.
func WithBatchSize(size int) Option {
	return func(b *Batcher) {
		if size > 0 {
			b.batchSize = size
		}
	}
}

// WithDimension sets the expected vector dimension. When positive,
// every returned vector is checked against it.
func WithDimension(dim int) Option {
	return func(b *Batcher) {
		b.dimension = dim
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Batcher) {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger.With("component", "embedding-batcher")
	}
}

// NewBatcher creates a Batcher over the given embedder.
func NewBatcher(embedder ai.Embedder, opts ...Option) *Batcher {
	b := &Batcher{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		logger:    slog.Default().With("component", "embedding-batcher"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EmbedAll embeds every text, preserving order. An empty input returns
// an empty result without touching the provider.
func (b *Batcher) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		batch := texts[start:end]

		batchVectors, err := b.embedder.EmbedTexts(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %v", ErrBackend, start, end, err)
		}
		if len(batchVectors) != len(batch) {
			return nil, fmt.Errorf("%w: expected %d vectors, got %d",
				ErrCountMismatch, len(batch), len(batchVectors))
		}

		for i, v := range batchVectors {
			if b.dimension > 0 && len(v) != b.dimension {
				return nil, fmt.Errorf("%w: text %d has dimension %d, expected %d",
					ErrDimensionMismatch, start+i, len(v), b.dimension)
			}
		}

		vectors = append(vectors, batchVectors...)
	}

	b.logger.Debug("embedded texts", "count", len(texts), "batch_size", b.batchSize)

	return vectors, nil
}

// VerifyDimension embeds a short probe text and checks the provider
// actually produces vectors of the configured dimension. Intended to
// run once at startup so a misconfigured model fails fast instead of
// corrupting the store.
func (b *Batcher) VerifyDimension(ctx context.Context) error {
	if b.dimension <= 0 {
		return nil
	}

	v, err := b.embedder.EmbedText(ctx, "dimension probe")
	if err != nil {
		return fmt.Errorf("%w: dimension probe: %v", ErrBackend, err)
	}
	if len(v) != b.dimension {
		return fmt.Errorf("%w: provider returned dimension %d, configured %d",
			ErrDimensionMismatch, len(v), b.dimension)
	}

	return nil
}
