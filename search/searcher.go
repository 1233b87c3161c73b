package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/lexindex/ai"
	"github.com/poiesic/lexindex/core"
	"github.com/poiesic/lexindex/storage"
)

// DefaultThreshold is the minimum similarity for a chunk to count as
// a match when the caller does not specify one.
const DefaultThreshold float32 = 0.60

// Searcher provides semantic search over stored document chunks.
type Searcher struct {
	store    storage.DocumentStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store storage.DocumentStore, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for chunks similar to the query.
// Returns up to maxHits matches with similarity >= threshold, ranked
// by similarity descending.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int, threshold float32) ([]*core.SearchMatch, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, threshold, nil)
}

// FindSimilarWithMonitor searches with monitoring. The monitor
// receives callbacks at each stage of the search process.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, threshold float32, monitor SearchMonitor) ([]*core.SearchMatch, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(len(vector))

	matches, err := s.store.SearchSimilarChunks(ctx, vector, maxHits, threshold)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}

	monitor.Finish(matches)
	s.logger.Debug("search finished", "query", query, "matches", len(matches))

	return matches, nil
}
