package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexindex/ai/mock"
	"github.com/poiesic/lexindex/core"
	"github.com/poiesic/lexindex/storage/badger"
)

type recordingMonitor struct {
	started   bool
	dimension int
	finished  bool
}

func (m *recordingMonitor) Start(_ string)              { m.started = true }
func (m *recordingMonitor) AfterQueryEmbedding(dim int) { m.dimension = dim }
func (m *recordingMonitor) Finish(_ []*core.SearchMatch) {
	m.finished = true
}

func TestNewSearcherValidation(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = NewSearcher(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewSearcher(store, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestFindSimilar(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	embedder := mock.NewMockEmbedder()
	ctx := context.Background()

	// Index a chunk whose vector matches the query's deterministic
	// mock embedding exactly.
	vector, err := embedder.EmbedText(ctx, "direitos sociais")
	require.NoError(t, err)

	_, err = store.StoreDocumentWithChunks(ctx, &core.Document{
		Filename:     "cf88.pdf",
		DownloadDate: time.Now().UTC(),
	}, []*core.Chunk{{
		Index:     0,
		Content:   "Art. 6º São direitos sociais a educação, a saúde...",
		Vector:    vector,
		CreatedAt: time.Now().UTC(),
	}})
	require.NoError(t, err)

	searcher, err := NewSearcher(store, embedder)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	matches, err := searcher.FindSimilarWithMonitor(ctx, "direitos sociais", 5, DefaultThreshold, monitor)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-5)
	assert.True(t, monitor.started)
	assert.True(t, monitor.finished)
	assert.Equal(t, len(vector), monitor.dimension)
}

func TestFindSimilarEmptyQuery(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	searcher, err := NewSearcher(store, mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), "   ", 5, DefaultThreshold)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}
