package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexindex/ai/mock"
	"github.com/poiesic/lexindex/chunk"
	"github.com/poiesic/lexindex/convert"
	"github.com/poiesic/lexindex/core"
	"github.com/poiesic/lexindex/embedding"
	"github.com/poiesic/lexindex/storage/badger"
)

// converterFunc adapts a function to convert.Converter.
type converterFunc func(ctx context.Context, path string) (*convert.Converted, error)

func (f converterFunc) Convert(ctx context.Context, path string) (*convert.Converted, error) {
	return f(ctx, path)
}

// fakeConverter yields one segment per fake "page" keyed by path.
func fakeConverter(segments map[string][]convert.Segment) convert.Converter {
	return converterFunc(func(ctx context.Context, path string) (*convert.Converted, error) {
		segs, ok := segments[path]
		if !ok {
			return nil, convert.ErrNotFound
		}
		return &convert.Converted{Path: path, Segments: segs, Pages: len(segs)}, nil
	})
}

func newTestPipeline(t *testing.T, converter convert.Converter, opts ...Option) (*Pipeline, *badger.Store) {
	t.Helper()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	builder, err := chunk.NewBuilder(chunk.WithOverlap(0))
	require.NoError(t, err)

	batcher := embedding.NewBatcher(mock.NewMockEmbedder())

	pipeline, err := NewPipeline(converter, builder, batcher, store, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, store
}

func source(path string) Source {
	return Source{
		Path:         path,
		Filename:     path,
		SourceURL:    "https://example.gov.br/" + path,
		FileSize:     100,
		DownloadDate: time.Now().UTC(),
	}
}

func TestNewPipelineValidation(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	builder, err := chunk.NewBuilder()
	require.NoError(t, err)
	batcher := embedding.NewBatcher(mock.NewMockEmbedder())
	converter := fakeConverter(nil)

	_, err = NewPipeline(nil, builder, batcher, store)
	assert.ErrorIs(t, err, ErrConverterRequired)
	_, err = NewPipeline(converter, nil, batcher, store)
	assert.ErrorIs(t, err, ErrBuilderRequired)
	_, err = NewPipeline(converter, builder, nil, store)
	assert.ErrorIs(t, err, ErrBatcherRequired)
	_, err = NewPipeline(converter, builder, batcher, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestRunStoresDocumentsAndChunks(t *testing.T) {
	converter := fakeConverter(map[string][]convert.Segment{
		"a.pdf": {
			{Text: "Art. 1º Primeira disposição.", Pages: []int{1}},
			{Text: strings.Repeat("conteúdo extenso ", 80), Pages: []int{2}},
		},
		"b.pdf": {
			{Text: "Parágrafo único de outro documento.", Pages: []int{1}},
		},
	})

	pipeline, store := newTestPipeline(t, converter, WithPoolSize(2))

	summary, err := pipeline.Run(context.Background(), []Source{source("a.pdf"), source("b.pdf")})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	require.Len(t, summary.Results, 2)

	// Results keep input order regardless of worker scheduling.
	assert.Equal(t, "a.pdf", summary.Results[0].Filename)
	assert.Equal(t, "b.pdf", summary.Results[1].Filename)

	for _, r := range summary.Results {
		assert.Equal(t, core.StatusSuccess, r.Status)
		assert.NotZero(t, r.DocumentId)

		stored, err := store.GetChunks(context.Background(), r.DocumentId)
		require.NoError(t, err)
		require.Len(t, stored, len(r.Chunks))
		for _, c := range stored {
			assert.NotEmpty(t, c.Vector, "chunk persisted without embedding")
			assert.Equal(t, r.DocumentId, c.DocumentId)
		}
	}
}

func TestRunConversionFailureDoesNotAbort(t *testing.T) {
	converter := fakeConverter(map[string][]convert.Segment{
		"good.pdf": {{Text: "Texto válido.", Pages: []int{1}}},
	})

	pipeline, _ := newTestPipeline(t, converter)

	summary, err := pipeline.Run(context.Background(), []Source{
		source("broken.pdf"),
		source("good.pdf"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, core.StatusError, summary.Results[0].Status)
	assert.NotEmpty(t, summary.Results[0].Err)
	assert.Equal(t, core.StatusSuccess, summary.Results[1].Status)
}

func TestRunEmptyConversionIsSuccess(t *testing.T) {
	converter := fakeConverter(map[string][]convert.Segment{
		"blank.pdf": {},
	})

	pipeline, store := newTestPipeline(t, converter)

	summary, err := pipeline.Run(context.Background(), []Source{source("blank.pdf")})
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	r := summary.Results[0]
	assert.Equal(t, core.StatusSuccess, r.Status)
	assert.Empty(t, r.Chunks)
	assert.NotZero(t, r.DocumentId)

	// The document row exists even with zero chunks.
	doc, err := store.GetDocument(context.Background(), r.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, "blank.pdf", doc.Filename)
}

func TestRunEmbeddingFailure(t *testing.T) {
	converter := fakeConverter(map[string][]convert.Segment{
		"a.pdf": {{Text: "Texto.", Pages: []int{1}}},
	})

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	builder, err := chunk.NewBuilder()
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("backend down")
	}

	pipeline, err := NewPipeline(converter, builder, embedding.NewBatcher(embedder), store)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	summary, err := pipeline.Run(context.Background(), []Source{source("a.pdf")})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Results[0].Err, "backend")
}

func TestRunCanceledContext(t *testing.T) {
	converter := fakeConverter(map[string][]convert.Segment{})
	pipeline, _ := newTestPipeline(t, converter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Run(ctx, []Source{source("x.pdf")})
	assert.ErrorIs(t, err, context.Canceled)
}
