package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexindex/core"
	"github.com/poiesic/lexindex/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema(context.Background()))
	return store
}

func testDocument(filename string) *core.Document {
	return &core.Document{
		Filename:     filename,
		SourceURL:    "https://example.gov.br/" + filename,
		DownloadDate: time.Now().UTC(),
		FileSize:     2048,
		DocumentType: "pdf",
		Metadata:     map[string]string{"checksum": "deadbeef"},
	}
}

func testChunk(index int, content string, vector []float32) *core.Chunk {
	return &core.Chunk{
		Index:   index,
		Content: content,
		Pages:   []int{index + 1},
		Metadata: core.ChunkMetadata{
			WordCount: 2,
			CharCount: len(content),
		},
		Span:      core.Span{Start: index, End: index + 1},
		Vector:    vector,
		CreatedAt: time.Now().UTC(),
	}
}

func TestInitSchemaIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.StoreDocument(ctx, testDocument("a.pdf"))
	require.NoError(t, err)

	// Re-initializing must not drop existing data.
	require.NoError(t, store.InitSchema(ctx))

	doc, err := store.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", doc.Filename)
}

func TestDocumentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("cf88.pdf")
	id, err := store.StoreDocument(ctx, doc)
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := store.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, doc.SourceURL, got.SourceURL)
	assert.Equal(t, doc.FileSize, got.FileSize)
	assert.Equal(t, doc.Metadata, got.Metadata)
}

func TestGetDocumentNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDocument(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreDocumentWithChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []*core.Chunk{
		testChunk(0, "first chunk", []float32{1, 0}),
		testChunk(1, "second chunk", []float32{0, 1}),
	}

	id, err := store.StoreDocumentWithChunks(ctx, testDocument("lei.pdf"), chunks)
	require.NoError(t, err)

	for _, c := range chunks {
		assert.Equal(t, id, c.DocumentId)
		assert.NotZero(t, c.Id)
	}

	got, err := store.GetChunks(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first chunk", got[0].Content)
	assert.Equal(t, []float32{1, 0}, got[0].Vector)
	assert.Equal(t, []int{1}, got[0].Pages)
	assert.Equal(t, core.Span{Start: 1, End: 2}, got[1].Span)
}

func TestStoreChunksAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docID, err := store.StoreDocument(ctx, testDocument("dup.pdf"))
	require.NoError(t, err)

	// Duplicate (document, index) violates the unique constraint on
	// the second insert; the first insert must be rolled back with it.
	first := testChunk(0, "first", []float32{1, 0})
	first.DocumentId = docID
	duplicate := testChunk(0, "duplicate", []float32{0, 1})
	duplicate.DocumentId = docID

	require.Error(t, store.StoreChunks(ctx, first, duplicate))

	chunks, err := store.GetChunks(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestStoreChunksEmptyIsNoop(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.StoreChunks(context.Background()))
}

func TestSearchSimilarChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []*core.Chunk{
		testChunk(0, "aligned", []float32{1, 0}),
		testChunk(1, "orthogonal", []float32{0, 1}),
		testChunk(2, "mostly aligned", []float32{0.9, 0.1}),
	}
	_, err := store.StoreDocumentWithChunks(ctx, testDocument("search.pdf"), chunks)
	require.NoError(t, err)

	matches, err := store.SearchSimilarChunks(ctx, []float32{1, 0}, 2, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "aligned", matches[0].Content)
	assert.Equal(t, "mostly aligned", matches[1].Content)
	assert.GreaterOrEqual(t, matches[0].Similarity, matches[1].Similarity)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-5)
}

func TestSearchThresholdExcludes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.StoreDocumentWithChunks(ctx, testDocument("t.pdf"), []*core.Chunk{
		testChunk(0, "orthogonal", []float32{0, 1}),
	})
	require.NoError(t, err)

	matches, err := store.SearchSimilarChunks(ctx, []float32{1, 0}, 5, 0.5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchInvalidParameters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SearchSimilarChunks(ctx, []float32{1, 0}, 0, 0.5)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = store.SearchSimilarChunks(ctx, []float32{1, 0}, 5, -0.1)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = store.SearchSimilarChunks(ctx, []float32{1, 0}, 5, 1.01)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestOpenStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "index.db")

	store, err := OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.InitSchema(context.Background()))

	id, err := store.StoreDocument(context.Background(), testDocument("disk.pdf"))
	require.NoError(t, err)
	assert.NotZero(t, id)
}
