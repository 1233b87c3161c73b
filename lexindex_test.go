package lexindex

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexindex/ai/mock"
	"github.com/poiesic/lexindex/config"
	"github.com/poiesic/lexindex/convert"
	"github.com/poiesic/lexindex/core"
	"github.com/poiesic/lexindex/ingestion"
	"github.com/poiesic/lexindex/search"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "index.db")
	return cfg
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "postgres"

	_, err := Open(cfg, WithEmbedder(mock.NewMockEmbedder()))
	require.Error(t, err)
}

func TestOpenSQLiteEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	embedder := mock.NewMockEmbedder()
	embedder.Dimension = cfg.Embedding.Dimension

	ix, err := Open(cfg, WithEmbedder(embedder))
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()
	require.NoError(t, ix.InitSchema(ctx))

	// Index one document through the assembled pipeline.
	converter := staticConverter{segments: []convert.Segment{
		{Text: "Art. 1º A lei entra em vigor na data de sua publicação.", Pages: []int{1}},
	}}
	pipeline, err := ix.NewPipeline(converter)
	require.NoError(t, err)
	defer pipeline.Release()

	summary, err := pipeline.Run(ctx, []ingestion.Source{{
		Path:         "vigencia.pdf",
		Filename:     "vigencia.pdf",
		SourceURL:    "https://example.gov.br/vigencia.pdf",
		FileSize:     42,
		DownloadDate: time.Now().UTC(),
	}})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)

	// And find it again through the assembled searcher.
	searcher, err := ix.NewSearcher()
	require.NoError(t, err)

	matches, err := searcher.FindSimilar(ctx,
		"Art. 1º A lei entra em vigor na data de sua publicação.", 5, search.DefaultThreshold)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Contains(t, matches[0].Content, "entra em vigor")
}

func TestOpenBadgerDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "badger"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "badger-data")

	ix, err := Open(cfg, WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()
	require.NoError(t, ix.InitSchema(ctx))

	id, err := ix.Store().StoreDocument(ctx, &core.Document{
		Filename:     "doc.pdf",
		DownloadDate: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotZero(t, id)
}

// staticConverter returns the same segments for every path.
type staticConverter struct {
	segments []convert.Segment
}

func (c staticConverter) Convert(ctx context.Context, path string) (*convert.Converted, error) {
	return &convert.Converted{Path: path, Segments: c.segments, Pages: 1}, nil
}
