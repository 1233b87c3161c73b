package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 fake content"))
	}))
	defer server.Close()

	dir := t.TempDir()
	d, err := NewDownloader(dir)
	require.NoError(t, err)

	result, err := d.DownloadAll(context.Background(), []Request{
		{URL: server.URL + "/doc.pdf", Filename: "doc.pdf", RowIndex: 2},
	})
	require.NoError(t, err)
	require.Len(t, result.Successful, 1)
	assert.Empty(t, result.Failed)

	dl := result.Successful[0]
	assert.Equal(t, filepath.Join(dir, "doc.pdf"), dl.Path)
	assert.EqualValues(t, 21, dl.Size)
	assert.NotEmpty(t, dl.Checksum)
	assert.False(t, dl.Skipped)
	assert.Equal(t, 2, dl.RowIndex)

	data, err := os.ReadFile(dl.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake content", string(data))
}

func TestDownloadSkipsExistingFile(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("remote content"))
	}))
	defer server.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.pdf"), []byte("local content"), 0o644))

	d, err := NewDownloader(dir)
	require.NoError(t, err)

	result, err := d.DownloadAll(context.Background(), []Request{
		{URL: server.URL + "/existing.pdf", Filename: "existing.pdf"},
	})
	require.NoError(t, err)
	require.Len(t, result.Successful, 1)

	assert.True(t, result.Successful[0].Skipped)
	assert.Zero(t, hits.Load(), "server must not be contacted for an existing file")

	// The local file is untouched.
	data, err := os.ReadFile(filepath.Join(dir, "existing.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "local content", string(data))
}

func TestDownloadRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer server.Close()

	d, err := NewDownloader(t.TempDir(),
		WithMaxRetries(3),
		WithRetryBaseDelay(time.Millisecond))
	require.NoError(t, err)

	result, err := d.DownloadAll(context.Background(), []Request{
		{URL: server.URL + "/flaky.pdf", Filename: "flaky.pdf"},
	})
	require.NoError(t, err)
	require.Len(t, result.Successful, 1)
	assert.EqualValues(t, 3, hits.Load())
}

func TestDownloadFailureDoesNotAbortRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	d, err := NewDownloader(t.TempDir(),
		WithMaxRetries(1),
		WithRetryBaseDelay(time.Millisecond))
	require.NoError(t, err)

	result, err := d.DownloadAll(context.Background(), []Request{
		{URL: server.URL + "/missing.pdf", Filename: "missing.pdf"},
		{URL: server.URL + "/good.pdf", Filename: "good.pdf"},
	})
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "missing.pdf", result.Failed[0].Filename)
	require.Len(t, result.Successful, 1)
	assert.Equal(t, "good.pdf", result.Successful[0].Filename)
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("invalid attempts", func(t *testing.T) {
		err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := RetryWithBackoff(context.Background(), func() error {
			calls++
			return boom
		}, 3, time.Millisecond)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, func() error { return nil }, 3, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
