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

package fetch

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-crypt/x/blake2b"
)

const (
	// DefaultMaxRetries is the number of attempts per file.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is the backoff base; doubles per attempt.
	DefaultRetryBaseDelay = time.Second
)

// Request identifies one file to download.
type Request struct {
	URL      string
	Filename string
	RowIndex int               // Position in the source manifest, for reporting
	Metadata map[string]string // Provenance carried through to the stored document
}

// Download describes one file present on disk after a fetch run,
// whether downloaded just now or found already there.
type Download struct {
	URL      string
	Filename string
	Path     string
	Size     int64
	Checksum string // Hex BLAKE2b-256 of the file contents
	Skipped  bool   // True when the file already existed
	RowIndex int
	Metadata map[string]string
}

// Failure describes one file that could not be fetched.
type Failure struct {
	URL      string
	Filename string
	Err      string
}

// Result is the outcome of a fetch run.
type Result struct {
	Successful []*Download
	Failed     []*Failure
}

// Downloader fetches remote files into a local directory.
type Downloader struct {
	dir            string
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

// WithMaxRetries sets the number of attempts per file.
func WithMaxRetries(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.maxRetries = n
		}
	}
}

// WithRetryBaseDelay sets the backoff base delay.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(d *Downloader) {
		if delay > 0 {
			d.retryBaseDelay = delay
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger.With("component", "downloader")
	}
}

// NewDownloader creates a Downloader writing into dir, creating the
// directory if needed.
func NewDownloader(dir string, opts ...Option) (*Downloader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}

	d := &Downloader{
		dir:            dir,
		client:         &http.Client{Timeout: 2 * time.Minute},
		maxRetries:     DefaultMaxRetries,
		retryBaseDelay: DefaultRetryBaseDelay,
		logger:         slog.Default().With("component", "downloader"),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// DownloadAll fetches every requested file sequentially and reports
// the outcome per file. A failed file never aborts the run.
func (d *Downloader) DownloadAll(ctx context.Context, requests []Request) (*Result, error) {
	result := &Result{}

	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		download, err := d.downloadOne(ctx, req)
		if err != nil {
			d.logger.Warn("download failed", "url", req.URL, "filename", req.Filename, "error", err)
			result.Failed = append(result.Failed, &Failure{
				URL:      req.URL,
				Filename: req.Filename,
				Err:      err.Error(),
			})
			continue
		}

		result.Successful = append(result.Successful, download)
	}

	d.logger.Info("fetch run finished",
		"requested", len(requests),
		"successful", len(result.Successful),
		"failed", len(result.Failed))

	return result, nil
}

func (d *Downloader) downloadOne(ctx context.Context, req Request) (*Download, error) {
	path := filepath.Join(d.dir, req.Filename)

	// Resumability: a non-empty file on disk is trusted as complete.
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		checksum, err := checksumFile(path)
		if err != nil {
			return nil, err
		}
		d.logger.Debug("file already present, skipping", "filename", req.Filename)
		return &Download{
			URL:      req.URL,
			Filename: req.Filename,
			Path:     path,
			Size:     info.Size(),
			Checksum: checksum,
			Skipped:  true,
			RowIndex: req.RowIndex,
			Metadata: req.Metadata,
		}, nil
	}

	var download *Download
	err := RetryWithBackoff(ctx, func() error {
		var err error
		download, err = d.attempt(ctx, req, path)
		return err
	}, d.maxRetries, d.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrDownload, req.URL, d.maxRetries, err)
	}

	return download, nil
}

// attempt performs a single download into a temp file, renaming it
// into place only after the body is fully read. A partial download
// never lands under the final name.
func (d *Downloader) attempt(ctx context.Context, req Request, path string) (*Download, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d for %s", ErrHTTPStatus, resp.StatusCode, req.URL)
	}

	tmp, err := os.CreateTemp(d.dir, req.Filename+".partial-*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	hasher, _ := blake2b.New(32, nil)
	size, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, err
	}

	d.logger.Debug("downloaded file", "filename", req.Filename, "bytes", size)

	return &Download{
		URL:      req.URL,
		Filename: req.Filename,
		Path:     path,
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
		RowIndex: req.RowIndex,
		Metadata: req.Metadata,
	}, nil
}

// checksumFile computes the hex BLAKE2b-256 digest of a file.
func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher, _ := blake2b.New(32, nil)
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
