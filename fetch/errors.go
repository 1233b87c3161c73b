package fetch

import "errors"

var (
	// ErrInvalidMaxAttempts indicates a non-positive retry count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrHTTPStatus indicates the server answered with a non-success status.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrDownload indicates a download failed after all retries.
	ErrDownload = errors.New("download failed")
)
