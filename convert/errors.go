package convert

import "errors"

var (
	// ErrNotFound indicates the input file does not exist.
	ErrNotFound = errors.New("input file not found")

	// ErrConversion indicates the file could not be parsed into segments.
	ErrConversion = errors.New("document conversion failed")
)
