package manifest

import "errors"

var (
	// ErrOpenFailed indicates the workbook could not be opened.
	ErrOpenFailed = errors.New("failed to open manifest workbook")

	// ErrBadFormat indicates the workbook does not have the expected
	// column layout.
	ErrBadFormat = errors.New("manifest workbook has unexpected format")
)
