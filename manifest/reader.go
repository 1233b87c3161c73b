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

package manifest

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// urlColumn is the 1-based column holding document URLs (column G).
const urlColumn = 7

// Entry is one document listed in a manifest.
type Entry struct {
	URL      string
	Filename string
	RowIndex int               // 1-based workbook row
	Metadata map[string]string // Other columns keyed by column letter
}

// Reader extracts document entries from Excel manifests.
type Reader struct {
	logger *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "manifest-reader")
	}
}

// NewReader creates a manifest Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		logger: slog.Default().With("component", "manifest-reader"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read extracts the document entries from the workbook's active
// sheet. Rows without a usable http(s) URL in column G are skipped
// with a warning; they never fail the whole manifest.
func (r *Reader) Read(path string) ([]Entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}

	if maxColumns(rows) < urlColumn {
		return nil, fmt.Errorf("%w: expected at least %d columns (A-G)", ErrBadFormat, urlColumn)
	}

	var entries []Entry
	for i, row := range rows {
		rowIdx := i + 1

		url, err := r.cellURL(f, sheet, row, rowIdx)
		if err != nil {
			return nil, err
		}
		if url == "" {
			r.logger.Warn("row has no usable URL, skipping", "row", rowIdx)
			continue
		}

		entries = append(entries, Entry{
			URL:      url,
			Filename: filenameFromURL(url, rowIdx),
			RowIndex: rowIdx,
			Metadata: rowMetadata(row),
		})
	}

	r.logger.Info("manifest read", "path", path, "entries", len(entries))

	return entries, nil
}

// cellURL resolves the URL of a row: a hyperlink on the column G cell
// wins over the plain cell value. Returns "" when neither yields an
// http(s) URL.
func (r *Reader) cellURL(f *excelize.File, sheet string, row []string, rowIdx int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(urlColumn, rowIdx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadFormat, err)
	}

	hasLink, target, err := f.GetCellHyperLink(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadFormat, err)
	}

	url := ""
	if hasLink && target != "" {
		url = target
	} else if len(row) >= urlColumn {
		url = strings.TrimSpace(row[urlColumn-1])
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", nil
	}
	return url, nil
}

// filenameFromURL derives a local filename from the URL's last path
// segment, guaranteeing a .pdf extension.
func filenameFromURL(url string, rowIdx int) string {
	segment := url
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		segment = url[idx+1:]
	}
	if idx := strings.IndexAny(segment, "?#"); idx >= 0 {
		segment = segment[:idx]
	}
	if segment == "" {
		return fmt.Sprintf("document_%d.pdf", rowIdx)
	}
	if !strings.HasSuffix(strings.ToLower(segment), ".pdf") {
		segment += ".pdf"
	}
	return segment
}

// rowMetadata collects the non-URL columns keyed by column letter.
func rowMetadata(row []string) map[string]string {
	metadata := make(map[string]string)
	for colIdx, value := range row {
		if colIdx+1 == urlColumn {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		letter, err := excelize.ColumnNumberToName(colIdx + 1)
		if err != nil {
			continue
		}
		metadata[letter] = value
	}
	return metadata
}

func maxColumns(rows [][]string) int {
	max := 0
	for _, row := range rows {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}
