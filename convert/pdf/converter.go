package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/lexindex/convert"
)

// headingPatterns maps legal-document heading prefixes to their depth
// in the structural outline. Matched case-insensitively at the start
// of a paragraph.
var headingPatterns = []struct {
	re    *regexp.Regexp
	level int
}{
	{regexp.MustCompile(`(?i)^t[íi]tulo\s+[IVXLC\d]`), 0},
	{regexp.MustCompile(`(?i)^cap[íi]tulo\s+[IVXLC\d]`), 1},
	{regexp.MustCompile(`(?i)^se[çc][ãa]o\s+[IVXLC\d]`), 2},
}

var paragraphSplit = regexp.MustCompile(`\n\s*\n+`)

// Converter implements convert.Converter for PDF files.
type Converter struct {
	preserveStructure bool
	logger            *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithPreserveStructure enables heading detection: paragraphs matching
// a known heading pattern open a new section, and following segments
// carry that section title and hierarchy level.
func WithPreserveStructure(preserve bool) Option {
	return func(c *Converter) {
		c.preserveStructure = preserve
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "pdf-converter")
	}
}

// NewConverter creates a PDF converter.
//
// Returns the convert.Converter interface to enforce abstraction.
func NewConverter(opts ...Option) convert.Converter {
	c := &Converter{
		preserveStructure: true,
		logger:            slog.Default().With("component", "pdf-converter"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert parses the PDF at path into paragraph segments, one page at
// a time, attaching the page number to every segment from that page.
func (c *Converter) Convert(ctx context.Context, path string) (*convert.Converted, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", convert.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", convert.ErrConversion, path, err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", convert.ErrConversion, path, err)
	}
	defer f.Close()

	result := &convert.Converted{
		Path:  path,
		Pages: reader.NumPage(),
	}

	currentSection := ""
	currentLevel := 0

	for pageNo := 1; pageNo <= result.Pages; pageNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNo)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single malformed page poisons the whole conversion;
			// partial documents would break chunk provenance.
			return nil, fmt.Errorf("%w: %s page %d: %v", convert.ErrConversion, path, pageNo, err)
		}

		for _, para := range paragraphSplit.Split(text, -1) {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}

			if c.preserveStructure {
				if title, level, ok := matchHeading(para); ok {
					currentSection = title
					currentLevel = level
				}
			}

			result.Segments = append(result.Segments, convert.Segment{
				Text:           para,
				Pages:          []int{pageNo},
				SectionTitle:   currentSection,
				HierarchyLevel: currentLevel,
			})
		}
	}

	c.logger.Debug("converted document",
		"path", path, "pages", result.Pages, "segments", len(result.Segments))

	return result, nil
}

// matchHeading reports whether the paragraph opens a new section and,
// if so, returns the heading line and its hierarchy level.
func matchHeading(para string) (string, int, bool) {
	for _, hp := range headingPatterns {
		if hp.re.MatchString(para) {
			line := para
			if idx := strings.IndexByte(line, '\n'); idx >= 0 {
				line = line[:idx]
			}
			return strings.TrimSpace(line), hp.level, true
		}
	}
	return "", 0, false
}
