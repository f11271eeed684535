// Package pdftext pulls the text layer out of receipt files.
package pdftext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// Extractor reads the text of PDF receipts page by page. Plain-text files
// are returned as-is, which lets OCR output sit next to the PDFs.
type Extractor struct{}

// New creates an Extractor
func New() *Extractor {
	return &Extractor{}
}

// ExtractText returns the concatenated text of every page that has any,
// in page order, separated by newlines.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case ".pdf":
		return readPDF(ctx, path)
	default:
		return "", fmt.Errorf("unsupported document type %q", filepath.Ext(path))
	}
}

// readPDF converts panics from the parser into errors; malformed
// cross-reference tables are common in portal downloads.
func readPDF(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "open pdf %s", path)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.Wrapf(err, "page %d", i)
		}
		if strings.TrimSpace(content) != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n"), nil
}
