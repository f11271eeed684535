package batch

import (
	"context"
)

// TextExtractor yields the text layer of one document.
//
//go:generate mockgen -destination=mocks/mock_extractor.go -source=interface.go TextExtractor
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}
