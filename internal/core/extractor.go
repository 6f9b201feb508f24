package core

import (
	"context"

	"github.com/markdave123-py/policyrag/internal/models"
)

// TextExtractor turns a document into text, choosing native extraction or OCR.
type TextExtractor interface {
	Extract(ctx context.Context, doc models.Document) (models.ExtractionResult, error)
}
