package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/models"
)

var _ core.TextExtractor = (*SmartExtractor)(nil)

// DefaultOCRThreshold is the native-text length (in characters) below which a
// PDF is treated as scanned. It is a heuristic knob, not a correctness bound.
const DefaultOCRThreshold = 300

// OCRRunner rasterizes and recognizes a PDF on disk.
type OCRRunner interface {
	Run(ctx context.Context, pdfPath string) (OCRResult, error)
}

// SmartExtractor prefers native PDF text and escalates to OCR when that text
// is implausibly short.
type SmartExtractor struct {
	native    func(r io.Reader) (string, error)
	ocr       OCRRunner
	threshold int
}

func NewSmartExtractor(ocr OCRRunner, threshold int) *SmartExtractor {
	if threshold <= 0 {
		threshold = DefaultOCRThreshold
	}
	return &SmartExtractor{native: docconvPDF, ocr: ocr, threshold: threshold}
}

func docconvPDF(r io.Reader) (string, error) {
	body, _, err := docconv.ConvertPDF(r)
	return body, err
}

func (e *SmartExtractor) Extract(ctx context.Context, doc models.Document) (models.ExtractionResult, error) {
	data, err := documentBytes(doc)
	if err != nil {
		return models.ExtractionResult{}, err
	}

	text, err := e.native(bytes.NewReader(data))
	if err != nil {
		// pdftotext commonly fails on image-only PDFs; let OCR have a go.
		log.Printf("Extractor: native extraction failed for %s, trying OCR: %v", doc.Name, err)
		text = ""
	}

	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n >= e.threshold {
		return models.ExtractionResult{Text: text}, nil
	}

	log.Printf("Extractor: %s has %d native characters (< %d), falling back to OCR", doc.Name, n, e.threshold)
	if e.ocr == nil {
		return models.ExtractionResult{}, fmt.Errorf("%w: %s needs OCR but no OCR engine is configured", core.ErrExtractionFailure, doc.Name)
	}

	path, cleanup, err := localPath(doc, data)
	if err != nil {
		return models.ExtractionResult{}, err
	}
	defer cleanup()

	res, err := e.ocr.Run(ctx, path)
	if err != nil {
		return models.ExtractionResult{}, err
	}
	return models.ExtractionResult{Text: res.Text, UsedOCR: true, PageCount: res.PageCount}, nil
}

func documentBytes(doc models.Document) ([]byte, error) {
	if doc.Data != nil || doc.Path == "" {
		return doc.Data, nil
	}
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.Path, err)
	}
	return data, nil
}

// localPath returns a filesystem path for the document, spooling in-memory
// documents (S3 objects, uploads) to a temp file the rasterizer can open.
func localPath(doc models.Document, data []byte) (string, func(), error) {
	if doc.Path != "" {
		return doc.Path, func() {}, nil
	}

	f, err := os.CreateTemp("", "policyrag-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("spool %s: %w", doc.Name, err)
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			log.Printf("Extractor: failed to remove spool file %s: %v", f.Name(), err)
		}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("spool %s: %w", doc.Name, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("spool %s: %w", doc.Name, err)
	}
	return f.Name(), cleanup, nil
}
