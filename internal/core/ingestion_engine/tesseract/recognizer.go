// Package tesseract binds the OCR pipeline to libtesseract through gosseract.
// It needs the leptonica and tesseract headers, so only the app wiring imports it.
package tesseract

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/markdave123-py/policyrag/internal/core/ingestion_engine"
)

var _ ingestion_engine.Recognizer = (*Recognizer)(nil)

// Recognizer wraps a gosseract client configured once per document.
type Recognizer struct {
	client *gosseract.Client
}

// NewFactory returns a constructor for recognizers sharing the same
// language packs.
func NewFactory(tessdataDir string, languages []string) func() (ingestion_engine.Recognizer, error) {
	return func() (ingestion_engine.Recognizer, error) {
		client := gosseract.NewClient()
		if tessdataDir != "" {
			if err := client.SetTessdataPrefix(tessdataDir); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("tessdata prefix: %w", err)
			}
		}
		if len(languages) > 0 {
			if err := client.SetLanguage(languages...); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("languages %v: %w", languages, err)
			}
		}
		return &Recognizer{client: client}, nil
	}
}

func (t *Recognizer) Recognize(imagePath string) (string, error) {
	if err := t.client.SetImage(imagePath); err != nil {
		return "", err
	}
	return t.client.Text()
}

func (t *Recognizer) Close() error {
	return t.client.Close()
}
