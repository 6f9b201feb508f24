package ingestion_engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/markdave123-py/policyrag/internal/core"
)

// OCRResult is the stitched text of every page, each preceded by a page marker.
type OCRResult struct {
	Text      string
	PageCount int
}

// Rasterizer renders every page of a PDF as a PNG inside outDir.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) error
}

// Recognizer turns one page image into text. It must be closed.
type Recognizer interface {
	Recognize(imagePath string) (string, error)
	Close() error
}

// OCRPipeline rasterizes a PDF into a scratch directory and recognizes the
// pages one by one.
type OCRPipeline struct {
	rasterizer    Rasterizer
	newRecognizer func() (Recognizer, error)
	dpi           int
}

func NewOCRPipeline(r Rasterizer, newRecognizer func() (Recognizer, error), dpi int) *OCRPipeline {
	if dpi <= 0 {
		dpi = 300
	}
	return &OCRPipeline{rasterizer: r, newRecognizer: newRecognizer, dpi: dpi}
}

func (p *OCRPipeline) Run(ctx context.Context, pdfPath string) (OCRResult, error) {
	workDir, err := os.MkdirTemp("", "policyrag-ocr-*")
	if err != nil {
		return OCRResult{}, fmt.Errorf("%w: create work dir: %v", core.ErrExtractionFailure, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Printf("OCR: failed to remove %s: %v", workDir, err)
		}
	}()

	if err := p.rasterizer.Rasterize(ctx, pdfPath, workDir, p.dpi); err != nil {
		return OCRResult{}, fmt.Errorf("%w: rasterize %s: %v", core.ErrExtractionFailure, filepath.Base(pdfPath), err)
	}

	pages, err := pageImages(workDir)
	if err != nil {
		return OCRResult{}, fmt.Errorf("%w: %v", core.ErrExtractionFailure, err)
	}
	if len(pages) == 0 {
		return OCRResult{}, fmt.Errorf("%w: rasterizer produced no pages for %s", core.ErrExtractionFailure, filepath.Base(pdfPath))
	}

	rec, err := p.newRecognizer()
	if err != nil {
		return OCRResult{}, fmt.Errorf("%w: start recognizer: %v", core.ErrExtractionFailure, err)
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Printf("OCR: failed to close recognizer: %v", err)
		}
	}()

	blocks := make([]string, 0, len(pages))
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return OCRResult{}, err
		}
		text, err := rec.Recognize(pg.path)
		if err != nil {
			return OCRResult{}, fmt.Errorf("%w: recognize page %d: %v", core.ErrExtractionFailure, pg.number, err)
		}
		blocks = append(blocks, pageMarker(pg.number)+"\n"+strings.TrimSpace(text))
	}

	log.Printf("OCR: recognized %d pages of %s", len(pages), filepath.Base(pdfPath))
	return OCRResult{Text: strings.Join(blocks, "\n\n"), PageCount: len(pages)}, nil
}

type pageImage struct {
	number int
	path   string
}

// pageImages lists the PNGs in dir ordered by the page number embedded in the
// file name (page-9.png before page-10.png).
func pageImages(dir string) ([]pageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list page images: %w", err)
	}

	var out []pageImage
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		n, ok := pageNumberFromName(e.Name())
		if !ok {
			continue
		}
		out = append(out, pageImage{number: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].number < out[b].number })
	return out, nil
}

// pageNumberFromName reads the trailing digits of the base name, e.g.
// "page-007.png" -> 7.
func pageNumberFromName(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	end := len(base)
	start := end
	for start > 0 && base[start-1] >= '0' && base[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(base[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
