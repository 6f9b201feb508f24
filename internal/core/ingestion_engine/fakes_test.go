package ingestion_engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/models"
)

type fakeStore struct {
	mu        sync.Mutex
	rows      []models.ChunkRecord
	ingested  map[string]bool
	insertErr error
	schemaErr error
	pingErr   error
	schemaOK  int
}

func (s *fakeStore) EnsureSchema(ctx context.Context) error {
	if s.schemaErr != nil {
		return s.schemaErr
	}
	s.schemaOK++
	return nil
}

func (s *fakeStore) InsertChunk(ctx context.Context, rec models.ChunkRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	rec.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, rec)
	return rec.ID, nil
}

func (s *fakeStore) SearchChunks(ctx context.Context, q []float32, k int) ([]models.SearchHit, error) {
	return nil, nil
}

func (s *fakeStore) SourceIngested(ctx context.Context, source string) (bool, error) {
	return s.ingested[source], nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return s.pingErr }
func (s *fakeStore) Close() error                   { return nil }

func (s *fakeStore) snapshot() []models.ChunkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChunkRecord(nil), s.rows...)
}

type fakeSource struct {
	names []string
	texts map[string]string
	reads []string
}

func (s *fakeSource) List(ctx context.Context) ([]string, error) { return s.names, nil }

func (s *fakeSource) Read(ctx context.Context, name string) (models.Document, error) {
	s.reads = append(s.reads, name)
	text, ok := s.texts[name]
	if !ok {
		return models.Document{}, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	return models.Document{Name: name, Data: []byte(text)}, nil
}

// textExtractor returns the document bytes as native text.
type textExtractor struct{}

func (textExtractor) Extract(ctx context.Context, doc models.Document) (models.ExtractionResult, error) {
	return models.ExtractionResult{Text: string(doc.Data)}, nil
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls []string
	err   error
	dim   int
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, text)
	if e.err != nil {
		return nil, e.err
	}
	dim := e.dim
	if dim == 0 {
		dim = 3
	}
	vec := make([]float32, dim)
	vec[0] = float32(len(text))
	return vec, nil
}

var _ core.Embedder = (*fakeEmbedder)(nil)

// fakeRasterizer writes one empty PNG per page in the pdftoppm naming style.
// unpadded names ("page-10.png" < "page-2.png") make lexical order wrong.
type fakeRasterizer struct {
	pages    int
	unpadded bool
	err      error
	outDir   string
}

func (r *fakeRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) error {
	r.outDir = outDir
	if r.err != nil {
		return r.err
	}
	width := len(fmt.Sprint(r.pages))
	if r.unpadded {
		width = 0
	}
	for p := 1; p <= r.pages; p++ {
		name := fmt.Sprintf("page-%0*d.png", width, p)
		if err := os.WriteFile(filepath.Join(outDir, name), nil, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// fakeRecognizer maps page numbers to recognized text.
type fakeRecognizer struct {
	texts  map[int]string
	failOn int
	seen   []int
	closed bool
}

func (r *fakeRecognizer) Recognize(imagePath string) (string, error) {
	n, _ := pageNumberFromName(filepath.Base(imagePath))
	r.seen = append(r.seen, n)
	if n == r.failOn {
		return "", fmt.Errorf("tesseract: page %d unreadable", n)
	}
	return r.texts[n], nil
}

func (r *fakeRecognizer) Close() error {
	r.closed = true
	return nil
}

func (r *fakeRecognizer) factory() func() (Recognizer, error) {
	return func() (Recognizer, error) { return r, nil }
}
