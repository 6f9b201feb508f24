package models

import (
	"time"
)

// Document is a source file read once per ingestion run.
type Document struct {
	Name string `json:"name"`
	Path string `json:"path"` // local filesystem path, empty for S3 objects and uploads
	Data []byte `json:"-"`
}

// ExtractionResult is the text pulled out of a document.
type ExtractionResult struct {
	Text      string `json:"text"`
	UsedOCR   bool   `json:"used_ocr"`
	PageCount int    `json:"page_count"` // only known when OCR ran
}

// PageRecord is one page of extracted text.
type PageRecord struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// Chunk is a bounded slice of page text, the unit sent for embedding.
type Chunk struct {
	Text  string `json:"text"`
	Index int    `json:"index"` // 0-based within its page
}

// ChunkRecord is one persisted row of rag_chunks.
type ChunkRecord struct {
	ID         int64     `db:"id" json:"id"`
	Source     string    `db:"source" json:"source"`
	Page       int       `db:"page" json:"page"`
	ChunkIndex int       `db:"chunk_index" json:"chunk_index"`
	Chunk      string    `db:"chunk" json:"chunk"`
	Embedding  []float32 `db:"embedding" json:"-"` // pgvector column
}

// SearchHit is a chunk returned by a nearest-neighbour query.
type SearchHit struct {
	ChunkRecord
	Distance float64 `json:"distance"`
}

// FileStats summarises the ingestion of a single document.
type FileStats struct {
	Source  string `json:"source"`
	UsedOCR bool   `json:"used_ocr"`
	Pages   int    `json:"pages"`
	Chunks  int    `json:"chunks"`
	Skipped bool   `json:"skipped"`
}

// RunStats summarises a whole ingestion run.
type RunStats struct {
	RunID     string        `json:"run_id"`
	Files     int           `json:"files"`
	Skipped   int           `json:"skipped"`
	OCRFiles  int           `json:"ocr_files"`
	Pages     int           `json:"pages"`
	Chunks    int           `json:"chunks"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Add folds a file's counters into the run totals.
func (s *RunStats) Add(f FileStats) {
	s.Files++
	if f.Skipped {
		s.Skipped++
		return
	}
	if f.UsedOCR {
		s.OCRFiles++
	}
	s.Pages += f.Pages
	s.Chunks += f.Chunks
}

// JobStatus values for background ingestion jobs.
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobReady      = "ready"
	JobFailed     = "failed"
)

// Job tracks a document submitted over HTTP.
type Job struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	Status    string    `json:"status"` // queued | processing | ready | failed
	Chunks    int       `json:"chunks"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
