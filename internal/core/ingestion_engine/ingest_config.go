package ingestion_engine

import (
	"sync"
	"time"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/models"
)

// IngestConfig tunes the driver.
//
// SkipIngested: skip sources that already have rows instead of appending duplicates.
// QueueSize:    capacity of the background job queue (HTTP uploads).
// JobTTL:       how long a finished job stays queryable before it is evicted.
type IngestConfig struct {
	SkipIngested bool
	QueueSize    int
	JobTTL       time.Duration
}

// DocumentIngestor orchestrates extraction, page splitting, chunking,
// embedding and persistence:
//
// store:     persistence for chunk rows.
// source:    documents of a batch run (local dir or S3 prefix).
// extractor: native text or OCR fallback.
// embedder:  rate-limited embedding client shared by the whole process.
// chunker:   window size, overlap and noise floor.
// jobs:      in-memory queue of uploaded documents (single worker).
type DocumentIngestor struct {
	store     core.ChunkStore
	source    core.DocumentSource
	extractor core.TextExtractor
	embedder  core.Embedder
	chunker   *Chunker
	cfg       IngestConfig

	jobs chan queuedDocument

	mu     sync.RWMutex
	status map[string]*models.Job
	now    func() time.Time
}

type queuedDocument struct {
	jobID string
	doc   models.Document
}
