package ingestion_engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/models"
)

// NewDocumentIngestor constructs the ingestor with a bounded job queue (64 by
// default). Finished jobs are kept for an hour unless cfg.JobTTL says otherwise.
// source may be nil when only the background worker is used.
func NewDocumentIngestor(
	store core.ChunkStore,
	source core.DocumentSource,
	extractor core.TextExtractor,
	embedder core.Embedder,
	chunker *Chunker,
	cfg IngestConfig,
) *DocumentIngestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	return &DocumentIngestor{
		store: store, source: source, extractor: extractor, embedder: embedder,
		chunker: chunker, cfg: cfg,
		jobs:   make(chan queuedDocument, cfg.QueueSize),
		status: make(map[string]*models.Job),
		now:    time.Now,
	}
}

// Run ingests every document of the source in listing order. The first
// failure aborts the run.
func (i *DocumentIngestor) Run(ctx context.Context) (models.RunStats, error) {
	stats := models.RunStats{RunID: uuid.NewString(), StartedAt: time.Now()}
	logStage(stats.RunID, "", core.StageIdle)

	if i.source == nil {
		return stats, &core.StageError{Stage: core.StageListing, Err: fmt.Errorf("%w: no document source", core.ErrConfiguration)}
	}

	logStage(stats.RunID, "", core.StageConnectingStore)
	if err := i.store.Ping(ctx); err != nil {
		return stats, &core.StageError{Stage: core.StageConnectingStore, Err: err}
	}
	if err := i.store.EnsureSchema(ctx); err != nil {
		return stats, &core.StageError{Stage: core.StageConnectingStore, Err: err}
	}
	logStage(stats.RunID, "", core.StageSchemaReady)

	logStage(stats.RunID, "", core.StageListing)
	names, err := i.source.List(ctx)
	if err != nil {
		return stats, &core.StageError{Stage: core.StageListing, Err: err}
	}
	if len(names) == 0 {
		log.Printf("DocumentIngestor: run %s found no PDFs, nothing to ingest", stats.RunID)
	}

	for _, name := range names {
		doc, err := i.source.Read(ctx, name)
		if err != nil {
			return stats, &core.StageError{Source: name, Stage: core.StageExtracting, Err: err}
		}
		fs, err := i.ingest(ctx, stats.RunID, doc)
		if err != nil {
			return stats, err
		}
		stats.Add(fs)
	}

	stats.Elapsed = time.Since(stats.StartedAt)
	logStage(stats.RunID, "", core.StageDone)
	log.Printf("DocumentIngestor: run %s done: %d files (%d skipped, %d via OCR), %d pages, %d chunks in %s",
		stats.RunID, stats.Files, stats.Skipped, stats.OCRFiles, stats.Pages, stats.Chunks, stats.Elapsed.Round(time.Millisecond))
	return stats, nil
}

// IngestDocument extracts, splits, chunks, embeds and persists one document.
func (i *DocumentIngestor) IngestDocument(ctx context.Context, doc models.Document) (models.FileStats, error) {
	return i.ingest(ctx, "", doc)
}

func (i *DocumentIngestor) ingest(ctx context.Context, runID string, doc models.Document) (models.FileStats, error) {
	fs := models.FileStats{Source: doc.Name}
	fail := func(stage core.Stage, err error) (models.FileStats, error) {
		log.Printf("DocumentIngestor: %s failed at %s: %v", doc.Name, stage, err)
		return fs, &core.StageError{Source: doc.Name, Stage: stage, Err: err}
	}

	if i.cfg.SkipIngested {
		done, err := i.store.SourceIngested(ctx, doc.Name)
		if err != nil {
			return fail(core.StageExtracting, fmt.Errorf("check existing rows: %w", err))
		}
		if done {
			log.Printf("DocumentIngestor: %s already ingested, skipping", doc.Name)
			fs.Skipped = true
			return fs, nil
		}
	}

	logStage(runID, doc.Name, core.StageExtracting)
	res, err := i.extractor.Extract(ctx, doc)
	if err != nil {
		return fail(core.StageExtracting, err)
	}
	fs.UsedOCR = res.UsedOCR

	logStage(runID, doc.Name, core.StageSplitting)
	pages := SplitByPages(res.Text)
	fs.Pages = len(pages)

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return fail(core.StageChunking, err)
		}
		logStage(runID, fmt.Sprintf("%s p.%d", doc.Name, page.Page), core.StageChunking)
		for _, ch := range i.chunker.Chunks(page.Content) {
			vec, err := i.embedder.Embed(ctx, ch.Text)
			if err != nil {
				return fail(core.StageEmbedding, fmt.Errorf("page %d chunk %d: %w", page.Page, ch.Index, err))
			}
			_, err = i.store.InsertChunk(ctx, models.ChunkRecord{
				Source:     doc.Name,
				Page:       page.Page,
				ChunkIndex: ch.Index,
				Chunk:      ch.Text,
				Embedding:  vec,
			})
			if err != nil {
				return fail(core.StagePersisting, fmt.Errorf("page %d chunk %d: %w", page.Page, ch.Index, err))
			}
			fs.Chunks++
		}
	}

	log.Printf("DocumentIngestor: %s -> %d pages, %d chunks (ocr=%t)", doc.Name, fs.Pages, fs.Chunks, fs.UsedOCR)
	return fs, nil
}

func logStage(runID, subject string, stage core.Stage) {
	switch {
	case runID == "" && subject == "":
		log.Printf("DocumentIngestor: stage=%s", stage)
	case runID == "":
		log.Printf("DocumentIngestor: %s stage=%s", subject, stage)
	case subject == "":
		log.Printf("DocumentIngestor: run %s stage=%s", runID, stage)
	default:
		log.Printf("DocumentIngestor: run %s %s stage=%s", runID, subject, stage)
	}
}
