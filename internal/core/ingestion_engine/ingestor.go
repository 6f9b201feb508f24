package ingestion_engine

import (
	"context"

	"github.com/markdave123-py/policyrag/internal/models"
)

type Ingestor interface {
	Run(ctx context.Context) (models.RunStats, error)
	IngestDocument(ctx context.Context, doc models.Document) (models.FileStats, error)

	Start(ctx context.Context)
	Enqueue(ctx context.Context, doc models.Document) (models.Job, error)
	Status(jobID string) (models.Job, bool)
}

var _ Ingestor = (*DocumentIngestor)(nil)
