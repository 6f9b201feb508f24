package core

import (
	"context"

	"github.com/markdave123-py/policyrag/internal/models"
)

// ChunkStore abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type ChunkStore interface {
	EnsureSchema(ctx context.Context) error
	InsertChunk(ctx context.Context, rec models.ChunkRecord) (int64, error)
	SearchChunks(ctx context.Context, query []float32, k int) ([]models.SearchHit, error)
	SourceIngested(ctx context.Context, source string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// DocumentSource lists and reads the PDFs of an ingestion run.
// List returns names in processing order.
type DocumentSource interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) (models.Document, error)
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
}
