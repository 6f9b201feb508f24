package services

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/core/ingestion_engine"
	"github.com/markdave123-py/policyrag/internal/models"
)

// DocumentService accepts uploaded PDFs, optionally archives them to object
// storage and hands them to the background ingestor.
type DocumentService struct {
	storage  core.ObjectClient // nil disables archiving
	bucket   string
	ingestor ingestion_engine.Ingestor
}

func NewDocumentService(storage core.ObjectClient, bucket string, ing ingestion_engine.Ingestor) *DocumentService {
	if bucket == "" {
		storage = nil
	}
	return &DocumentService{storage: storage, bucket: bucket, ingestor: ing}
}

// Submit queues one upload for ingestion and returns its job.
func (s *DocumentService) Submit(ctx context.Context, filename, contentType string, data []byte) (models.Job, error) {
	name := cleanFilename(filename)
	if name == "" {
		return models.Job{}, fmt.Errorf("empty file name")
	}

	if s.storage != nil {
		key := s.objectKey(uuid.NewString(), name)
		url, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType)
		if err != nil {
			return models.Job{}, fmt.Errorf("archive upload: %w", err)
		}
		log.Printf("DocumentService: archived %s to %s", name, url)
	}

	return s.ingestor.Enqueue(ctx, models.Document{Name: name, Data: data})
}

func (s *DocumentService) Job(id string) (models.Job, bool) {
	return s.ingestor.Status(id)
}

// objectKey creates a consistent S3 key layout.
func (s *DocumentService) objectKey(uploadID, filename string) string {
	return path.Join("uploads", uploadID, filename)
}

func cleanFilename(name string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" {
		return ""
	}
	return strings.ReplaceAll(name, " ", "_")
}
