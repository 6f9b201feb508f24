package objectclient

import (
	"context"
	"fmt"
	"sort"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/models"
)

var _ core.DocumentSource = (*S3Source)(nil)

// S3Source reads the PDFs stored under a bucket prefix.
type S3Source struct {
	client core.ObjectClient
	bucket string
	prefix string
}

func NewS3Source(client core.ObjectClient, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: prefix}
}

// List returns the *.pdf keys under the prefix in lexical order.
func (s *S3Source) List(ctx context.Context) ([]string, error) {
	keys, err := s.client.ListKeys(ctx, s.bucket, s.prefix)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range keys {
		if isPDF(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *S3Source) Read(ctx context.Context, key string) (models.Document, error) {
	data, err := s.client.GetFile(ctx, s.bucket, key)
	if err != nil {
		return models.Document{}, fmt.Errorf("fetch s3://%s/%s: %w", s.bucket, key, err)
	}
	return models.Document{Name: key, Data: data}, nil
}
