package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markdave123-py/policyrag/internal/models"
)

type stubStore struct{}

func (stubStore) EnsureSchema(ctx context.Context) error { return nil }
func (stubStore) InsertChunk(ctx context.Context, rec models.ChunkRecord) (int64, error) {
	return 1, nil
}
func (stubStore) SearchChunks(ctx context.Context, q []float32, k int) ([]models.SearchHit, error) {
	return []models.SearchHit{{ChunkRecord: models.ChunkRecord{ID: 1, Source: "a.pdf", Page: 1, Chunk: "c"}}}, nil
}
func (stubStore) SourceIngested(ctx context.Context, source string) (bool, error) { return false, nil }
func (stubStore) Ping(ctx context.Context) error                                  { return nil }
func (stubStore) Close() error                                                    { return nil }

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

type stubDocs struct{}

func (stubDocs) Submit(ctx context.Context, filename, contentType string, data []byte) (models.Job, error) {
	return models.Job{ID: "j"}, nil
}
func (stubDocs) Job(id string) (models.Job, bool) { return models.Job{}, false }

func TestRouter_Routes(t *testing.T) {
	r := NewRouter(stubStore{}, stubEmbedder{}, stubDocs{})

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodPost, "/api/search", `{"query":"leave"}`, http.StatusOK},
		{http.MethodGet, "/api/jobs/unknown", "", http.StatusNotFound},
		{http.MethodGet, "/api/search", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/login", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := NewRouter(stubStore{}, stubEmbedder{}, stubDocs{})

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
