package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/models"
)

type fakeSubmitter struct {
	name string
	data []byte
	err  error
	jobs map[string]models.Job
}

func (f *fakeSubmitter) Submit(ctx context.Context, filename, contentType string, data []byte) (models.Job, error) {
	if f.err != nil {
		return models.Job{}, f.err
	}
	f.name, f.data = filename, data
	return models.Job{ID: "job-42", FileName: filename, Status: models.JobQueued}, nil
}

func (f *fakeSubmitter) Job(id string) (models.Job, bool) {
	j, ok := f.jobs[id]
	return j, ok
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadDocument_Accepted(t *testing.T) {
	sub := &fakeSubmitter{}
	h := NewDocumentHandler(sub)

	body, ct := multipartBody(t, "file", "leave.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.UploadDocument(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var job models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "job-42", job.ID)
	assert.Equal(t, models.JobQueued, job.Status)
	assert.Equal(t, "leave.pdf", sub.name)
	assert.Equal(t, []byte("%PDF-1.7"), sub.data)
}

func TestUploadDocument_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		want     int
	}{
		{"wrong field", "upload", "a.pdf", http.StatusBadRequest},
		{"not a pdf", "file", "a.docx", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.field, tt.filename, []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()

			NewDocumentHandler(&fakeSubmitter{}).UploadDocument(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", strings.NewReader("plain"))
	rec := httptest.NewRecorder()
	NewDocumentHandler(&fakeSubmitter{}).UploadDocument(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDocument_SubmitFailure(t *testing.T) {
	body, ct := multipartBody(t, "file", "a.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	NewDocumentHandler(&fakeSubmitter{err: errors.New("queue closed")}).UploadDocument(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetJob(t *testing.T) {
	sub := &fakeSubmitter{jobs: map[string]models.Job{
		"abc": {ID: "abc", FileName: "a.pdf", Status: models.JobReady, Chunks: 7},
	}}
	r := chi.NewRouter()
	r.Get("/api/jobs/{id}", NewDocumentHandler(sub).GetJob)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var job models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, models.JobReady, job.Status)
	assert.Equal(t, 7, job.Chunks)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeStore struct {
	hits    []models.SearchHit
	gotK    int
	gotVec  []float32
	pingErr error
}

func (s *fakeStore) EnsureSchema(ctx context.Context) error { return nil }
func (s *fakeStore) InsertChunk(ctx context.Context, rec models.ChunkRecord) (int64, error) {
	return 0, nil
}
func (s *fakeStore) SearchChunks(ctx context.Context, q []float32, k int) ([]models.SearchHit, error) {
	s.gotVec, s.gotK = q, k
	return s.hits, nil
}
func (s *fakeStore) SourceIngested(ctx context.Context, source string) (bool, error) {
	return false, nil
}
func (s *fakeStore) Ping(ctx context.Context) error { return s.pingErr }
func (s *fakeStore) Close() error                   { return nil }

type fakeEmbedder struct {
	err error
}

func (e fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 0, 1}, nil
}

func doSearch(t *testing.T, h *SearchHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	return rec
}

func TestSearch(t *testing.T) {
	store := &fakeStore{hits: []models.SearchHit{
		{ChunkRecord: models.ChunkRecord{ID: 1, Source: "leave.pdf", Page: 2, Chunk: "annual leave"}, Distance: 0.12},
	}}
	h := NewSearchHandler(store, fakeEmbedder{})

	rec := doSearch(t, h, `{"query":"  how much leave  "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "how much leave", resp.Query)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "leave.pdf", resp.Hits[0].Source)
	assert.InDelta(t, 0.12, resp.Hits[0].Distance, 1e-9)
	assert.Equal(t, defaultTopK, store.gotK)
	assert.Equal(t, float32(len("how much leave")), store.gotVec[0])

	doSearch(t, h, `{"query":"x","k":500}`)
	assert.Equal(t, maxTopK, store.gotK)
}

func TestSearch_BadRequests(t *testing.T) {
	h := NewSearchHandler(&fakeStore{}, fakeEmbedder{})
	assert.Equal(t, http.StatusBadRequest, doSearch(t, h, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, doSearch(t, h, `{"query":"   "}`).Code)
}

func TestSearch_EmbeddingErrors(t *testing.T) {
	exhausted := fmt.Errorf("embed: %w", core.ErrRateLimitExhausted)
	rec := doSearch(t, NewSearchHandler(&fakeStore{}, fakeEmbedder{err: exhausted}), `{"query":"q"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = doSearch(t, NewSearchHandler(&fakeStore{}, fakeEmbedder{err: core.ErrEmbeddingFailure}), `{"query":"q"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSearch_EmptyResultIsArray(t *testing.T) {
	rec := doSearch(t, NewSearchHandler(&fakeStore{}, fakeEmbedder{}), `{"query":"q"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hits":[]`)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(&fakeStore{}).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewHealthHandler(&fakeStore{pingErr: errors.New("down")}).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
