package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/policyrag/internal/models"
)

const maxUploadBytes = 52 << 20

// DocumentSubmitter is the part of the document service the handler needs.
type DocumentSubmitter interface {
	Submit(ctx context.Context, filename, contentType string, data []byte) (models.Job, error)
	Job(id string) (models.Job, bool)
}

type DocumentHandler struct {
	docs DocumentSubmitter
}

func NewDocumentHandler(docs DocumentSubmitter) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// UploadDocument accepts a multipart "file" and queues it for ingestion.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		http.Error(w, "only PDF documents are accepted", http.StatusUnsupportedMediaType)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	job, err := h.docs.Submit(ctx, header.Filename, contentType, data)
	if err != nil {
		log.Printf("DocumentHandler: submit %s failed: %v", header.Filename, err)
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// GetJob reports the ingestion status of an upload.
func (h *DocumentHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.docs.Job(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: encode response: %v", err)
	}
}
