package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/models"
)

const (
	defaultTopK = 5
	maxTopK     = 50
)

// SearchHandler serves nearest-neighbour retrieval over ingested chunks.
type SearchHandler struct {
	store    core.ChunkStore
	embedder core.Embedder
}

func NewSearchHandler(store core.ChunkStore, emb core.Embedder) *SearchHandler {
	return &SearchHandler{store: store, embedder: emb}
}

type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type SearchResponse struct {
	Query string             `json:"query"`
	Hits  []models.SearchHit `json:"hits"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.K <= 0 {
		req.K = defaultTopK
	}
	req.K = min(req.K, maxTopK)

	queryVec, err := h.embedder.Embed(ctx, req.Query)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, core.ErrRateLimitExhausted) {
			status = http.StatusTooManyRequests
		}
		http.Error(w, fmt.Sprintf("embedding failed: %v", err), status)
		return
	}

	hits, err := h.store.SearchChunks(ctx, queryVec, req.K)
	if err != nil {
		http.Error(w, fmt.Sprintf("search failed: %v", err), http.StatusInternalServerError)
		return
	}
	if hits == nil {
		hits = []models.SearchHit{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{Query: req.Query, Hits: hits})
}
