package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/models"
)

// SetSearcher searches the catalog for sets by free text.
type SetSearcher interface {
	SearchSets(ctx context.Context, query string) ([]models.SetSearchResult, error)
}

// SearchSetsResponse for GET /api/search_sets
type SearchSetsResponse struct {
	Results []models.SetSearchResult `json:"results"`
}

// SetsHandler proxies set search to the catalog.
type SetsHandler struct {
	searcher SetSearcher
	logger   *zap.Logger
}

// NewSetsHandler creates a new sets handler.
func NewSetsHandler(searcher SetSearcher, logger *zap.Logger) *SetsHandler {
	return &SetsHandler{
		searcher: searcher,
		logger:   logger,
	}
}

// RegisterRoutes registers the sets handler's routes on the given mux.
func (h *SetsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search_sets", h.SearchSets)
}

// SearchSets handles GET /api/search_sets?query=
func (h *SetsHandler) SearchSets(w http.ResponseWriter, r *http.Request) {
	results, err := h.searcher.SearchSets(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeServiceError(w, h.logger, "search_sets", err)
		return
	}
	if results == nil {
		results = []models.SetSearchResult{}
	}

	if err := WriteJSON(w, http.StatusOK, SearchSetsResponse{Results: results}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
