package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/models"
	"github.com/brickwise/brickwise-engine/pkg/services"
)

// FindBuildsRequest for POST /api/find_builds
type FindBuildsRequest struct {
	Parts              []models.OwnedPart `json:"parts"`
	MinMatchPercentage *float64           `json:"min_match_percentage,omitempty"`
	MinConfidence      *int               `json:"min_confidence,omitempty"`
}

// BuildsHandler ranks catalog sets against an owned inventory.
type BuildsHandler struct {
	matcher services.SetMatcher
	logger  *zap.Logger
}

// NewBuildsHandler creates a new builds handler.
func NewBuildsHandler(matcher services.SetMatcher, logger *zap.Logger) *BuildsHandler {
	return &BuildsHandler{
		matcher: matcher,
		logger:  logger,
	}
}

// RegisterRoutes registers the builds handler's routes on the given mux.
func (h *BuildsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/find_builds", h.FindBuilds)
}

// FindBuilds handles POST /api/find_builds
func (h *BuildsHandler) FindBuilds(w http.ResponseWriter, r *http.Request) {
	var req FindBuildsRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	if p := req.MinMatchPercentage; p != nil && (*p < 0 || *p > 100) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "min_match_percentage must be between 0 and 100"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if c := req.MinConfidence; c != nil && (*c < 0 || *c > 100) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "min_confidence must be between 0 and 100"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.matcher.FindBuilds(r.Context(), req.Parts, services.MatchOptions{
		MinMatchPercentage: req.MinMatchPercentage,
		MinConfidence:      req.MinConfidence,
	})
	if err != nil {
		writeServiceError(w, h.logger, "find_builds", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
