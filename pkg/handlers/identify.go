package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/services"
)

// AnalyzeImageRequest for POST /api/analyze_image
type AnalyzeImageRequest struct {
	// Images are data URIs or bare base64 payloads.
	Images []string `json:"images"`
}

// IdentifyHandler runs photo batches through detection and verification.
type IdentifyHandler struct {
	identifier services.BatchIdentifier
	logger     *zap.Logger
}

// NewIdentifyHandler creates a new identify handler.
func NewIdentifyHandler(identifier services.BatchIdentifier, logger *zap.Logger) *IdentifyHandler {
	return &IdentifyHandler{
		identifier: identifier,
		logger:     logger,
	}
}

// RegisterRoutes registers the identify handler's routes on the given mux.
func (h *IdentifyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analyze_image", h.AnalyzeImage)
}

// AnalyzeImage handles POST /api/analyze_image.
// Undecodable photos are reported in failed_photos rather than failing the batch.
func (h *IdentifyHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeImageRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.identifier.IdentifyEncoded(r.Context(), req.Images)
	if err != nil {
		writeServiceError(w, h.logger, "analyze_image", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
