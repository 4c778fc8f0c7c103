package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/models"
	"github.com/brickwise/brickwise-engine/pkg/services"
)

// MergeInventoryRequest for POST /api/inventory/merge
type MergeInventoryRequest struct {
	// Inventory is the caller's current owned parts.
	Inventory []models.OwnedPart `json:"inventory"`
	// Parts are identified parts from an analyze_image response.
	Parts []models.VerifiedPart `json:"parts"`
	// IncludeUnidentified keeps parts without a part number, merged under a nil key.
	IncludeUnidentified bool `json:"include_unidentified,omitempty"`
}

// MergeInventoryResponse for POST /api/inventory/merge
type MergeInventoryResponse struct {
	Inventory     []models.OwnedPart `json:"inventory"`
	TotalQuantity int                `json:"total_quantity"`
}

// InventoryHandler merges identified parts into a caller-held inventory.
// The service stores nothing; the merged inventory is returned to the caller.
type InventoryHandler struct {
	logger *zap.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{logger: logger}
}

// RegisterRoutes registers the inventory handler's routes on the given mux.
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/inventory/merge", h.Merge)
}

// Merge handles POST /api/inventory/merge
func (h *InventoryHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeInventoryRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	inventory := services.NewInventory(req.Inventory)
	merged := inventory.Merge(services.OwnedPartsFromVerified(req.Parts, req.IncludeUnidentified))

	response := MergeInventoryResponse{
		Inventory:     merged,
		TotalQuantity: inventory.TotalQuantity(),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
