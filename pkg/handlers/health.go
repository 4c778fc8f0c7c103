package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/config"
	"github.com/brickwise/brickwise-engine/pkg/llm"
)

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthResponse reports liveness and the classifier circuit state.
type HealthResponse struct {
	Status     string `json:"status"`
	Classifier string `json:"classifier,omitempty"`
}

// CircuitReporter exposes the state of an upstream circuit breaker.
type CircuitReporter interface {
	CircuitState() llm.CircuitState
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg        *config.Config
	classifier CircuitReporter
	logger     *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. classifier may be nil.
func NewHealthHandler(cfg *config.Config, classifier CircuitReporter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, classifier: classifier, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests.
// The service stays healthy while the classifier circuit is open: photos are
// still processed, with verification-failed parts.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{Status: "ok"}
	if h.classifier != nil {
		state := h.classifier.CircuitState()
		response.Classifier = state.String()
		if state != llm.CircuitClosed {
			response.Status = "degraded"
		}
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "brickwise-engine",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
