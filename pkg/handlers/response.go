package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// decodeJSON decodes the request body into dst, writing a 400 (or 413 for
// oversized bodies) on failure. It returns false when the caller should stop.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	status, code, message := http.StatusBadRequest, "invalid_request", "Invalid request body"
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status, code, message = http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large"
	}
	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
	return false
}

// writeServiceError maps a service error to a status code and error body.
// Input validation errors become 400s; anything unexpected is logged as a 500.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, apperrors.ErrNoImages):
		status, code = http.StatusBadRequest, "no_images"
	case errors.Is(err, apperrors.ErrNoParts):
		status, code = http.StatusBadRequest, "no_parts"
	case errors.Is(err, apperrors.ErrEmptyQuery):
		status, code = http.StatusBadRequest, "empty_query"
	case errors.Is(err, apperrors.ErrInvalidImage):
		status, code = http.StatusBadRequest, "invalid_image"
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "upstream_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "upstream_timeout"
	default:
		status, code = http.StatusInternalServerError, op+"_failed"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("operation", op), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.String("operation", op), zap.Error(err))
	}

	if err := ErrorResponse(w, status, code, err.Error()); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
