package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/apperrors"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		message    string
	}{
		{"bad request", http.StatusBadRequest, "no_images", "no images provided"},
		{"not found", http.StatusNotFound, "not_found", "set not found"},
		{"unavailable", http.StatusServiceUnavailable, "upstream_unavailable", "classifier circuit open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			err := ErrorResponse(w, tt.statusCode, tt.errorCode, tt.message)
			if err != nil {
				t.Fatalf("ErrorResponse returned error: %v", err)
			}

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tt.statusCode {
				t.Errorf("status code = %d, want %d", resp.StatusCode, tt.statusCode)
			}

			ct := resp.Header.Get("Content-Type")
			if ct != "application/json" {
				t.Errorf("Content-Type = %q, want %q", ct, "application/json")
			}

			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}

			if body["error"] != tt.errorCode {
				t.Errorf("body[error] = %q, want %q", body["error"], tt.errorCode)
			}
			if body["message"] != tt.message {
				t.Errorf("body[message] = %q, want %q", body["message"], tt.message)
			}
		})
	}
}

func TestWriteJSON_Status200(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"key": "value"}

	err := WriteJSON(w, http.StatusOK, data)
	if err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	resp := w.Result()
	defer resp.Body.Close()

	// Status 200 is the default for ResponseRecorder, WriteJSON should not call WriteHeader
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body["key"] != "value" {
		t.Errorf("body[key] = %q, want %q", body["key"], "value")
	}
}

func TestWriteJSON_UnencodableData(t *testing.T) {
	w := httptest.NewRecorder()
	data := make(chan int) // channels cannot be JSON-encoded

	err := WriteJSON(w, http.StatusOK, data)
	if err == nil {
		t.Error("expected error for unencodable data, got nil")
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no images", apperrors.ErrNoImages, http.StatusBadRequest, "no_images"},
		{"no parts", apperrors.ErrNoParts, http.StatusBadRequest, "no_parts"},
		{"empty query", apperrors.ErrEmptyQuery, http.StatusBadRequest, "empty_query"},
		{"wrapped invalid image", fmt.Errorf("photo 0: %w", apperrors.ErrInvalidImage), http.StatusBadRequest, "invalid_image"},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"unavailable", apperrors.ErrUnavailable, http.StatusServiceUnavailable, "upstream_unavailable"},
		{"timeout", fmt.Errorf("catalog: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "upstream_timeout"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "find_builds_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeServiceError(w, zap.NewNop(), "find_builds", tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}
			if body["error"] != tt.wantCode {
				t.Errorf("body[error] = %q, want %q", body["error"], tt.wantCode)
			}
			if body["message"] != tt.err.Error() {
				t.Errorf("body[message] = %q, want %q", body["message"], tt.err.Error())
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Query string `json:"query"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"castle"}`))
	if !decodeJSON(httptest.NewRecorder(), r, &dst, zap.NewNop()) {
		t.Fatal("expected valid body to decode")
	}
	if dst.Query != "castle" {
		t.Errorf("Query = %q, want castle", dst.Query)
	}

	w := httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":`))
	if decodeJSON(w, r, &dst, zap.NewNop()) {
		t.Fatal("expected truncated body to fail")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"`+strings.Repeat("x", 100)+`"}`))
	r.Body = http.MaxBytesReader(w, r.Body, 16)
	if decodeJSON(w, r, &dst, zap.NewNop()) {
		t.Fatal("expected oversized body to fail")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}
