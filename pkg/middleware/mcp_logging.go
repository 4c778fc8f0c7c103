package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/logging"
)

// MCPRequestLogger returns middleware that logs MCP JSON-RPC tool calls at
// DEBUG level, with arguments summarized and JSON-RPC errors surfaced.
// Pass nil logger to disable logging.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// If no logger provided, pass through without logging
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				http.Error(w, "request body too large or unreadable", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			// Not every MCP message is a tool call; unparseable bodies still pass through.
			var rpcReq jsonRPCRequest
			_ = json.Unmarshal(bodyBytes, &rpcReq)

			fields := []zap.Field{
				zap.String("request_id", RequestID(r.Context())),
				zap.String("method", rpcReq.Method),
			}
			if rpcReq.Params.Name != "" {
				fields = append(fields, zap.String("tool", rpcReq.Params.Name))
			}
			logger.Debug("MCP request", append(fields, zap.Any("arguments", sanitizeArguments(rpcReq.Params.Arguments)))...)

			recorder := &mcpResponseRecorder{ResponseWriter: w, body: &bytes.Buffer{}}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			fields = append(fields, zap.Duration("duration", time.Since(start)))

			var rpcResp jsonRPCResponse
			if err := json.Unmarshal(recorder.body.Bytes(), &rpcResp); err != nil {
				// Streamed or empty responses are not JSON-RPC envelopes.
				logger.Debug("MCP response", fields...)
				return
			}
			if rpcResp.Error != nil {
				logger.Debug("MCP response error", append(fields,
					zap.Int("error_code", rpcResp.Error.Code),
					zap.String("error_message", logging.SanitizeText(rpcResp.Error.Message)))...)
				return
			}
			logger.Debug("MCP response success", fields...)
		})
	}
}

// jsonRPCRequest represents the structure of a JSON-RPC request for tools/call.
type jsonRPCRequest struct {
	Method string `json:"method"`
	Params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	} `json:"params"`
}

// jsonRPCResponse represents the structure of a JSON-RPC response.
type jsonRPCResponse struct {
	Result interface{}   `json:"result"`
	Error  *jsonRPCError `json:"error"`
}

// jsonRPCError represents an error in a JSON-RPC response.
type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// mcpResponseRecorder is a response writer that captures the response body.
type mcpResponseRecorder struct {
	http.ResponseWriter
	body *bytes.Buffer
}

// Write captures the response body and writes it to the underlying writer.
func (r *mcpResponseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// sanitizeArguments redacts sensitive fields and shrinks bulky values.
// Photos arrive as data URIs and part lists can run to hundreds of entries.
func sanitizeArguments(args map[string]interface{}) map[string]interface{} {
	if args == nil {
		return nil
	}

	sensitiveKeywords := []string{"password", "secret", "token", "key", "credential"}
	result := make(map[string]interface{}, len(args))

	for k, v := range args {
		lowerKey := strings.ToLower(k)
		isSensitive := false
		for _, keyword := range sensitiveKeywords {
			if strings.Contains(lowerKey, keyword) {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			result[k] = logging.RedactedText
			continue
		}
		result[k] = summarizeValue(v)
	}

	return result
}

func summarizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, "data:") {
			return fmt.Sprintf("[data uri, %d chars]", len(val))
		}
		return logging.TruncateString(val, logging.MaxBodyLogLength)
	case []interface{}:
		if len(val) > maxLoggedItems {
			return fmt.Sprintf("[%d items]", len(val))
		}
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = summarizeValue(item)
		}
		return out
	default:
		return v
	}
}

// maxLoggedItems is the longest argument list logged item by item.
const maxLoggedItems = 10
