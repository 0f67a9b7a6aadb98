package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/florianilch/claude3-provider/internal/openaiadapter"
)

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeJSONOpenAIError writes an OpenAI error object with the status conventional for its type.
func writeJSONOpenAIError(ctx context.Context, w http.ResponseWriter, errResp *openaiadapter.ErrorResponse) {
	writeJSONError(ctx, w, statusForErrorType(errResp.Err.Type), errResp)
}

// writeJSONError writes an OpenAI error object with an explicit status.
func writeJSONError(ctx context.Context, w http.ResponseWriter, status int, errResp *openaiadapter.ErrorResponse) {
	writeJSON(ctx, w, errResp, status)
}

// statusForErrorType maps OpenAI error types to HTTP status codes.
func statusForErrorType(errType string) int {
	switch errType {
	case "invalid_request_error":
		return http.StatusBadRequest
	case "authentication_error":
		return http.StatusUnauthorized
	case "permission_denied":
		return http.StatusForbidden
	case "not_found_error":
		return http.StatusNotFound
	case "rate_limit_error", "insufficient_quota":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
