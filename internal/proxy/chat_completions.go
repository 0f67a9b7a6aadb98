package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/florianilch/claude3-provider/internal/observability/middleware"
	"github.com/florianilch/claude3-provider/internal/openaiadapter"
)

// ndjsonContentType is the media type of chat completion responses. The body is a
// single "data: " framed chunk, which OpenAI streaming clients and plain JSON-lines
// readers both accept.
const ndjsonContentType = "application/x-ndjson"

// CreateChatCompletionsHandler handles OpenAI-compatible chat completion requests.
type CreateChatCompletionsHandler struct {
	Adapter   openaiadapter.CreateChatCompletionAdapter
	Transport http.RoundTripper
}

// Compile-time check to ensure CreateChatCompletionsHandler implements http.Handler
var _ http.Handler = (*CreateChatCompletionsHandler)(nil)

// ServeHTTP decodes the request, runs it through the adapter and writes the single
// resulting chunk. The stream flag of the request does not change the response shape.
func (h *CreateChatCompletionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req openaiadapter.CreateChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			slog.WarnContext(ctx, "request exceeds size limit", "limit_bytes", maxBytesErr.Limit)
			writeJSONError(ctx, w, http.StatusRequestEntityTooLarge,
				openaiadapter.NewInvalidRequestError(http.StatusText(http.StatusRequestEntityTooLarge)))
			return
		}
		slog.WarnContext(ctx, "failed to decode request", "error", err)
		writeJSONError(ctx, w, http.StatusBadRequest,
			openaiadapter.NewInvalidRequestError("invalid request body: "+err.Error()))
		return
	}

	middleware.SetLogAttrs(ctx,
		slog.String("model", req.Model),
		slog.Int("messages", len(req.Messages)),
		slog.Int("tools", len(req.Tools)),
	)

	if ctx.Err() != nil {
		return
	}

	chunk, err := h.Adapter.ProcessRequest(ctx, req, h.Transport)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeChunk(ctx, w, chunk)
}

// writeError writes adapter errors. Upstream failures keep the upstream status and use
// the flat {key: message} body; request errors use the OpenAI error object.
func (h *CreateChatCompletionsHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var upstreamErr *openaiadapter.UpstreamError
	if errors.As(err, &upstreamErr) {
		slog.ErrorContext(ctx, "upstream request failed", "status", upstreamErr.Status(), "error", err)
		writeJSON(ctx, w, upstreamErr.Body(), upstreamErr.Status())
		return
	}

	var errResp *openaiadapter.ErrorResponse
	if errors.As(err, &errResp) {
		slog.WarnContext(ctx, "request rejected", "error", err)
		writeJSONOpenAIError(ctx, w, errResp)
		return
	}

	slog.ErrorContext(ctx, "request failed", "error", err)
	writeJSONOpenAIError(ctx, w, &openaiadapter.ErrorResponse{
		Err: openaiadapter.Error{
			Message: http.StatusText(http.StatusInternalServerError),
			Type:    "api_error",
		},
	})
}

// writeChunk writes the chunk as one "data: <json>\n\n" frame.
func writeChunk(ctx context.Context, w http.ResponseWriter, chunk *openaiadapter.CreateChatCompletionChunk) {
	payload, err := json.Marshal(chunk)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode chunk", "error", err)
		writeJSONOpenAIError(ctx, w, &openaiadapter.ErrorResponse{
			Err: openaiadapter.Error{
				Message: http.StatusText(http.StatusInternalServerError),
				Type:    "api_error",
			},
		})
		return
	}

	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)

	w.Header().Set("Content-Type", ndjsonContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(frame); err != nil {
		slog.ErrorContext(ctx, "failed to write chunk", "error", err)
	}
}
