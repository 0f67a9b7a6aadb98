package anthropicclaude

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claude3-provider/internal/openaiadapter"
)

// Keys of the error body written for a failed upstream call, per mode.
const (
	nativeErrorKey = "error"
	xmlErrorKey    = "error from remote"
)

// RequestError reports an inbound request that cannot be mapped, such as malformed tool
// call arguments. It is surfaced to the client as invalid_request_error.
type RequestError struct {
	Msg string
	Err error
}

func newRequestError(msg string, err error) *RequestError {
	return &RequestError{Msg: msg, Err: err}
}

func (e *RequestError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// toUpstreamError converts a failed provider call into an UpstreamError carrying the
// provider's status code. Errors without a status (network, timeouts) get 500.
func toUpstreamError(err error, key string) *openaiadapter.UpstreamError {
	upstreamErr := &openaiadapter.UpstreamError{
		StatusCode: http.StatusInternalServerError,
		Key:        key,
		Message:    err.Error(),
		Err:        err,
	}

	// Non-streaming and failed stream setup: *anthropic.Error carries the HTTP status.
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		upstreamErr.StatusCode = apiErr.StatusCode
		if errorResp, parseErr := parseErrorResponseJSON(apiErr.RawJSON()); parseErr == nil && errorResp.Error.Message != "" {
			upstreamErr.Message = errorResp.Error.Message
		}
		return upstreamErr
	}

	// streamingErrorPrefix is the prefix used by the Anthropic SDK when wrapping streaming errors.
	const streamingErrorPrefix = "received error while streaming: "

	// Mid-stream errors: the SDK embeds the error event JSON in the error string.
	if jsonStr, ok := strings.CutPrefix(err.Error(), streamingErrorPrefix); ok {
		if errorResp, parseErr := parseErrorResponseJSON(jsonStr); parseErr == nil {
			upstreamErr.StatusCode = statusForAnthropicErrorType(errorResp.Error.Type)
			upstreamErr.Message = errorResp.Error.Message
		}
	}

	return upstreamErr
}

// parseErrorResponseJSON parses Anthropic error JSON into structured ErrorResponse.
// Shared by both non-streaming (RawJSON) and streaming (error string) error paths.
func parseErrorResponseJSON(jsonStr string) (*anthropic.ErrorResponse, error) {
	var errorResp anthropic.ErrorResponse
	if err := json.Unmarshal([]byte(jsonStr), &errorResp); err != nil {
		return nil, fmt.Errorf("failed to parse Anthropic error JSON: %w", err)
	}
	return &errorResp, nil
}

// statusForAnthropicErrorType returns the HTTP status Anthropic documents for an error type.
func statusForAnthropicErrorType(anthropicType string) int {
	switch anthropicType {
	case "invalid_request_error":
		return http.StatusBadRequest
	case "authentication_error":
		return http.StatusUnauthorized
	case "billing_error":
		return http.StatusPaymentRequired
	case "permission_error":
		return http.StatusForbidden
	case "not_found_error":
		return http.StatusNotFound
	case "request_too_large":
		return http.StatusRequestEntityTooLarge
	case "rate_limit_error":
		return http.StatusTooManyRequests
	case "timeout_error":
		return http.StatusGatewayTimeout
	case "overloaded_error":
		return 529
	default:
		return http.StatusInternalServerError
	}
}
