package openaiadapter

import (
	"fmt"
	"net/http"
)

// UpstreamError reports a failed provider call. It is written to the client as a flat
// JSON object {Key: Message} with StatusCode, which is how the provider's error surfaces
// to OpenAI clients of this proxy.
type UpstreamError struct {
	StatusCode int
	Key        string
	Message    string
	// Err is the underlying provider error, if any.
	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap returns the underlying provider error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Body returns the JSON body written to the client.
func (e *UpstreamError) Body() map[string]string {
	return map[string]string{e.Key: e.Message}
}

// Status returns StatusCode, or 500 when the provider reported none.
func (e *UpstreamError) Status() int {
	if e.StatusCode < 400 || e.StatusCode > 599 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// NewInvalidRequestError returns an OpenAI invalid_request_error.
func NewInvalidRequestError(message string) *ErrorResponse {
	return &ErrorResponse{
		Err: Error{
			Message: message,
			Type:    "invalid_request_error",
		},
	}
}
