//go:generate go run ./types/generate.go

package openaiadapter

import (
	"context"
	"net/http"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

// Adapter defines the contract for transforming client requests to provider API calls.
//
// Type parameters allow the interface to express transformation contracts for different
// request/response shapes while maintaining compile-time type safety.
//
// Type parameters:
//   - TRequest:  Client-specific request structure
//   - TResponse: Client-specific response structure
type Adapter[TRequest, TResponse any] interface {
	// ProcessRequest transforms the client request, calls the provider API exactly once and
	// returns the transformed response. Implementations should remain stateless.
	ProcessRequest(ctx context.Context, clientReq TRequest, transport http.RoundTripper) (*TResponse, error)
}

// Type aliases for OpenAI-compatible chat completion operations.
// The provider call is not incremental, so the response is a single chunk.
// CreateChatCompletionAdapter is the concrete adapter interface for this operation.
type (
	CreateChatCompletionRequest = types.CreateChatCompletionRequest
	CreateChatCompletionChunk   = types.CreateChatCompletionStreamResponse

	CreateChatCompletionAdapter = Adapter[
		CreateChatCompletionRequest,
		CreateChatCompletionChunk,
	]
)

// Type aliases for OpenAI-compatible error responses.
type (
	Error         = types.Error
	ErrorResponse = types.ErrorResponse
)
