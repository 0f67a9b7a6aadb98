package anthropicclaude

import (
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Backends a request can be routed to.
const (
	backendAnthropic = "anthropic"
	backendBedrock   = "bedrock"
)

// newClient creates a new Anthropic client with the provided transport.
// The transport chain needs to handle authentication for the Anthropic API; Bedrock
// requests are signed by the bedrock request option.
func newClient(transport http.RoundTripper, opts ...option.RequestOption) (*anthropic.Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}

	httpClient := &http.Client{
		Transport: transport,
		// Client.Timeout = 0, upstream calls are bounded by the server's WriteTimeout
	}

	client := anthropic.NewClient(append([]option.RequestOption{
		option.WithHTTPClient(httpClient),
		// Exactly one attempt per request.
		option.WithMaxRetries(0),
		// Generous RequestTimeout bypasses SDK maxTokens checks - actual limit enforced by server WriteTimeout
		option.WithRequestTimeout(1 * time.Hour),
		// Credentials come from the transport chain, never from ANTHROPIC_* variables
		// picked up by the SDK defaults.
		option.WithHeaderDel("X-Api-Key"),
		option.WithHeaderDel("Authorization"),
	}, opts...)...)

	return &client, nil
}
