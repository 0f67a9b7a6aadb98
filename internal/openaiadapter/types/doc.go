// Package types provides OpenAI chat completion types for server-side request/response handling.
//
// This package uses oapi-codegen to generate types from a trimmed OpenAPI document (api.yaml)
// rather than using the openai-go SDK:
//
//  1. SERVER-SIDE vs CLIENT-SIDE: The openai-go SDK is designed for making outbound
//     API calls TO OpenAI. This adapter receives inbound requests FROM clients and
//     translates them TO Anthropic.
//
//  2. FIELD PATTERNS: Optional fields are plain Go pointers (*string, *Number), which work
//     naturally with json.NewDecoder.
//
//  3. UNIONS: Message content and content parts are raw JSON unions with As*/From*
//     accessors, so the adapter decides per role which variants it accepts.
//
// Only the subset of the schema the Claude 3 adapter consumes is modelled. Hand-written
// extensions live in types.go: Number, which also accepts numeric strings as sent by some
// clients, and content helpers. Regenerate types.gen.go with go generate ./internal/openaiadapter.
package types
