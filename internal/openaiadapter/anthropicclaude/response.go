package anthropicclaude

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

// mapResponse converts the completed upstream message into a single chat completion chunk.
// An upstream message without content yields a delta without content or tool calls.
func mapResponse(msg *anthropic.Message, strategy ToolCallingStrategy, now time.Time) (*types.CreateChatCompletionStreamResponse, error) {
	delta, err := strategy.DecodeResponse(msg)
	if err != nil {
		return nil, err
	}

	id := msg.ID
	if id == "" {
		id = newResponseID()
	}

	role := string(msg.Role)
	if role == "" {
		role = string(anthropic.MessageParamRoleAssistant)
	}

	return &types.CreateChatCompletionStreamResponse{
		Id:      id,
		Object:  types.ChatCompletionChunk,
		Created: now.Unix(),
		Model:   string(msg.Model),
		Choices: []types.CreateChatCompletionStreamResponseChoice{
			{
				Index: 0,
				Delta: types.ChatCompletionStreamResponseDelta{
					Content:   delta.content,
					ToolCalls: delta.toolCalls,
					Role:      &role,
				},
				FinishReason: strategy.FinishReason(msg.StopReason),
			},
		},
		Usage: toCompletionUsage(msg.Usage),
	}, nil
}

// newResponseID generates an OpenAI-compatible response ID (chatcmpl-<token>).
// Used as fallback when Anthropic doesn't provide an ID in the response.
func newResponseID() string {
	b := make([]byte, 24) // 24 bytes yields 32 URL-safe base64 characters
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	// Use RawURLEncoding to avoid '+', '/' and trailing '='
	token := base64.RawURLEncoding.EncodeToString(b)
	return "chatcmpl-" + token
}
