package anthropicclaude

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

// Mode selects how tools are exchanged with the model.
type Mode string

const (
	// ModeNative uses Anthropic's structured tools, tool_use and tool_result blocks.
	ModeNative Mode = "native"
	// ModeXML describes tools in the system prompt and exchanges calls as XML text.
	ModeXML Mode = "xml"
)

// ParseMode parses a configured tool calling mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNative, ModeXML:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown tool calling mode %q (want %q or %q)", s, ModeNative, ModeXML)
	}
}

// ToolCallingStrategy encapsulates everything that differs between the tool calling modes.
// The request and response mappers drive a strategy and share all remaining logic.
type ToolCallingStrategy interface {
	Mode() Mode

	// EncodeTools converts tool definitions into structured tools or system prompt text.
	// It is called for every request, also when no tools are given.
	EncodeTools(tools []types.ChatCompletionTool) (encodedTools, error)

	// EncodeSystem applies the text of a system or developer message.
	EncodeSystem(state *requestState, text string)

	// EncodeTurn converts a user, assistant or tool message. ok is false when the
	// message contributes no turn.
	EncodeTurn(msg types.ChatCompletionRequestMessage) (t turn, ok bool, err error)

	// DecodeResponse extracts content and tool calls from the completed message.
	DecodeResponse(msg *anthropic.Message) (responseDelta, error)

	FinishReason(stopReason anthropic.StopReason) *types.CreateChatCompletionStreamResponseChoiceFinishReason
	DefaultMaxTokens() int64
	StopSequences() []string
}

// encodedTools is the mode specific rendering of the request's tool definitions.
type encodedTools struct {
	tools        []anthropic.ToolUnionParam
	systemPrompt string
}

// requestState accumulates the upstream request while inbound messages are walked in order.
type requestState struct {
	system string
	turns  []turn
}

func (s *requestState) appendSystem(text string) {
	s.system += text + "\n"
}

// responseDelta is the decoded content of an upstream message.
type responseDelta struct {
	content   *string
	toolCalls []types.ChatCompletionMessageToolCallChunk
}

// toFinishReason maps Anthropic stop reasons to OpenAI finish reasons. Stop reasons
// without an OpenAI equivalent are passed through unchanged.
func toFinishReason(stopReason anthropic.StopReason, stopSequenceIsToolCall bool) *types.CreateChatCompletionStreamResponseChoiceFinishReason {
	var reason types.CreateChatCompletionStreamResponseChoiceFinishReason
	switch stopReason {
	case "":
		return nil
	case anthropic.StopReasonEndTurn:
		reason = types.CreateChatCompletionStreamResponseChoiceFinishReasonStop
	case anthropic.StopReasonStopSequence:
		// In XML mode the only stop sequence is the tool call terminator.
		if stopSequenceIsToolCall {
			reason = types.CreateChatCompletionStreamResponseChoiceFinishReasonToolCalls
		} else {
			reason = types.CreateChatCompletionStreamResponseChoiceFinishReasonStop
		}
	case anthropic.StopReasonMaxTokens:
		reason = types.CreateChatCompletionStreamResponseChoiceFinishReasonLength
	case anthropic.StopReasonToolUse:
		reason = types.CreateChatCompletionStreamResponseChoiceFinishReasonToolCalls
	default:
		reason = types.CreateChatCompletionStreamResponseChoiceFinishReason(stopReason)
	}
	return &reason
}
