package anthropicclaude

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

// DefaultNativeSystemPrompt is the system prompt sent in native mode when system
// messages are moved into the conversation.
const DefaultNativeSystemPrompt = `You are task oriented system.
You receive input from a user, process the input from the given instructions, and then output the result.
Your objective is to provide consistent and correct results.
You do not need to explain the steps taken, only provide the result to the given instructions.
You are referred to as a tool.
You don't move to the next step until you have a result.`

// NativeToolCalling exchanges tools as Anthropic tools, tool_use and tool_result blocks.
type NativeToolCalling struct {
	// SystemAsUserTurn turns system messages into user turns instead of appending them
	// to the system prompt. Claude with tools may dismiss a first user turn it considers
	// unrelated to the conversation, which this avoids.
	SystemAsUserTurn bool
	// BaseSystemPrompt precedes any system text.
	BaseSystemPrompt string
}

var _ ToolCallingStrategy = NativeToolCalling{}

func (NativeToolCalling) Mode() Mode { return ModeNative }

func (NativeToolCalling) DefaultMaxTokens() int64 { return 1024 }

func (NativeToolCalling) StopSequences() []string { return nil }

func (n NativeToolCalling) EncodeTools(tools []types.ChatCompletionTool) (encodedTools, error) {
	anthropicTools, err := fromChatCompletionTools(tools)
	if err != nil {
		return encodedTools{}, err
	}
	encoded := encodedTools{tools: anthropicTools}
	if n.BaseSystemPrompt != "" {
		encoded.systemPrompt = n.BaseSystemPrompt + "\n"
	}
	return encoded, nil
}

func (n NativeToolCalling) EncodeSystem(state *requestState, text string) {
	if !n.SystemAsUserTurn {
		state.appendSystem(text)
		return
	}
	state.turns = append(state.turns, turn{
		role:    anthropic.MessageParamRoleUser,
		content: blockContent(anthropic.NewTextBlock(text)),
	})
}

func (n NativeToolCalling) EncodeTurn(msg types.ChatCompletionRequestMessage) (turn, bool, error) {
	switch msg.Role {
	case types.ChatCompletionRoleUser:
		return userTurn(msg, true)

	case types.ChatCompletionRoleTool:
		text, err := msg.Content.Text()
		if err != nil {
			return turn{}, false, newRequestError("invalid tool message content", err)
		}
		return turn{
			role:    anthropic.MessageParamRoleUser,
			content: blockContent(anthropic.NewToolResultBlock(msg.ToolCallId, text, msg.IsError)),
		}, true, nil

	default:
		if len(msg.ToolCalls) == 0 {
			return assistantTextTurn(msg)
		}

		// Text content is dropped, the turn carries the tool calls only.
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolCalls))
		for i, call := range msg.ToolCalls {
			args, err := parseToolCallArguments(call.Function.Arguments)
			if err != nil {
				return turn{}, false, fmt.Errorf("tool_calls[%d]: %w", i, err)
			}
			if args == nil {
				args = map[string]any{}
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(call.Id, args, call.Function.Name))
		}
		return turn{role: anthropic.MessageParamRoleAssistant, content: blockContent(blocks...)}, true, nil
	}
}

// DecodeResponse returns every tool_use block as a tool call when the model stopped to
// use tools, and the last text block otherwise.
func (NativeToolCalling) DecodeResponse(msg *anthropic.Message) (responseDelta, error) {
	var delta responseDelta

	if msg.StopReason == anthropic.StopReasonToolUse {
		for _, block := range msg.Content {
			if block.Type != "tool_use" {
				continue
			}
			// OpenAI clients require a tool call id; generate one if missing.
			toolCallID := block.ID
			if toolCallID == "" {
				toolCallID = newToolCallID()
			}
			delta.toolCalls = append(delta.toolCalls,
				newToolCallChunk(len(delta.toolCalls), toolCallID, block.Name, compactArguments(block.Input)))
		}
		return delta, nil
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			text := block.Text
			delta.content = &text
		}
	}
	return delta, nil
}

func (NativeToolCalling) FinishReason(stopReason anthropic.StopReason) *types.CreateChatCompletionStreamResponseChoiceFinishReason {
	return toFinishReason(stopReason, false)
}
