package anthropicclaude

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

// XMLPromptedToolCalling describes tools in the system prompt and exchanges tool calls and
// results as XML embedded in plain text, for backends without structured tool calling.
//
// The XML convention has no call identifiers. A decoded tool call uses the tool name as
// its id, so ids are not unique when the same tool is called twice.
type XMLPromptedToolCalling struct{}

var _ ToolCallingStrategy = XMLPromptedToolCalling{}

func (XMLPromptedToolCalling) Mode() Mode { return ModeXML }

func (XMLPromptedToolCalling) DefaultMaxTokens() int64 { return 4096 }

// StopSequences halts generation right after a tool call so the model cannot go on to
// invent its result.
func (XMLPromptedToolCalling) StopSequences() []string {
	return []string{functionCallsClose}
}

func (XMLPromptedToolCalling) EncodeTools(tools []types.ChatCompletionTool) (encodedTools, error) {
	if len(tools) == 0 {
		return encodedTools{}, nil
	}
	prompt, err := buildToolUseSystemPrompt(tools)
	if err != nil {
		return encodedTools{}, err
	}
	return encodedTools{systemPrompt: prompt + "\n"}, nil
}

func (XMLPromptedToolCalling) EncodeSystem(state *requestState, text string) {
	state.appendSystem(text)
}

func (XMLPromptedToolCalling) EncodeTurn(msg types.ChatCompletionRequestMessage) (turn, bool, error) {
	switch msg.Role {
	case types.ChatCompletionRoleUser:
		return userTurn(msg, false)

	case types.ChatCompletionRoleTool:
		if msg.Content.IsNull() {
			return turn{}, false, newRequestError("tool message requires a result or an error message", nil)
		}
		text, err := msg.Content.Text()
		if err != nil {
			return turn{}, false, newRequestError("invalid tool message content", err)
		}
		return turn{
			role:    anthropic.MessageParamRoleUser,
			content: textContent("\n" + buildFunctionResultsMessage(msg.ToolCallId, text, msg.IsError)),
		}, true, nil

	default:
		if len(msg.ToolCalls) == 0 {
			return assistantTextTurn(msg)
		}
		content, err := msg.Content.Text()
		if err != nil {
			return turn{}, false, newRequestError("invalid assistant message content", err)
		}
		text, err := buildFunctionCallsMessage(content, msg.ToolCalls)
		if err != nil {
			return turn{}, false, err
		}
		return turn{role: anthropic.MessageParamRoleAssistant, content: textContent("\n" + text)}, true, nil
	}
}

// DecodeResponse parses <function_calls> blocks out of text blocks. Text blocks without
// one pass through as content; the last such block wins. Content is null when the
// response contains tool calls.
func (XMLPromptedToolCalling) DecodeResponse(msg *anthropic.Message) (responseDelta, error) {
	var delta responseDelta
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}

		if !strings.Contains(block.Text, functionCallsOpen) {
			text := block.Text
			delta.content = &text
			continue
		}

		invocations, err := parseFunctionCalls(block.Text)
		if err != nil {
			return responseDelta{}, err
		}
		for _, inv := range invocations {
			arguments, err := json.Marshal(inv.parameters)
			if err != nil {
				return responseDelta{}, fmt.Errorf("encode parameters of %s: %w", inv.toolName, err)
			}
			delta.toolCalls = append(delta.toolCalls,
				newToolCallChunk(len(delta.toolCalls), inv.toolName, inv.toolName, string(arguments)))
		}
	}

	if len(delta.toolCalls) > 0 {
		delta.content = nil
	}
	return delta, nil
}

func (XMLPromptedToolCalling) FinishReason(stopReason anthropic.StopReason) *types.CreateChatCompletionStreamResponseChoiceFinishReason {
	return toFinishReason(stopReason, true)
}
