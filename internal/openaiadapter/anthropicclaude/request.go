package anthropicclaude

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

// mapRequest converts an OpenAI chat completion request into Anthropic message params.
//
// Messages are walked in order. System and developer messages go to the strategy's
// system handling, all others become turns. The resulting turns start with a user turn
// and alternate roles.
func mapRequest(req *types.CreateChatCompletionRequest, strategy ToolCallingStrategy) (anthropic.MessageNewParams, error) {
	encoded, err := strategy.EncodeTools(req.Tools)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	state := &requestState{system: encoded.systemPrompt}
	for i, msg := range req.Messages {
		switch msg.Role {
		case types.ChatCompletionRoleSystem, types.ChatCompletionRoleDeveloper:
			text, err := msg.Content.Text()
			if err != nil {
				return anthropic.MessageNewParams{}, fmt.Errorf("messages[%d]: %w", i, newRequestError("invalid system message content", err))
			}
			strategy.EncodeSystem(state, text)

		default:
			t, ok, err := strategy.EncodeTurn(msg)
			if err != nil {
				return anthropic.MessageNewParams{}, fmt.Errorf("messages[%d]: %w", i, err)
			}
			if ok {
				state.turns = append(state.turns, t)
			}
		}
	}

	turns := mergeConsecutiveTurns(ensureLeadingUserTurn(state.turns))

	params := anthropic.MessageNewParams{
		Model:         anthropic.Model(req.Model),
		MaxTokens:     strategy.DefaultMaxTokens(),
		Messages:      toMessageParams(turns),
		Tools:         encoded.tools,
		StopSequences: strategy.StopSequences(),
	}
	if state.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: state.system}}
	}
	if req.MaxTokens != nil {
		params.MaxTokens = req.MaxTokens.Int()
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(req.Temperature.Float())
	}
	if req.TopK != nil {
		params.TopK = anthropic.Int(req.TopK.Int())
	}
	if req.TopP != nil {
		params.TopP = anthropic.Float(req.TopP.Float())
	}

	return params, nil
}

// userTurn maps a user message to a user turn. Null content is a caller error.
func userTurn(msg types.ChatCompletionRequestMessage, allowImages bool) (turn, bool, error) {
	if msg.Content.IsNull() {
		return turn{}, false, newRequestError("user message requires content", nil)
	}
	content, ok, err := fromMessageContent(msg.Content, allowImages)
	if err != nil || !ok {
		return turn{}, false, err
	}
	return turn{role: anthropic.MessageParamRoleUser, content: content}, true, nil
}

// assistantTextTurn maps an assistant message without tool calls verbatim. Messages with
// null content contribute no turn.
func assistantTextTurn(msg types.ChatCompletionRequestMessage) (turn, bool, error) {
	if msg.Content.IsNull() {
		return turn{}, false, nil
	}
	if msg.Content.IsString() {
		text, err := msg.Content.AsTextContent()
		if err != nil {
			return turn{}, false, newRequestError("invalid assistant message content", err)
		}
		return turn{role: anthropic.MessageParamRoleAssistant, content: textContent(text)}, true, nil
	}
	content, ok, err := fromMessageContent(msg.Content, false)
	if err != nil || !ok {
		return turn{}, false, err
	}
	return turn{role: anthropic.MessageParamRoleAssistant, content: content}, true, nil
}
