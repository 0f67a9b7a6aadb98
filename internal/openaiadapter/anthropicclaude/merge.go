package anthropicclaude

import (
	"slices"

	"github.com/anthropics/anthropic-sdk-go"
)

// placeholderUserText is the content of the synthetic user turn that keeps the
// conversation starting with a user turn.
const placeholderUserText = "."

// turn is one upstream message before dispatch.
type turn struct {
	role    anthropic.MessageParamRole
	content turnContent
}

// turnContent is either plain text or a list of content blocks.
type turnContent struct {
	text     string
	blocks   []anthropic.ContentBlockParamUnion
	isBlocks bool
}

func textContent(text string) turnContent {
	return turnContent{text: text}
}

func blockContent(blocks ...anthropic.ContentBlockParamUnion) turnContent {
	return turnContent{blocks: blocks, isBlocks: true}
}

// asBlocks returns the content as blocks. Plain text becomes a single text block.
func (c turnContent) asBlocks() []anthropic.ContentBlockParamUnion {
	if c.isBlocks {
		return c.blocks
	}
	return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(c.text)}
}

// concat appends other to c. Two texts are joined as text; otherwise both sides are
// converted to blocks, dropping empty text since Anthropic rejects empty text blocks.
func (c turnContent) concat(other turnContent) turnContent {
	if !c.isBlocks && !other.isBlocks {
		return textContent(c.text + other.text)
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(c.blocks)+len(other.blocks)+2)
	for _, part := range []turnContent{c, other} {
		if !part.isBlocks && part.text == "" {
			continue
		}
		blocks = append(blocks, part.asBlocks()...)
	}
	return blockContent(blocks...)
}

// ensureLeadingUserTurn prepends a placeholder user turn unless the sequence already
// starts with one. This also covers sequences without any user turn.
func ensureLeadingUserTurn(turns []turn) []turn {
	if len(turns) > 0 && turns[0].role == anthropic.MessageParamRoleUser {
		return turns
	}
	placeholder := turn{role: anthropic.MessageParamRoleUser, content: textContent(placeholderUserText)}
	return slices.Insert(turns, 0, placeholder)
}

// mergeConsecutiveTurns folds runs of turns sharing a role into one turn, concatenating
// content in order. The first turn of a run keeps its other fields.
func mergeConsecutiveTurns(turns []turn) []turn {
	merged := make([]turn, 0, len(turns))
	for i := 0; i < len(turns); {
		current := turns[i]
		j := i + 1
		for ; j < len(turns) && turns[j].role == current.role; j++ {
			current.content = current.content.concat(turns[j].content)
		}
		merged = append(merged, current)
		i = j
	}
	return merged
}

// toMessageParams converts turns to SDK messages.
func toMessageParams(turns []turn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, anthropic.MessageParam{
			Role:    t.role,
			Content: t.content.asBlocks(),
		})
	}
	return messages
}
