package anthropicclaude

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

// toCompletionUsage converts Anthropic usage to OpenAI CompletionUsage. Cache reads are
// reported as cached prompt tokens.
func toCompletionUsage(usage anthropic.Usage) *types.CompletionUsage {
	completionUsage := &types.CompletionUsage{
		PromptTokens:     int(usage.InputTokens),
		CompletionTokens: int(usage.OutputTokens),
		TotalTokens:      int(usage.InputTokens + usage.OutputTokens),
	}

	if usage.CacheReadInputTokens > 0 {
		cached := int(usage.CacheReadInputTokens)
		completionUsage.PromptTokensDetails = &struct {
			AudioTokens  *int `json:"audio_tokens,omitempty"`
			CachedTokens *int `json:"cached_tokens,omitempty"`
		}{
			CachedTokens: &cached,
		}
	}

	return completionUsage
}
