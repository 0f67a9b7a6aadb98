// Package anthropicclaude adapts OpenAI chat completion requests to Claude 3 on the
// Anthropic API or AWS Bedrock, enabling OpenAI SDK clients to drive Claude without code
// changes.
//
// The adapter handles:
//
//   - Message transformation: system and developer messages become either a leading user
//     turn or part of the system prompt. Tool messages become user turns. The turn
//     sequence always starts with a user turn and never repeats a role, as required by
//     Anthropic's role alternation rules.
//
//   - Tool calling: two strategies share one pipeline. NativeToolCalling sends structured
//     tools and reads tool_use blocks. XMLPromptedToolCalling describes the tools in the
//     system prompt and parses <function_calls> blocks out of the generated text. The
//     XML convention has no call identifiers, so a tool call's id is its tool name.
//
//   - Responses: the completed upstream message is returned as a single
//     chat.completion.chunk, regardless of the request's stream flag.
//
// # Adapters
//
// CreateChatCompletionAdapter: OpenAI CreateChatCompletion → Anthropic Messages
package anthropicclaude
