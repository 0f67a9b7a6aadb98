package anthropicclaude

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

// fromChatCompletionTools transforms OpenAI tools array to Anthropic format.
func fromChatCompletionTools(tools []types.ChatCompletionTool) ([]anthropic.ToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	anthropicTools := make([]anthropic.ToolUnionParam, 0, len(tools))
	for i, chatTool := range tools {
		params, err := chatTool.Function.Parameters.WithDefaults()
		if err != nil {
			return nil, newRequestError(fmt.Sprintf("tools[%d]: invalid parameters", i), err)
		}

		description := ""
		if chatTool.Function.Description != nil {
			description = *chatTool.Function.Description
		}

		toolParam := anthropic.ToolParam{
			Name:        chatTool.Function.Name,
			Description: anthropic.String(description),
			InputSchema: anthropic.ToolInputSchemaParam{},
		}

		// Transform schema format: OpenAI uses flat JSON Schema object, Anthropic separates
		// properties/required into distinct fields with remaining fields in ExtraFields.
		if props, ok := params["properties"]; ok {
			toolParam.InputSchema.Properties = props
		}

		if req, ok := params["required"].([]any); ok {
			var required []string
			for _, r := range req {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
			toolParam.InputSchema.Required = required
		}

		// Preserve schema fields without dedicated Anthropic struct fields (e.g., additionalProperties).
		var extraFields map[string]any
		for key, value := range params {
			if key != "type" && key != "properties" && key != "required" {
				if extraFields == nil {
					extraFields = make(map[string]any)
				}
				extraFields[key] = value
			}
		}
		toolParam.InputSchema.ExtraFields = extraFields

		anthropicTools = append(anthropicTools, anthropic.ToolUnionParam{
			OfTool: &toolParam,
		})
	}

	return anthropicTools, nil
}

// parseToolCallArguments parses the JSON-encoded arguments of a tool call. The arguments
// must be a JSON object or null; null yields a nil map. Numbers keep their literal form.
func parseToolCallArguments(arguments string) (map[string]any, error) {
	if !json.Valid([]byte(arguments)) {
		return nil, newRequestError("tool call arguments are not valid JSON", nil)
	}

	dec := json.NewDecoder(strings.NewReader(arguments))
	dec.UseNumber()

	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, newRequestError("tool call arguments must be a JSON object", err)
	}
	return args, nil
}

// compactArguments returns the JSON-encoded tool input, "{}" when empty.
func compactArguments(input json.RawMessage) string {
	if len(bytes.TrimSpace(input)) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, input); err != nil {
		return string(input)
	}
	return buf.String()
}

// newToolCallChunk builds an OpenAI tool call at the given position of the delta.
func newToolCallChunk(index int, id, name, arguments string) types.ChatCompletionMessageToolCallChunk {
	toolType := types.ChatCompletionMessageToolCallTypeFunction
	return types.ChatCompletionMessageToolCallChunk{
		Index: index,
		Id:    &id,
		Type:  &toolType,
		Function: &types.ChatCompletionMessageToolCallChunkFunction{
			Name:      &name,
			Arguments: &arguments,
		},
	}
}

// newToolCallID generates an OpenAI-style tool call ID (format: call_<8-char-uuid>).
func newToolCallID() string {
	return fmt.Sprintf("call_%s", uuid.New().String()[:8])
}
