package anthropicclaude

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

const (
	functionCallsOpen  = "<function_calls>"
	functionCallsClose = "</function_calls>"
	invokeClose        = "</invoke>"
)

// xmlEscaper escapes the characters that would end or open a tag in element text.
var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// buildToolUseSystemPrompt describes the tools and the calling convention to the model.
// Tools keep request order and parameters are sorted by name, so equal requests produce
// equal prompts.
func buildToolUseSystemPrompt(tools []types.ChatCompletionTool) (string, error) {
	descriptions := make([]string, 0, len(tools))
	for i, tool := range tools {
		description, err := formatToolDescription(tool.Function)
		if err != nil {
			return "", newRequestError(fmt.Sprintf("tools[%d]: invalid parameters", i), err)
		}
		descriptions = append(descriptions, description)
	}

	var sb strings.Builder
	sb.WriteString("In this environment you have access to a set of tools you can use to answer the user's question.\n")
	sb.WriteString("\n")
	sb.WriteString("You may call them like this:\n")
	sb.WriteString("<function_calls>\n")
	sb.WriteString("<invoke>\n")
	sb.WriteString("<tool_name>$TOOL_NAME</tool_name>\n")
	sb.WriteString("<parameters>\n")
	sb.WriteString("<$PARAMETER_NAME>$PARAMETER_VALUE</$PARAMETER_NAME>\n")
	sb.WriteString("...\n")
	sb.WriteString("</parameters>\n")
	sb.WriteString("</invoke>\n")
	sb.WriteString("</function_calls>\n")
	sb.WriteString("\n")
	sb.WriteString("Here are the tools available:\n")
	sb.WriteString("<tools>\n")
	sb.WriteString(strings.Join(descriptions, "\n"))
	sb.WriteString("\n</tools>")
	return sb.String(), nil
}

func formatToolDescription(fn types.FunctionObject) (string, error) {
	schema, err := fn.Parameters.WithDefaults()
	if err != nil {
		return "", err
	}

	description := ""
	if fn.Description != nil {
		description = *fn.Description
	}

	properties, _ := schema["properties"].(map[string]any)
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	slices.Sort(names)

	parameters := make([]string, 0, len(names))
	for _, name := range names {
		property, _ := properties[name].(map[string]any)
		paramDescription, _ := property["description"].(string)
		parameters = append(parameters, fmt.Sprintf(
			"<parameter>\n<name>%s</name>\n<type>%s</type>\n<description>%s</description>\n</parameter>",
			name, schemaTypeName(property["type"]), paramDescription))
	}

	return fmt.Sprintf(
		"<tool_description>\n<tool_name>%s</tool_name>\n<description>\n%s\n</description>\n<parameters>\n%s\n</parameters>\n</tool_description>",
		fn.Name, description, strings.Join(parameters, "\n")), nil
}

// schemaTypeName renders a JSON schema "type", which may be a list of types.
func schemaTypeName(t any) string {
	switch v := t.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		names := make([]string, 0, len(v))
		for _, name := range v {
			names = append(names, fmt.Sprint(name))
		}
		return strings.Join(names, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// buildFunctionCallsMessage renders an assistant message with tool calls as text followed
// by a <function_calls> block, one <invoke> per call.
func buildFunctionCallsMessage(content string, calls []types.ChatCompletionMessageToolCall) (string, error) {
	invokes := make([]string, 0, len(calls))
	for i, call := range calls {
		invoke, err := formatInvoke(call.Function)
		if err != nil {
			return "", fmt.Errorf("tool_calls[%d]: %w", i, err)
		}
		invokes = append(invokes, invoke)
	}
	return content + "\n\n" + functionCallsOpen + "\n" + strings.Join(invokes, "\n\n") + "\n" + functionCallsClose, nil
}

// formatInvoke renders one tool call. Arguments of "null" omit the <parameters> block.
func formatInvoke(fn types.ChatCompletionMessageToolCallFunction) (string, error) {
	args, err := parseToolCallArguments(fn.Arguments)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("<invoke>\n<tool_name>")
	sb.WriteString(xmlEscaper.Replace(fn.Name))
	sb.WriteString("</tool_name>\n")
	if args != nil {
		keys := make([]string, 0, len(args))
		for key := range args {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		sb.WriteString("<parameters>\n")
		for _, key := range keys {
			if !isXMLName(key) {
				return "", newRequestError(fmt.Sprintf("argument name %q is not a valid XML element name", key), nil)
			}
			value, err := formatParameterValue(args[key])
			if err != nil {
				return "", newRequestError(fmt.Sprintf("encode argument %q", key), err)
			}
			fmt.Fprintf(&sb, "<%s>%s</%s>\n", key, value, key)
		}
		sb.WriteString("</parameters>\n")
	}
	sb.WriteString("</invoke>")
	return sb.String(), nil
}

// isXMLName reports whether name can be used as an element name without a namespace:
// a letter or underscore followed by letters, digits, '_', '-' or '.'.
func isXMLName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r), r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// formatParameterValue renders strings as escaped text and any other value as JSON.
// encoding/json escapes <, > and & in its output, so JSON is safe as element text.
func formatParameterValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		return xmlEscaper.Replace(s), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// buildFunctionResultsMessage renders the result of a tool execution. A failed execution
// is reported as a <system> message instead of a result.
func buildFunctionResultsMessage(toolName, content string, failed bool) string {
	if failed {
		return "<function_results>\n<system>\n" + content + "\n</system>\n</function_results>"
	}
	return "<function_results>\n<result>\n<tool_name>" + toolName + "</tool_name>\n<stdout>\n" + content + "\n</stdout>\n</result>\n</function_results>"
}
