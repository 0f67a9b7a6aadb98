package anthropicclaude

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// invocation is one <invoke> element of a <function_calls> block.
type invocation struct {
	toolName   string
	parameters map[string]any
}

type functionCallsElement struct {
	XMLName xml.Name        `xml:"function_calls"`
	Invokes []invokeElement `xml:"invoke"`
}

type invokeElement struct {
	ToolName   string      `xml:"tool_name"`
	Parameters *xmlElement `xml:"parameters"`
}

// xmlElement is a generic element tree for free-form parameters.
type xmlElement struct {
	XMLName  xml.Name
	Text     string       `xml:",chardata"`
	Children []xmlElement `xml:",any"`
}

// extractFunctionCalls cuts the <function_calls> block out of generated text. Generation
// halts at the </function_calls> stop sequence, which is then missing from the text, so
// the block ends at the last </invoke> and is closed here.
func extractFunctionCalls(text string) (string, error) {
	start := strings.Index(text, functionCallsOpen)
	if start < 0 {
		return "", fmt.Errorf("no %s block", functionCallsOpen)
	}
	region := text[start:]
	if end := strings.Index(region, functionCallsClose); end >= 0 {
		region = region[:end]
	} else if end := strings.LastIndex(region, invokeClose); end >= 0 {
		region = region[:end+len(invokeClose)]
	} else {
		return "", fmt.Errorf("unterminated %s block", functionCallsOpen)
	}
	return region + functionCallsClose, nil
}

// parseFunctionCalls extracts and parses the invocations of a <function_calls> block.
// The result holds zero, one or many invocations in document order.
func parseFunctionCalls(text string) ([]invocation, error) {
	block, err := extractFunctionCalls(text)
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(strings.NewReader(block))
	// Models do not reliably escape parameter values.
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var root functionCallsElement
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("parse %s block: %w", functionCallsOpen, err)
	}

	invocations := make([]invocation, 0, len(root.Invokes))
	for i, invoke := range root.Invokes {
		name := strings.TrimSpace(invoke.ToolName)
		if name == "" {
			return nil, fmt.Errorf("invoke %d has no tool_name", i)
		}
		params := map[string]any{}
		if invoke.Parameters != nil {
			params = invoke.Parameters.childrenMap()
		}
		invocations = append(invocations, invocation{toolName: name, parameters: params})
	}
	return invocations, nil
}

// value returns the trimmed text of a leaf element and a map for an element with children.
func (e xmlElement) value() any {
	if len(e.Children) == 0 {
		return strings.TrimSpace(e.Text)
	}
	return e.childrenMap()
}

// childrenMap maps child names to values. A repeated name collects its values in a list.
func (e xmlElement) childrenMap() map[string]any {
	m := make(map[string]any, len(e.Children))
	for _, child := range e.Children {
		name := child.XMLName.Local
		v := child.value()
		existing, seen := m[name]
		if !seen {
			m[name] = v
			continue
		}
		if list, ok := existing.([]any); ok {
			m[name] = append(list, v)
		} else {
			m[name] = []any{existing, v}
		}
	}
	return m
}
