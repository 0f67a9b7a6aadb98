package anthropicclaude

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

func decodeMessage(t *testing.T, body string) *anthropic.Message {
	t.Helper()
	var msg anthropic.Message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return &msg
}

// textMessage builds an upstream message with a single text block.
func textMessage(t *testing.T, text, stopReason string) *anthropic.Message {
	t.Helper()
	encoded, _ := json.Marshal(text)
	return decodeMessage(t, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-haiku-20240307",
		"content":[{"type":"text","text":`+string(encoded)+`}],"stop_reason":"`+stopReason+`",
		"usage":{"input_tokens":10,"output_tokens":5}}`)
}

func TestFinishReason(t *testing.T) {
	tests := []struct {
		stopReason anthropic.StopReason
		wantNative string
		wantXML    string
	}{
		{anthropic.StopReasonEndTurn, "stop", "stop"},
		{anthropic.StopReasonStopSequence, "stop", "tool_calls"},
		{anthropic.StopReasonMaxTokens, "length", "length"},
		{anthropic.StopReasonToolUse, "tool_calls", "tool_calls"},
		{"pause_turn", "pause_turn", "pause_turn"},
		{"refusal", "refusal", "refusal"},
	}

	for _, tt := range tests {
		t.Run(string(tt.stopReason), func(t *testing.T) {
			if got := nativeStrategy.FinishReason(tt.stopReason); got == nil || string(*got) != tt.wantNative {
				t.Errorf("native FinishReason(%q) = %v, want %q", tt.stopReason, got, tt.wantNative)
			}
			if got := xmlStrategy.FinishReason(tt.stopReason); got == nil || string(*got) != tt.wantXML {
				t.Errorf("xml FinishReason(%q) = %v, want %q", tt.stopReason, got, tt.wantXML)
			}
		})
	}

	if got := nativeStrategy.FinishReason(""); got != nil {
		t.Errorf("FinishReason(\"\") = %v, want nil", *got)
	}
}

func TestMapResponse_Envelope(t *testing.T) {
	now := time.Unix(1700000000, 0)

	chunk, err := mapResponse(textMessage(t, "Hello!", "end_turn"), nativeStrategy, now)
	if err != nil {
		t.Fatalf("mapResponse() error = %v", err)
	}

	if chunk.Id != "msg_1" {
		t.Errorf("Id = %q, want msg_1", chunk.Id)
	}
	if chunk.Object != types.ChatCompletionChunk {
		t.Errorf("Object = %q", chunk.Object)
	}
	if chunk.Created != now.Unix() {
		t.Errorf("Created = %d, want %d", chunk.Created, now.Unix())
	}
	if chunk.Model != "claude-3-haiku-20240307" {
		t.Errorf("Model = %q", chunk.Model)
	}
	if len(chunk.Choices) != 1 {
		t.Fatalf("got %d choices, want 1", len(chunk.Choices))
	}

	choice := chunk.Choices[0]
	if choice.Index != 0 {
		t.Errorf("Index = %d, want 0", choice.Index)
	}
	if choice.Delta.Role == nil || *choice.Delta.Role != "assistant" {
		t.Errorf("Role = %v, want assistant", choice.Delta.Role)
	}
	if choice.Delta.Content == nil || *choice.Delta.Content != "Hello!" {
		t.Errorf("Content = %v, want Hello!", choice.Delta.Content)
	}
	if choice.FinishReason == nil || *choice.FinishReason != types.CreateChatCompletionStreamResponseChoiceFinishReasonStop {
		t.Errorf("FinishReason = %v, want stop", choice.FinishReason)
	}

	if chunk.Usage == nil || chunk.Usage.PromptTokens != 10 || chunk.Usage.CompletionTokens != 5 || chunk.Usage.TotalTokens != 15 {
		t.Errorf("Usage = %+v", chunk.Usage)
	}
}

func TestMapResponse_GeneratedID(t *testing.T) {
	msg := decodeMessage(t, `{"type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{}}`)

	chunk, err := mapResponse(msg, nativeStrategy, time.Now())
	if err != nil {
		t.Fatalf("mapResponse() error = %v", err)
	}
	if !strings.HasPrefix(chunk.Id, "chatcmpl-") {
		t.Errorf("Id = %q, want chatcmpl- prefix", chunk.Id)
	}
}

func TestMapResponse_EmptyContent(t *testing.T) {
	msg := decodeMessage(t, `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{}}`)

	for _, strategy := range []ToolCallingStrategy{nativeStrategy, xmlStrategy} {
		t.Run(string(strategy.Mode()), func(t *testing.T) {
			chunk, err := mapResponse(msg, strategy, time.Now())
			if err != nil {
				t.Fatalf("mapResponse() error = %v", err)
			}
			delta := chunk.Choices[0].Delta
			if delta.Content != nil {
				t.Errorf("Content = %q, want null", *delta.Content)
			}
			if len(delta.ToolCalls) != 0 {
				t.Errorf("ToolCalls = %v, want none", delta.ToolCalls)
			}

			// Null content must survive encoding, clients expect the key.
			b, err := json.Marshal(chunk)
			if err != nil {
				t.Fatalf("marshal chunk: %v", err)
			}
			if !strings.Contains(string(b), `"content":null`) {
				t.Errorf("encoded chunk %s lacks \"content\":null", b)
			}
		})
	}
}

func TestMapResponse_NativeLastTextWins(t *testing.T) {
	msg := decodeMessage(t, `{"id":"msg_1","type":"message","role":"assistant","model":"m",
		"content":[{"type":"text","text":"first"},{"type":"text","text":"second"}],
		"stop_reason":"end_turn","usage":{}}`)

	chunk, err := mapResponse(msg, nativeStrategy, time.Now())
	if err != nil {
		t.Fatalf("mapResponse() error = %v", err)
	}
	if got := chunk.Choices[0].Delta.Content; got == nil || *got != "second" {
		t.Errorf("Content = %v, want second", got)
	}
}

func TestMapResponse_NativeToolUse(t *testing.T) {
	msg := decodeMessage(t, `{"id":"msg_1","type":"message","role":"assistant","model":"m",
		"content":[
			{"type":"text","text":"Let me look."},
			{"type":"tool_use","id":"toolu_1","name":"lookup","input":{"q": "x"}},
			{"type":"tool_use","id":"toolu_2","name":"clock","input":{}}],
		"stop_reason":"tool_use","usage":{}}`)

	chunk, err := mapResponse(msg, nativeStrategy, time.Now())
	if err != nil {
		t.Fatalf("mapResponse() error = %v", err)
	}

	choice := chunk.Choices[0]
	if choice.Delta.Content != nil {
		t.Errorf("Content = %q, want null", *choice.Delta.Content)
	}
	if choice.FinishReason == nil || *choice.FinishReason != types.CreateChatCompletionStreamResponseChoiceFinishReasonToolCalls {
		t.Errorf("FinishReason = %v, want tool_calls", choice.FinishReason)
	}

	want := []struct{ id, name, args string }{
		{"toolu_1", "lookup", `{"q":"x"}`},
		{"toolu_2", "clock", `{}`},
	}
	if len(choice.Delta.ToolCalls) != len(want) {
		t.Fatalf("got %d tool calls, want %d", len(choice.Delta.ToolCalls), len(want))
	}
	for i, w := range want {
		call := choice.Delta.ToolCalls[i]
		if call.Index != i {
			t.Errorf("call %d Index = %d", i, call.Index)
		}
		if *call.Id != w.id || *call.Function.Name != w.name || *call.Function.Arguments != w.args {
			t.Errorf("call %d = {%s %s %s}, want %+v", i, *call.Id, *call.Function.Name, *call.Function.Arguments, w)
		}
		if *call.Type != types.ChatCompletionMessageToolCallTypeFunction {
			t.Errorf("call %d Type = %q", i, *call.Type)
		}
	}
}

func TestMapResponse_XML(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		stopReason  string
		wantContent *string
		wantCalls   []struct{ id, args string }
		wantFinish  types.CreateChatCompletionStreamResponseChoiceFinishReason
	}{
		{
			name:        "plain text",
			text:        "The answer is 4.",
			stopReason:  "end_turn",
			wantContent: ptr("The answer is 4."),
			wantFinish:  "stop",
		},
		{
			name: "single invoke cut by stop sequence",
			text: "I'll check.\n\n<function_calls>\n<invoke>\n<tool_name>weather</tool_name>\n" +
				"<parameters>\n<city>Paris</city>\n<days>3</days>\n</parameters>\n</invoke>\n",
			stopReason: "stop_sequence",
			wantCalls:  []struct{ id, args string }{{"weather", `{"city":"Paris","days":"3"}`}},
			wantFinish: "tool_calls",
		},
		{
			name: "many invokes with closing tag",
			text: "<function_calls>\n<invoke>\n<tool_name>a</tool_name>\n<parameters>\n<x>1</x>\n</parameters>\n</invoke>\n" +
				"<invoke>\n<tool_name>b</tool_name>\n</invoke>\n</function_calls>",
			stopReason: "end_turn",
			wantCalls: []struct{ id, args string }{
				{"a", `{"x":"1"}`},
				{"b", `{}`},
			},
			wantFinish: "stop",
		},
		{
			name: "unescaped ampersand and nested parameters",
			text: "<function_calls><invoke><tool_name>search</tool_name><parameters>" +
				"<query>cats & dogs</query><filter><lang>en</lang><lang>de</lang></filter>" +
				"</parameters></invoke>",
			stopReason: "stop_sequence",
			wantCalls: []struct{ id, args string }{
				{"search", `{"filter":{"lang":["en","de"]},"query":"cats \u0026 dogs"}`},
			},
			wantFinish: "tool_calls",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, err := mapResponse(textMessage(t, tt.text, tt.stopReason), xmlStrategy, time.Now())
			if err != nil {
				t.Fatalf("mapResponse() error = %v", err)
			}
			choice := chunk.Choices[0]

			if !reflect.DeepEqual(choice.Delta.Content, tt.wantContent) {
				t.Errorf("Content = %v, want %v", deref(choice.Delta.Content), deref(tt.wantContent))
			}
			if choice.FinishReason == nil || *choice.FinishReason != tt.wantFinish {
				t.Errorf("FinishReason = %v, want %q", choice.FinishReason, tt.wantFinish)
			}
			if len(choice.Delta.ToolCalls) != len(tt.wantCalls) {
				t.Fatalf("got %d tool calls, want %d", len(choice.Delta.ToolCalls), len(tt.wantCalls))
			}
			for i, w := range tt.wantCalls {
				call := choice.Delta.ToolCalls[i]
				if call.Index != i || *call.Id != w.id || *call.Function.Name != w.id {
					t.Errorf("call %d = {index %d id %s name %s}, want id and name %s", i, call.Index, *call.Id, *call.Function.Name, w.id)
				}
				if *call.Function.Arguments != w.args {
					t.Errorf("call %d arguments = %s, want %s", i, *call.Function.Arguments, w.args)
				}
			}
		})
	}
}

func TestMapResponse_XMLUnparseable(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unterminated", "<function_calls>\n<invoke>\n<tool_name>weather"},
		{"missing tool name", "<function_calls><invoke><parameters><a>1</a></parameters></invoke></function_calls>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := mapResponse(textMessage(t, tt.text, "stop_sequence"), xmlStrategy, time.Now()); err == nil {
				t.Error("mapResponse() error = nil, want parse error")
			}
		})
	}
}

// An assistant tool call encoded as XML and decoded from a response yields the original arguments.
func TestXMLArgumentsRoundTrip(t *testing.T) {
	calls := []types.ChatCompletionMessageToolCall{{
		Id:   "f",
		Type: types.ChatCompletionMessageToolCallTypeFunction,
		Function: types.ChatCompletionMessageToolCallFunction{
			Name:      "f",
			Arguments: `{"x":"1"}`,
		},
	}}

	text, err := buildFunctionCallsMessage("", calls)
	if err != nil {
		t.Fatalf("buildFunctionCallsMessage() error = %v", err)
	}

	invocations, err := parseFunctionCalls(text)
	if err != nil {
		t.Fatalf("parseFunctionCalls() error = %v", err)
	}
	if len(invocations) != 1 {
		t.Fatalf("got %d invocations, want 1", len(invocations))
	}
	if invocations[0].toolName != "f" {
		t.Errorf("toolName = %q, want f", invocations[0].toolName)
	}
	if !reflect.DeepEqual(invocations[0].parameters, map[string]any{"x": "1"}) {
		t.Errorf("parameters = %v, want {x: 1}", invocations[0].parameters)
	}
}

func TestXMLArgumentNames(t *testing.T) {
	tests := []struct {
		arguments string
		wantErr   bool
	}{
		{arguments: `{"file_path":"a","max-depth":2,"v1.2":"x","größe":"L"}`},
		{arguments: `{"file path":"a"}`, wantErr: true},
		{arguments: `{"1st":"a"}`, wantErr: true},
		{arguments: `{"":"a"}`, wantErr: true},
		{arguments: `{"a<b":"a"}`, wantErr: true},
		{arguments: `{"ns:key":"a"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arguments, func(t *testing.T) {
			calls := []types.ChatCompletionMessageToolCall{{
				Id:       "f",
				Type:     types.ChatCompletionMessageToolCallTypeFunction,
				Function: types.ChatCompletionMessageToolCallFunction{Name: "f", Arguments: tt.arguments},
			}}

			text, err := buildFunctionCallsMessage("", calls)
			if tt.wantErr {
				var reqErr *RequestError
				if !errors.As(err, &reqErr) {
					t.Fatalf("buildFunctionCallsMessage() error = %v, want *RequestError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildFunctionCallsMessage() error = %v", err)
			}

			invocations, err := parseFunctionCalls(text)
			if err != nil {
				t.Fatalf("parseFunctionCalls(%q) error = %v", text, err)
			}
			var want map[string]any
			_ = json.Unmarshal([]byte(tt.arguments), &want)
			if len(invocations) != 1 || len(invocations[0].parameters) != len(want) {
				t.Fatalf("invocations = %+v, want parameters %v", invocations, want)
			}
			for key := range want {
				if _, ok := invocations[0].parameters[key]; !ok {
					t.Errorf("parameter %q lost in round trip", key)
				}
			}
		})
	}
}

func TestNativeArgumentsRoundTrip(t *testing.T) {
	arguments := `{"q":"x","n":2,"nested":{"list":[1,"a",null]}}`

	parsed, err := parseToolCallArguments(arguments)
	if err != nil {
		t.Fatalf("parseToolCallArguments() error = %v", err)
	}
	encoded, err := json.Marshal(parsed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var want, got any
	_ = json.Unmarshal([]byte(arguments), &want)
	_ = json.Unmarshal(encoded, &got)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %s, want %s", encoded, arguments)
	}
}

func ptr[T any](v T) *T { return &v }

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
