package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"
)

// Discriminator values of ChatCompletionRequestMessageContentPart.
const (
	ChatCompletionRequestMessageContentPartTypeText     = "text"
	ChatCompletionRequestMessageContentPartTypeImageUrl = "image_url"
)

// maxExactNumber is the largest magnitude a float64 holds without losing integer precision.
const maxExactNumber = 1 << 53

// Number is a JSON number that also accepts a numeric string, e.g. "0.5".
type Number float64

// UnmarshalJSON accepts 1, 1.5 and "1.5". NaN, infinities and magnitudes beyond 2^53
// are rejected.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(b, &unquoted); err != nil {
			return err
		}
		s = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid number %s", string(b))
	}
	if math.Abs(f) > maxExactNumber {
		return fmt.Errorf("number %s out of range", string(b))
	}
	*n = Number(f)
	return nil
}

// Float returns the number as float64.
func (n Number) Float() float64 {
	return float64(n)
}

// Int returns the number truncated toward zero.
func (n Number) Int() int64 {
	return int64(n)
}

// IsNull reports whether the content is absent or JSON null.
func (t ChatCompletionRequestMessage_Content) IsNull() bool {
	s := bytes.TrimSpace(t.union)
	return len(s) == 0 || bytes.Equal(s, []byte("null"))
}

// IsString reports whether the content is a JSON string.
func (t ChatCompletionRequestMessage_Content) IsString() bool {
	s := bytes.TrimSpace(t.union)
	return len(s) > 0 && s[0] == '"'
}

// Text returns string content as is, or the text parts of an array concatenated in order.
// Null content yields "".
func (t ChatCompletionRequestMessage_Content) Text() (string, error) {
	if t.IsNull() {
		return "", nil
	}
	if t.IsString() {
		return t.AsTextContent()
	}
	parts, err := t.AsContentParts()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, part := range parts {
		d, err := part.Discriminator()
		if err != nil {
			return "", err
		}
		if d != ChatCompletionRequestMessageContentPartTypeText {
			continue
		}
		text, err := part.AsChatCompletionRequestMessageContentPartText()
		if err != nil {
			return "", err
		}
		sb.WriteString(text.Text)
	}
	return sb.String(), nil
}

// defaultFunctionParameters is the schema of a function that takes no arguments.
var defaultFunctionParameters = json.RawMessage(`{"type":"object","properties":{}}`)

// WithDefaults returns the schema as a JSON merge patch applied over {"type":"object","properties":{}}.
// A nil receiver yields the default schema.
func (p *FunctionParameters) WithDefaults() (map[string]any, error) {
	merged := defaultFunctionParameters
	if p != nil {
		patch, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode parameters: %w", err)
		}
		merged, err = runtime.JSONMerge(defaultFunctionParameters, patch)
		if err != nil {
			return nil, fmt.Errorf("merge parameters: %w", err)
		}
	}
	var schema map[string]any
	if err := json.Unmarshal(merged, &schema); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	return schema, nil
}
