package anthropicclaude

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

// fromMessageContent converts message content to turn content. String content becomes a
// single text block. Content parts become text blocks and, when allowImages is set,
// image blocks. ok is false for null content or an empty part list.
func fromMessageContent(content types.ChatCompletionRequestMessage_Content, allowImages bool) (turnContent, bool, error) {
	if content.IsNull() {
		return turnContent{}, false, nil
	}

	if content.IsString() {
		text, err := content.AsTextContent()
		if err != nil {
			return turnContent{}, false, newRequestError("invalid message content", err)
		}
		return blockContent(anthropic.NewTextBlock(text)), true, nil
	}

	parts, err := content.AsContentParts()
	if err != nil {
		return turnContent{}, false, newRequestError("invalid message content", err)
	}
	blocks, err := fromContentParts(parts, allowImages)
	if err != nil {
		return turnContent{}, false, err
	}
	if len(blocks) == 0 {
		return turnContent{}, false, nil
	}
	return blockContent(blocks...), true, nil
}

// fromContentParts converts OpenAI content parts to Anthropic content blocks.
func fromContentParts(parts []types.ChatCompletionRequestMessageContentPart, allowImages bool) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for i, partUnion := range parts {
		discriminator, err := partUnion.Discriminator()
		if err != nil {
			return nil, newRequestError(fmt.Sprintf("get type of content part %d", i), err)
		}

		switch discriminator {
		case types.ChatCompletionRequestMessageContentPartTypeText:
			textPart, err := partUnion.AsChatCompletionRequestMessageContentPartText()
			if err != nil {
				return nil, newRequestError(fmt.Sprintf("extract text from content part %d", i), err)
			}
			blocks = append(blocks, anthropic.NewTextBlock(textPart.Text))

		case types.ChatCompletionRequestMessageContentPartTypeImageUrl:
			if !allowImages {
				return nil, newRequestError(fmt.Sprintf("image content part %d not supported: images are only accepted in user messages with native tool calling", i), nil)
			}
			imagePart, err := partUnion.AsChatCompletionRequestMessageContentPartImage()
			if err != nil {
				return nil, newRequestError(fmt.Sprintf("extract image from content part %d", i), err)
			}
			block, err := fromContentPartImage(imagePart)
			if err != nil {
				return nil, newRequestError(fmt.Sprintf("transform image in content part %d", i), err)
			}
			blocks = append(blocks, block)

		default:
			return nil, newRequestError(fmt.Sprintf("content part type %q not supported", discriminator), nil)
		}
	}
	return blocks, nil
}

// fromContentPartImage converts an OpenAI image part to an Anthropic image block.
// The detail level is ignored, Anthropic has no equivalent.
func fromContentPartImage(imagePart types.ChatCompletionRequestMessageContentPartImage) (anthropic.ContentBlockParamUnion, error) {
	imageURL := imagePart.ImageUrl.Url

	switch {
	case strings.HasPrefix(imageURL, "data:"):
		// data:mime/type;base64,<data>
		header, encodedData, found := strings.Cut(imageURL, ",")
		if !found {
			return anthropic.ContentBlockParamUnion{}, fmt.Errorf("invalid data URL format, expected data:mime/type;base64,data")
		}

		mediaType, _, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
		if mediaType == "" {
			mediaType = "image/jpeg"
		}

		if _, err := base64.StdEncoding.DecodeString(encodedData); err != nil {
			return anthropic.ContentBlockParamUnion{}, fmt.Errorf("invalid base64 image data: %w", err)
		}
		return anthropic.NewImageBlockBase64(mediaType, encodedData), nil

	case strings.HasPrefix(imageURL, "http://"), strings.HasPrefix(imageURL, "https://"):
		return anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: imageURL}), nil

	default:
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("invalid image URL format: must be http(s):// or data: URI")
	}
}
