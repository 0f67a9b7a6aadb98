package anthropicclaude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-playground/validator/v10"

	"github.com/florianilch/claude3-provider/internal/observability"
	"github.com/florianilch/claude3-provider/internal/openaiadapter"
)

// DefaultBaseURL is the Anthropic API used when Config.BaseURL is empty.
const DefaultBaseURL = "https://api.anthropic.com"

// DefaultBedrockModelPrefix routes models like anthropic.claude-3-haiku-20240307-v1:0 to Bedrock.
const DefaultBedrockModelPrefix = "anthropic."

// Config configures a CreateChatCompletionAdapter.
type Config struct {
	// Strategy selects native or XML-prompted tool calling. Defaults to NativeToolCalling.
	Strategy ToolCallingStrategy
	// BaseURL overrides the Anthropic API base URL. Defaults to DefaultBaseURL,
	// ANTHROPIC_BASE_URL is ignored.
	BaseURL string
	// BedrockModelPrefix routes models with this prefix to AWS Bedrock. Empty disables Bedrock.
	BedrockModelPrefix string
	// BedrockRegion overrides the region from the AWS default configuration chain.
	BedrockRegion string
	// Debug logs the inbound request, the mapped request and the upstream response at
	// info level.
	Debug bool
}

// CreateChatCompletionAdapter maps OpenAI chat completion requests to a single Anthropic
// Messages call and maps the result back into one chat completion chunk.
type CreateChatCompletionAdapter struct {
	strategy      ToolCallingStrategy
	baseURL       string
	bedrockPrefix string
	debug         bool
	validate      *validator.Validate
	awsConfig     func() (aws.Config, error)
	now           func() time.Time
}

// Compile-time check to ensure CreateChatCompletionAdapter implements the adapter contract
var _ openaiadapter.CreateChatCompletionAdapter = (*CreateChatCompletionAdapter)(nil)

// Option customizes a CreateChatCompletionAdapter.
type Option func(*CreateChatCompletionAdapter)

// WithAWSConfig uses cfg for Bedrock instead of loading the AWS default configuration.
func WithAWSConfig(cfg aws.Config) Option {
	return func(a *CreateChatCompletionAdapter) {
		a.awsConfig = func() (aws.Config, error) { return cfg, nil }
	}
}

// WithClock overrides the source of the chunk's created timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *CreateChatCompletionAdapter) {
		a.now = now
	}
}

// NewCreateChatCompletionAdapter creates an adapter. The AWS configuration is loaded on
// the first Bedrock request.
func NewCreateChatCompletionAdapter(cfg Config, opts ...Option) *CreateChatCompletionAdapter {
	strategy := cfg.Strategy
	if strategy == nil {
		strategy = NativeToolCalling{SystemAsUserTurn: true, BaseSystemPrompt: DefaultNativeSystemPrompt}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	a := &CreateChatCompletionAdapter{
		strategy:      strategy,
		baseURL:       baseURL,
		bedrockPrefix: cfg.BedrockModelPrefix,
		debug:         cfg.Debug,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		now:           time.Now,
	}

	region := cfg.BedrockRegion
	a.awsConfig = sync.OnceValues(func() (aws.Config, error) {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(region))
		}
		return awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	})

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Mode returns the adapter's tool calling mode.
func (a *CreateChatCompletionAdapter) Mode() Mode {
	return a.strategy.Mode()
}

// ProcessRequest validates and maps the request, calls the upstream once and maps the
// completed message into a single chunk.
//
// Errors are *openaiadapter.ErrorResponse for requests that cannot be mapped and
// *openaiadapter.UpstreamError for failed or unreadable upstream calls.
func (a *CreateChatCompletionAdapter) ProcessRequest(
	ctx context.Context,
	req openaiadapter.CreateChatCompletionRequest,
	transport http.RoundTripper,
) (*openaiadapter.CreateChatCompletionChunk, error) {
	if err := a.validate.StructCtx(ctx, req); err != nil {
		return nil, openaiadapter.NewInvalidRequestError(validationMessage(err))
	}

	mode := string(a.strategy.Mode())
	if a.debug {
		slog.InfoContext(ctx, "original request", "mode", mode, "request", jsonLogValue{req})
	}

	params, err := mapRequest(&req, a.strategy)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			return nil, openaiadapter.NewInvalidRequestError(err.Error())
		}
		return nil, fmt.Errorf("map request: %w", err)
	}

	if a.debug {
		slog.InfoContext(ctx, "mapped request", "mode", mode, "request", jsonLogValue{params})
	}

	errorKey := nativeErrorKey
	if a.strategy.Mode() == ModeXML {
		errorKey = xmlErrorKey
	}

	backend, clientOpts, err := a.backendFor(req.Model)
	if err != nil {
		return nil, toUpstreamError(err, errorKey)
	}
	slog.DebugContext(ctx, "dispatching upstream request", "backend", backend, "mode", mode, "model", req.Model)

	client, err := newClient(transport, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	start := time.Now()
	msg, err := a.createMessage(ctx, client, params)
	if err != nil {
		upstreamErr := toUpstreamError(err, errorKey)
		observability.ObserveUpstream(backend, mode, upstreamErr.Status(), time.Since(start))
		return nil, upstreamErr
	}
	observability.ObserveUpstream(backend, mode, http.StatusOK, time.Since(start))
	observability.ObserveTokens(backend, msg.Usage.InputTokens, msg.Usage.OutputTokens)

	if a.debug {
		slog.InfoContext(ctx, "upstream response", "mode", mode, "response", jsonLogValue{msg})
	}

	chunk, err := mapResponse(msg, a.strategy, a.now())
	if err != nil {
		return nil, &openaiadapter.UpstreamError{
			StatusCode: http.StatusBadGateway,
			Key:        errorKey,
			Message:    fmt.Sprintf("unreadable tool calls in model output: %v", err),
			Err:        err,
		}
	}
	observability.ToolCallsTotal.WithLabelValues(mode).Add(float64(len(chunk.Choices[0].Delta.ToolCalls)))

	return chunk, nil
}

// backendFor selects Bedrock for models with the configured prefix and the Anthropic API otherwise.
func (a *CreateChatCompletionAdapter) backendFor(model string) (string, []option.RequestOption, error) {
	if a.bedrockPrefix != "" && strings.HasPrefix(model, a.bedrockPrefix) {
		cfg, err := a.awsConfig()
		if err != nil {
			return backendBedrock, nil, fmt.Errorf("load AWS config: %w", err)
		}
		return backendBedrock, []option.RequestOption{bedrock.WithConfig(cfg)}, nil
	}

	return backendAnthropic, []option.RequestOption{option.WithBaseURL(a.baseURL)}, nil
}

// createMessage performs the upstream call. XML mode streams and accumulates the final
// message; native mode uses a plain request.
func (a *CreateChatCompletionAdapter) createMessage(ctx context.Context, client *anthropic.Client, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	if a.strategy.Mode() != ModeXML {
		return client.Messages.New(ctx, params)
	}

	stream := client.Messages.NewStreaming(ctx, params)
	defer func() {
		if err := stream.Close(); err != nil {
			slog.DebugContext(ctx, "failed to close upstream stream", "error", err)
		}
	}()

	var msg anthropic.Message
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return nil, fmt.Errorf("accumulate stream event: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// validationMessage renders validator errors as "field: tag" pairs.
func validationMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q validation", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return "invalid request: " + strings.Join(msgs, ", ")
}

// jsonLogValue defers JSON encoding of debug payloads until a handler renders them.
type jsonLogValue struct {
	v any
}

func (j jsonLogValue) LogValue() slog.Value {
	b, err := json.Marshal(j.v)
	if err != nil {
		return slog.StringValue(fmt.Sprintf("<unencodable: %v>", err))
	}
	return slog.StringValue(string(b))
}
