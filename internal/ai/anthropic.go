package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultMaxTokens = 2048

// AnthropicFactory builds a fresh Anthropic client for every credential. The shared *http.Client holds no
// credential state, so providers built for different sessions never see each other's keys.
type AnthropicFactory struct {
	httpClient *http.Client
	maxTokens  int64
	opts       []option.RequestOption
}

// NewAnthropicFactory creates a factory. Extra options, e.g. option.WithBaseURL, are applied to every client.
func NewAnthropicFactory(httpClient *http.Client, maxTokens int64, opts ...option.RequestOption) *AnthropicFactory {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnthropicFactory{
		httpClient: httpClient,
		maxTokens:  maxTokens,
		opts:       opts,
	}
}

func (af *AnthropicFactory) NewProvider(credential string) Provider {
	opts := []option.RequestOption{
		option.WithHTTPClient(af.httpClient),
		// Failures are reported to the user once and never retried
		option.WithMaxRetries(0),
	}
	opts = append(opts, af.opts...)
	opts = append(opts,
		option.WithAPIKey(strings.TrimSpace(credential)),
		// Don't let an ANTHROPIC_AUTH_TOKEN in the server's environment authenticate user requests
		option.WithHeaderDel("authorization"),
	)
	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		maxTokens: af.maxTokens,
		tracer:    otel.Tracer(tracerName),
	}
}

// AnthropicProvider implements Provider on top of the Anthropic Messages and Models APIs
type AnthropicProvider struct {
	client    anthropic.Client
	maxTokens int64
	tracer    trace.Tracer
}

// ModelAvailable retrieves the model's metadata, which succeeds only if the credential can access the model
func (ap *AnthropicProvider) ModelAvailable(ctx context.Context, model string) error {
	_, err := ap.client.Models.Get(ctx, model, anthropic.ModelGetParams{})
	if err != nil {
		return fmt.Errorf("failed to get model %s: %w", model, err)
	}
	return nil
}

// ListModels pages through the full model catalog. Every Anthropic model supports the Messages API, so no
// capability filtering is needed.
func (ap *AnthropicProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, span := ap.tracer.Start(ctx, "anthropic.ListModels")
	defer span.End()

	models := []ModelInfo{}
	pager := ap.client.Models.ListAutoPaging(ctx, anthropic.ModelListParams{Limit: anthropic.Int(100)})
	for pager.Next() {
		m := pager.Current()
		models = append(models, ModelInfo{ID: m.ID, DisplayName: m.DisplayName})
	}
	if err := pager.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &ProviderError{Op: "list", Err: err}
	}
	span.SetAttributes(attribute.Int("models", len(models)))
	return models, nil
}

func (ap *AnthropicProvider) Generate(ctx context.Context, model string, payload Payload) (string, error) {
	ctx, span := ap.tracer.Start(ctx, "anthropic.Generate", trace.WithAttributes(
		attribute.String("model", model),
		attribute.Bool("image", payload.HasImage()),
	))
	defer span.End()

	blocks := []anthropic.ContentBlockParamUnion{}
	if payload.Image != nil {
		blocks = append(blocks, anthropic.NewImageBlockBase64(payload.Image.MediaType, payload.Image.Base64()))
	}
	blocks = append(blocks, anthropic.NewTextBlock(payload.Prompt))

	maxTokens := ap.maxTokens
	if payload.MaxTokens > 0 {
		maxTokens = payload.MaxTokens
	}

	response, err := ap.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", &ProviderError{Op: "generate", Err: err}
	}

	span.SetAttributes(
		attribute.Int64("input_tokens", response.Usage.InputTokens),
		attribute.Int64("output_tokens", response.Usage.OutputTokens),
	)

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}
