package ai

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/cchalm/multimodal-chat/internal/ai"

// probePrompt is sent when eager resolution is enabled. The response is discarded.
const probePrompt = "ping"

// AttemptObserver is notified of every candidate the resolver tries
type AttemptObserver func(capability Capability, model string, available bool)

// Resolver picks the first usable model from a candidate list
type Resolver struct {
	probe    bool
	logger   zerolog.Logger
	observer AttemptObserver
	tracer   trace.Tracer
}

type ResolverOption func(*Resolver)

// WithProbe makes resolution eager: a candidate only counts as available once it has answered a one-token
// generation request, not merely when a handle to it can be constructed
func WithProbe(probe bool) ResolverOption {
	return func(r *Resolver) {
		r.probe = probe
	}
}

func WithResolverLogger(logger zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithAttemptObserver(observer AttemptObserver) ResolverOption {
	return func(r *Resolver) {
		r.observer = observer
	}
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		logger: zerolog.Nop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first candidate that the provider can serve. If none can, it returns a
// *NoAvailableModelError listing every attempted identifier.
func (r *Resolver) Resolve(ctx context.Context, provider Provider, candidates CandidateList) (string, error) {
	ctx, span := r.tracer.Start(ctx, "ai.Resolve", trace.WithAttributes(
		attribute.String("capability", candidates.Capability().String()),
		attribute.Bool("probe", r.probe),
	))
	defer span.End()

	attempted := make([]string, 0, candidates.Len())
	for _, model := range candidates.Models() {
		attempted = append(attempted, model)
		err := r.try(ctx, provider, model)
		r.notify(candidates.Capability(), model, err == nil)
		if err == nil {
			span.SetAttributes(attribute.String("model", model))
			r.logger.Debug().Str("model", model).Str("capability", candidates.Capability().String()).Msg("Resolved model")
			return model, nil
		}
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, ctx.Err().Error())
			return "", ctx.Err()
		}
		r.logger.Debug().Err(err).Str("model", model).Msg("Model candidate unavailable")
	}

	err := &NoAvailableModelError{Capability: candidates.Capability(), Attempted: attempted}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return "", err
}

func (r *Resolver) try(ctx context.Context, provider Provider, model string) error {
	if err := provider.ModelAvailable(ctx, model); err != nil {
		return err
	}
	if !r.probe {
		return nil
	}
	_, err := provider.Generate(ctx, model, Payload{Prompt: probePrompt, MaxTokens: 1})
	return err
}

func (r *Resolver) notify(capability Capability, model string, available bool) {
	if r.observer != nil {
		r.observer(capability, model, available)
	}
}
