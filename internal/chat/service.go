package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cchalm/multimodal-chat/internal/ai"
)

// Action outcomes reported to the Recorder
const (
	OutcomeOK            = "ok"
	OutcomeInvalid       = "invalid"
	OutcomeNoModel       = "no_model"
	OutcomeProviderError = "provider_error"
)

// Recorder receives one observation per user action
type Recorder interface {
	ObserveAction(action string, outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAction(string, string, time.Duration) {}

// Input is what the user submitted on the chat path
type Input struct {
	Message string
	Image   []byte // Raw upload, empty if none
}

// ServiceConfig holds the tunables of a Service
type ServiceConfig struct {
	TextModels    ai.CandidateList
	VisionModels  ai.CandidateList
	ContextPolicy ai.ContextPolicy
	MaxImageBytes int64
	// Timeout bounds each action's provider calls. Zero leaves timing to the provider.
	Timeout time.Duration
}

// DefaultServiceConfig returns the built-in candidate lists and context policy
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		TextModels:    ai.TextCandidates,
		VisionModels:  ai.VisionCandidates,
		ContextPolicy: ai.DefaultContextPolicy,
		MaxImageBytes: 5 << 20,
	}
}

// Service implements the user-facing actions. Every action converts its failures into a displayed message; none
// return errors.
type Service struct {
	providers ai.ProviderFactory
	resolver  *ai.Resolver
	composer  ai.Composer
	config    ServiceConfig
	recorder  Recorder
	logger    zerolog.Logger
	tracer    trace.Tracer
}

func NewService(providers ai.ProviderFactory, resolver *ai.Resolver, config ServiceConfig, recorder Recorder, logger zerolog.Logger) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		providers: providers,
		resolver:  resolver,
		composer:  ai.NewComposer(config.ContextPolicy),
		config:    config,
		recorder:  recorder,
		logger:    logger,
		tracer:    otel.Tracer("github.com/cchalm/multimodal-chat/internal/chat"),
	}
}

// Chat sends the user's input, with recent context from the transcript, to the provider and returns the transcript
// with exactly one new turn appended. Failures are recorded in the transcript as the turn's output.
func (s *Service) Chat(ctx context.Context, credential string, in Input, transcript Transcript) Transcript {
	ctx, span := s.tracer.Start(ctx, "chat.Chat", trace.WithAttributes(attribute.Bool("image", len(in.Image) > 0)))
	defer span.End()
	start := time.Now()

	output, outcome := s.chat(ctx, credential, in, transcript)
	s.finish(span, "chat", outcome, start)

	return Render(in.Message, len(in.Image) > 0, output, outcome != OutcomeOK, transcript)
}

func (s *Service) chat(ctx context.Context, credential string, in Input, transcript Transcript) (string, string) {
	if strings.TrimSpace(credential) == "" {
		return validationReport(ai.ErrMissingCredential), OutcomeInvalid
	}

	var image *ai.Image
	if len(in.Image) > 0 {
		img, err := ai.NewImage(in.Image, s.config.MaxImageBytes)
		if err != nil {
			return validationReport(err), OutcomeInvalid
		}
		image = img
	}

	payload, err := s.composer.Compose(in.Message, image, transcript.Exchanges())
	if err != nil {
		return validationReport(err), OutcomeInvalid
	}

	candidates := s.config.TextModels
	if payload.HasImage() {
		candidates = s.config.VisionModels
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	text, _, err := s.generate(ctx, credential, candidates, payload)
	if err != nil {
		return failureReport(err), outcomeOf(err)
	}
	return text, OutcomeOK
}

// Analyze describes an image in detail using a vision-capable model. The report is prefixed with the model used.
func (s *Service) Analyze(ctx context.Context, credential string, image []byte) string {
	ctx, span := s.tracer.Start(ctx, "chat.Analyze")
	defer span.End()
	start := time.Now()

	report, outcome := s.analyze(ctx, credential, image)
	s.finish(span, "analyze", outcome, start)
	return report
}

func (s *Service) analyze(ctx context.Context, credential string, image []byte) (string, string) {
	if strings.TrimSpace(credential) == "" {
		return analysisMissingCredentialMessage, OutcomeInvalid
	}
	if len(image) == 0 {
		return analysisMissingImageMessage, OutcomeInvalid
	}
	img, err := ai.NewImage(image, s.config.MaxImageBytes)
	if err != nil {
		return validationReport(err), OutcomeInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	text, model, err := s.generate(ctx, credential, s.config.VisionModels, ai.Payload{Prompt: ai.AnalysisPrompt, Image: img})
	if err != nil {
		return failureReport(err), outcomeOf(err)
	}
	return fmt.Sprintf("%sUsing: %s\n\n%s", successMarker, model, text), OutcomeOK
}

// TestCredential lists the models available under the credential. It is purely diagnostic.
func (s *Service) TestCredential(ctx context.Context, credential string) string {
	ctx, span := s.tracer.Start(ctx, "chat.TestCredential")
	defer span.End()
	start := time.Now()

	report, outcome := s.testCredential(ctx, credential)
	s.finish(span, "test_credential", outcome, start)
	return report
}

func (s *Service) testCredential(ctx context.Context, credential string) (string, string) {
	if strings.TrimSpace(credential) == "" {
		return keyMissingMessage, OutcomeInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	models, err := s.providers.NewProvider(credential).ListModels(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Credential check failed")
		return keyFailedPrefix + err.Error(), OutcomeProviderError
	}
	if len(models) == 0 {
		return keyNoModelsReport, OutcomeOK
	}

	var sb strings.Builder
	sb.WriteString(keyValidHeader)
	for i, m := range models[:min(len(models), maxListedModels)] {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(successMarker)
		sb.WriteString(m.ID)
	}
	return sb.String(), OutcomeOK
}

// generate resolves a model from candidates and sends it the payload under a provider scoped to the credential
func (s *Service) generate(ctx context.Context, credential string, candidates ai.CandidateList, payload ai.Payload) (string, string, error) {
	provider := s.providers.NewProvider(credential)

	model, err := s.resolver.Resolve(ctx, provider, candidates)
	if err != nil {
		s.logger.Warn().Err(err).Str("capability", candidates.Capability().String()).Msg("Failed to resolve model")
		return "", "", err
	}

	// The provider's message is shown to the user as is, so don't wrap it
	text, err := provider.Generate(ctx, model, payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("model", model).Msg("Failed to generate content")
		return "", model, err
	}
	return text, model, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.Timeout)
}

func (s *Service) finish(span trace.Span, action string, outcome string, start time.Time) {
	duration := time.Since(start)
	span.SetAttributes(attribute.String("outcome", outcome))
	s.recorder.ObserveAction(action, outcome, duration)

	event := s.logger.Info()
	if outcome == OutcomeNoModel || outcome == OutcomeProviderError {
		event = s.logger.Warn()
	}
	event.Str("action", action).Str("outcome", outcome).Dur("duration", duration).Msg("Action completed")
}

func outcomeOf(err error) string {
	var noModel *ai.NoAvailableModelError
	if errors.As(err, &noModel) {
		return OutcomeNoModel
	}
	return OutcomeProviderError
}
