package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cchalm/multimodal-chat/internal/ai"
	"github.com/cchalm/multimodal-chat/internal/chat"
	"github.com/cchalm/multimodal-chat/internal/telemetry"
	"github.com/cchalm/multimodal-chat/internal/transport"
)

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		logger.Info().Msg("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		logger.Fatal().Msg("Forcing shutdown")
	}()

	return ctx
}

func createProviderFactory(metrics *telemetry.Metrics) *ai.AnthropicFactory {
	instrumentedHTTPClient := &http.Client{
		Transport: transport.WithInstrumentation(nil, metrics.ObserveProviderResponse, logger),
	}
	opts := []option.RequestOption{}
	if appConfig.Provider.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(appConfig.Provider.BaseURL))
	}
	return ai.NewAnthropicFactory(instrumentedHTTPClient, appConfig.Provider.MaxTokens, opts...)
}

func createService(metrics *telemetry.Metrics) *chat.Service {
	serviceConfig := chat.DefaultServiceConfig()
	if len(appConfig.Models.Text) > 0 {
		serviceConfig.TextModels = ai.NewCandidateList(ai.CapabilityText, appConfig.Models.Text...)
	}
	if len(appConfig.Models.Vision) > 0 {
		serviceConfig.VisionModels = ai.NewCandidateList(ai.CapabilityVision, appConfig.Models.Vision...)
	}
	serviceConfig.Timeout = appConfig.Provider.Timeout

	resolver := ai.NewResolver(
		ai.WithProbe(appConfig.Resolver.Probe),
		ai.WithResolverLogger(logger),
		ai.WithAttemptObserver(metrics.ObserveResolveAttempt),
	)
	return chat.NewService(createProviderFactory(metrics), resolver, serviceConfig, metrics, logger)
}

func createTelemetryProvider(ctx context.Context) (*telemetry.Provider, error) {
	telemetryConfig := telemetry.TelemetryConfig{
		Enabled:        appConfig.Telemetry.Enabled,
		Endpoint:       appConfig.Telemetry.Endpoint,
		ServiceVersion: version,
	}
	return telemetry.NewProvider(ctx, telemetryConfig, logger)
}
