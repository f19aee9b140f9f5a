package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cchalm/multimodal-chat/internal/chat"
	"github.com/cchalm/multimodal-chat/internal/telemetry"
	"github.com/cchalm/multimodal-chat/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Starts the web server and serves the chat page until interrupted. Sessions live in memory
and end after they have been idle for the configured TTL.`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.String("addr", ":8080", "Address to listen on")
	flags.Duration("session-ttl", time.Hour, "How long an idle session is kept")
	flags.Bool("probe", false, "Confirm each candidate model with a one-token request before using it")

	bindFlag(flags, "server.addr", "addr")
	bindFlag(flags, "session.ttl", "session-ttl")
	bindFlag(flags, "resolver.probe", "probe")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	tp, err := createTelemetryProvider(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Failed to shut down telemetry")
		}
	}()

	metrics := telemetry.NewMetrics()
	service := createService(metrics)

	sessions := chat.NewSessionStore(appConfig.Session.TTL, appConfig.RateLimit.PerMinute, appConfig.RateLimit.Burst)
	sessions.SetMaxSessions(appConfig.Session.MaxSessions)
	sessions.OnCountChange(metrics.SetSessions)
	go sessions.Run(ctx, appConfig.Session.SweepInterval)

	server := web.NewServer(service, sessions, logger, web.Options{
		MaxUploadBytes: appConfig.Server.MaxUploadBytes,
		Metrics:        metrics.Handler(),
		OnRateLimited:  metrics.RateLimited,
	})
	httpServer := &http.Server{
		Addr:              appConfig.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()
	logger.Info().
		Str("addr", appConfig.Server.Addr).
		Dur("session_ttl", appConfig.Session.TTL).
		Bool("probe", appConfig.Resolver.Probe).
		Msg("Server started")

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}
