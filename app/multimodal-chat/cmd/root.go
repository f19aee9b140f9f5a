package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cchalm/multimodal-chat/internal/config"
	"github.com/cchalm/multimodal-chat/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "multimodal-chat",
	Short: "Browser chat and image analysis front end for Claude",
	Long: `Multimodal Chat serves a web page for chatting with Claude and asking it about images.
Each visitor supplies their own Anthropic API key, which is used for their requests only
and is never stored.`,
	PersistentPreRunE: loadRootConfig,
	SilenceUsage:      true,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(cmd *cobra.Command, _ []string) error {
	// Load .env file
	dotenvErr := godotenv.Load()

	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	appConfig = cfg

	logger, err = telemetry.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	if dotenvErr != nil {
		logger.Debug().Msg("No .env file found, using environment variables")
	}
	return nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./mmchat.yaml if present)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console or json)")

	bindFlag(flags, "log.level", "log-level")
	bindFlag(flags, "log.format", "log-format")
}
