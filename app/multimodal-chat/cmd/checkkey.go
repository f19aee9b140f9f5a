package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cchalm/multimodal-chat/internal/telemetry"
)

var checkKeyCmd = &cobra.Command{
	Use:   "check-key",
	Short: "List the models available to an API key",
	Long: `Checks an Anthropic API key by listing the models it can use. The key is read from
--api-key or, if that is not given, from ANTHROPIC_API_KEY.`,
	Args: cobra.NoArgs,
	RunE: runCheckKey,
}

var apiKey string

func init() {
	checkKeyCmd.Flags().StringVar(&apiKey, "api-key", "", "Anthropic API key (default $ANTHROPIC_API_KEY)")

	rootCmd.AddCommand(checkKeyCmd)
}

func runCheckKey(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	service := createService(telemetry.NewMetrics())
	report := service.TestCredential(ctx, credential())
	fmt.Fprintln(cmd.OutOrStdout(), report)

	if !succeeded(report) {
		return errors.New("credential check failed")
	}
	return nil
}

// credential returns the API key for one-off commands
func credential() string {
	if apiKey != "" {
		return apiKey
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

func succeeded(report string) bool {
	return strings.HasPrefix(report, "✅")
}
