package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cchalm/multimodal-chat/internal/telemetry"
)

var describeCmd = &cobra.Command{
	Use:   "describe <image-file>",
	Short: "Analyze a local image",
	Long: `Sends a local image to a vision-capable Claude model with a request for a detailed analysis
and prints the result.`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().StringVar(&apiKey, "api-key", "", "Anthropic API key (default $ANTHROPIC_API_KEY)")

	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	service := createService(telemetry.NewMetrics())
	report := service.Analyze(ctx, credential(), image)
	fmt.Fprintln(cmd.OutOrStdout(), report)

	if !succeeded(report) {
		return errors.New("image analysis failed")
	}
	return nil
}
