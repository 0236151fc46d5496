package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/arjunmehta/sentinelwatch/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "sentinelwatch",
	Short: "SentinelWatch SIEM",
	Long:  "SentinelWatch ingests authentication logs, runs correlation rules, and manages the resulting security alerts.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logging.Get().Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
}
