package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a log file from disk and print the resulting batch summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("cli: open %s: %w", path, err)
		}
		defer f.Close()

		result, err := a.orchestrator.IngestFile(cmd.Context(), f, path)
		if err != nil {
			return fmt.Errorf("cli: ingest %s: %w", path, err)
		}

		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("cli: encode result: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	},
}
