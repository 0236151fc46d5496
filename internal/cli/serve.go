package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arjunmehta/sentinelwatch/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		router := a.httpServer().Router()
		logging.Get().Info().Str("addr", a.cfg.HTTPAddr).Msg("starting sentinelwatch http server")
		if err := router.Run(a.cfg.HTTPAddr); err != nil {
			return fmt.Errorf("cli: serve: %w", err)
		}
		return nil
	},
}
