// Package serve implements the HTTP API command.
package serve

import (
	"github.com/spf13/cobra"

	"github.com/tabledep/tabledep/internal/server"
	"github.com/tabledep/tabledep/pkg/shared/config"
	"github.com/tabledep/tabledep/pkg/shared/logger"
)

var (
	appConfig *config.Config
	addr      string
)

// Init passes the loaded application config to the command.
func Init(cfg *config.Config) {
	appConfig = cfg
}

var ServeCmd = &cobra.Command{
	Use:          "serve [--addr HOST:PORT]",
	SilenceUsage: true,
	Short:        "Run the scan API server",
	Long: `Serve exposes the scanner over a JSON HTTP API. One scan runs at a
time; clients poll /api/status for progress and may POST /api/cancel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr != "" {
			appConfig.Server.Addr = addr
		}
		log := logger.NewLogger(appConfig, "core-serve")
		return server.New(appConfig, log).ListenAndServe()
	},
}

func init() {
	ServeCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
}
