package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/trustscore/core"
	"github.com/huangsam/trustscore/internal/api"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve package scoring over HTTP",
	Long: `Start an HTTP server that scores packages on request.

Endpoints:
  GET  /healthz             - liveness probe
  GET  /api/v1/metrics      - metric definitions and active weights
  GET  /api/v1/rate?url=... - score one package
  POST /api/v1/rate         - score a batch: {"urls": [...], "fresh": false}

The server shuts down gracefully on SIGINT or SIGTERM.

Examples:
  trustscore serve --listen :9000 --history-backend sqlite`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		rater, err := core.BuildRater(ctx, cfg, cacheManager, logger)
		if err != nil {
			return err
		}
		router := api.NewRouter(cfg, rater, logger)
		return api.Serve(ctx, cfg.Listen, router, logger)
	},
}
