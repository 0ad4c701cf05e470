package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/bidsim/internal/httpapi"
	"github.com/huangsam/bidsim/internal/store"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bidsim HTTP API",
	Long: `Serve the scoring, simulation and optimization entry points as JSON over HTTP.

Endpoints:
  POST   /api/economic
  POST   /api/requirements/max-points
  GET    /api/lots
  GET    /api/lots/{id}             PUT and DELETE manage the stored lot
  GET    /api/lots/{id}/max-points
  POST   /api/lots/{id}/score
  POST   /api/lots/{id}/simulate
  POST   /api/lots/{id}/optimize
  GET    /metrics                   Prometheus metrics
  GET    /healthz

Examples:
  bidsim serve --listen :8088 --log-format json`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		log := httpapi.NewLogger(cfg.LogFormat, os.Stderr)

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return httpapi.Serve(ctx, cfg, store.Manager, log)
	},
}
