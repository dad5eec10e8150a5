package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/goap-planner/internal/planner"
	"github.com/kingrea/goap-planner/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner over HTTP until interrupted",
		Long: `Starts the HTTP front end:
  GET  /health     liveness and uptime
  GET  /info       service description
  POST /plan       plan a JSON scenario
  POST /enabled    actions enabled in the scenario's state
  POST /step       fire one action ({...scenario, "action": "id"})
  POST /satisfied  whether the scenario's state meets its goal

Host and port come from .goap/config.yaml and may be overridden with
GOAP_SERVER_HOST, GOAP_SERVER_PORT and GOAP_SERVER_ENABLED.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := server.SettingsFromConfig(c.cfg)
			if !settings.Enabled {
				return fmt.Errorf("server is disabled in %s", c.cfg.ProjectConfigPath())
			}
			var opts []server.Option
			opts = append(opts, server.WithLogger(c.logger))
			if c.verbose {
				logger := c.logger
				opts = append(opts, server.WithPlannerOptions(planner.WithObserver(func(e planner.Expansion) {
					logger.Debug("expand", zap.Stringer("state", e.State), zap.Float64("g", e.G), zap.Int("depth", e.Depth))
				})))
			}
			srv := server.NewServer(settings, opts...)

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", srv.BaseURL())
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}
