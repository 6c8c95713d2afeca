package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/permit-risk-etl/internal/adapter/httpadmin"
	"github.com/couchcryptid/permit-risk-etl/internal/scheduler"
)

// ServeCmd returns the long-running service command.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion service with the HTTP query API",
		Long: `Run permitd as a long-lived service: an immediate refresh cycle,
scheduled refresh and enrichment cadences, and the HTTP query and
health endpoints.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			srv := httpadmin.NewServer(app.cfg.HTTPAddr, app.orch, app.store, app.logger)
			sched := scheduler.New(app.orch, app.engine,
				app.cfg.RefreshInterval, app.cfg.EnrichInterval, app.logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					app.logger.Error("http server error", "error", err)
				}
			}()

			go sched.Run(ctx)

			<-ctx.Done()
			app.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.logger.Error("http server shutdown error", "error", err)
			}

			app.logger.Info("shutdown complete")
			return nil
		},
	}
}
