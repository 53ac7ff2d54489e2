package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/sage/internal/repositories/deduprun"
	"github.com/Ramsey-B/sage/internal/repositories/roster"
	"github.com/Ramsey-B/sage/pkg/nlquery"
	"github.com/Ramsey-B/sage/pkg/routes/health"
	"github.com/Ramsey-B/sage/pkg/routes/query"
	"github.com/Ramsey-B/sage/pkg/routes/runs"
	"github.com/Ramsey-B/sage/pkg/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the review dashboard API",
		Long:  "Starts the HTTP API for browsing dedupe runs, reviewing possible-match pairs, and answering roster questions.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			checker := health.NewChecker(a.db, version)
			runsHandler := runs.NewHandler(deduprun.NewRepository(a.db, a.logger), a.logger)
			queryHandler := query.NewHandler(roster.NewRepository(a.db, a.logger), nlquery.NewTranslator(a.logger), a.logger)

			srv := server.New(a.cfg, a.logger, checker, runsHandler, queryHandler)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()
			checker.SetReady(true)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			checker.SetReady(false)
			a.logger.Info("shutting down dashboard api")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}

			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}
