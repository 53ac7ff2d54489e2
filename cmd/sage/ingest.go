package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/sage/internal/repositories/roster"
)

func newIngestCmd() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load a provider roster CSV into SQLite",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			rosterRepo := roster.NewRepository(a.db, a.logger)
			count, err := rosterRepo.IngestCSV(ctx, csvPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d roster rows from %s into %s\n", count, csvPath, a.cfg.DatabasePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the roster CSV file")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}
