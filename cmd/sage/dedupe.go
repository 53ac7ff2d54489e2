package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/sage/internal/repositories/deduprun"
	"github.com/Ramsey-B/sage/internal/repositories/roster"
	"github.com/Ramsey-B/sage/pkg/blocking"
	"github.com/Ramsey-B/sage/pkg/dedupe"
)

func newDedupeCmd() *cobra.Command {
	var (
		definite    float64
		possible    float64
		workers     int
		maxBlock    int
		conjunctive bool
		exportPath  string
	)

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Run the dedupe pipeline over the ingested roster",
		Long:  "Normalizes, blocks, scores, classifies, and clusters the roster, then persists the run artifacts and the augmented table.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			opts := dedupe.Options{
				DefiniteThreshold: a.cfg.DefiniteThreshold,
				PossibleThreshold: a.cfg.PossibleThreshold,
				Workers:           a.cfg.ScoringWorkers,
				Blocking: blocking.Options{
					MaxBlockSize:        a.cfg.MaxBlockSize,
					RequireMultipleKeys: a.cfg.RequireMultipleKeys || conjunctive,
				},
			}
			// flags override config when set
			if definite > 0 {
				opts.DefiniteThreshold = definite
			}
			if possible > 0 {
				opts.PossibleThreshold = possible
			}
			if workers > 0 {
				opts.Workers = workers
			}
			if maxBlock >= 0 {
				opts.Blocking.MaxBlockSize = maxBlock
			}

			rosterRepo := roster.NewRepository(a.db, a.logger)
			runsRepo := deduprun.NewRepository(a.db, a.logger)

			records, err := rosterRepo.LoadSnapshot(ctx)
			if err != nil {
				return err
			}

			result, err := dedupe.NewEngine(a.logger).Run(ctx, records, opts)
			if err != nil {
				return err
			}

			if err := runsRepo.CreateRun(ctx, result.Run); err != nil {
				return err
			}
			if err := runsRepo.CreatePairs(ctx, result.Pairs); err != nil {
				return err
			}
			if err := runsRepo.CreateClusters(ctx, result.Run.ID, result.Clusters); err != nil {
				return err
			}
			if err := rosterRepo.WriteAugmented(ctx, result.Records); err != nil {
				return err
			}
			if exportPath != "" {
				if err := rosterRepo.ExportAugmentedCSV(ctx, exportPath); err != nil {
					return err
				}
			}

			printRunSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().Float64Var(&definite, "definite", 0, "definite-match threshold (0 = config value)")
	cmd.Flags().Float64Var(&possible, "possible", 0, "possible-match threshold (0 = config value)")
	cmd.Flags().IntVar(&workers, "workers", 0, "scoring worker count (0 = config value)")
	cmd.Flags().IntVar(&maxBlock, "max-block", -1, "skip blocks larger than this (0 = unlimited, -1 = config value)")
	cmd.Flags().BoolVar(&conjunctive, "conjunctive", false, "require candidate pairs to share at least two block keys")
	cmd.Flags().StringVar(&exportPath, "out", "", "also export the augmented table to this CSV path")

	return cmd
}

func printRunSummary(cmd *cobra.Command, result *dedupe.Result) {
	run := result.Run

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.SetTitle("Dedupe run " + run.ID)
	t.AppendRows([]table.Row{
		{"Records", run.RecordCount},
		{"Candidate pairs", run.PairCount},
		{"Definite matches", run.DefiniteCount},
		{"Possible matches", run.PossibleCount},
		{"Clusters (size > 1)", run.ClusterCount},
		{"Skipped pairs", run.SkippedPairs},
		{"Duration", run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()},
	})
	t.Render()

	if len(result.Clusters) == 0 {
		return
	}

	ct := table.NewWriter()
	ct.SetOutputMirror(cmd.OutOrStdout())
	ct.SetStyle(table.StyleLight)
	ct.AppendHeader(table.Row{"Canonical ID", "Size", "Members"})
	shown := result.Clusters
	if len(shown) > 20 {
		shown = shown[:20]
	}
	for _, c := range shown {
		ct.AppendRow(table.Row{c.CanonicalID, c.Size, joinLimited(c.MemberIDs, 8)})
	}
	if len(result.Clusters) > len(shown) {
		ct.AppendFooter(table.Row{"", "", fmt.Sprintf("+%d more clusters", len(result.Clusters)-len(shown))})
	}
	ct.Render()
}

func joinLimited(values []string, limit int) string {
	if len(values) <= limit {
		return strings.Join(values, ", ")
	}
	return strings.Join(values[:limit], ", ") + fmt.Sprintf(", +%d more", len(values)-limit)
}
