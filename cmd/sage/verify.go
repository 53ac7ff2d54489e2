package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/sage/internal/repositories/registry"
	"github.com/Ramsey-B/sage/internal/repositories/roster"
	"github.com/Ramsey-B/sage/pkg/normalizers"
	"github.com/Ramsey-B/sage/pkg/verification"
)

func newVerifyCmd() *cobra.Command {
	var (
		npiPath    string
		stateSpecs []string
		refDate    string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the roster against ground-truth registries",
		Long:  "Compares every roster row against the NPI registry and state license boards, writes the roster_validated table, and reports mismatches.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			registryRepo := registry.NewRepository(a.logger)
			if npiPath != "" {
				if _, err := registryRepo.LoadNPIRegistry(ctx, npiPath); err != nil {
					return err
				}
			}
			for _, spec := range stateSpecs {
				state, path, err := splitStateSpec(spec)
				if err != nil {
					return err
				}
				if _, err := registryRepo.LoadStateLicenses(ctx, state, path); err != nil {
					return err
				}
			}
			if npiPath == "" && len(stateSpecs) == 0 {
				return fmt.Errorf("at least one registry is required (--npi or --state)")
			}

			reference, err := resolveReferenceDate(refDate, a.cfg.VerifyReferenceDate)
			if err != nil {
				return err
			}

			rosterRepo := roster.NewRepository(a.db, a.logger)
			records, err := rosterRepo.LoadSnapshot(ctx)
			if err != nil {
				return err
			}
			columns, err := rosterRepo.Columns(ctx)
			if err != nil {
				return err
			}

			verifier := verification.NewVerifier(registryRepo, a.logger, reference)
			result, err := verifier.Verify(ctx, records, columns)
			if err != nil {
				return err
			}

			if err := rosterRepo.ReplaceTable(ctx, roster.ValidatedTableName, result.Header, result.Rows); err != nil {
				return err
			}

			printVerifySummary(cmd, len(records), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&npiPath, "npi", "", "path to the NPI registry CSV")
	cmd.Flags().StringArrayVar(&stateSpecs, "state", nil, "state license CSV as CODE=path (repeatable, e.g. --state NY=ny.csv)")
	cmd.Flags().StringVar(&refDate, "reference-date", "", "date licenses are judged against (default: today)")

	return cmd
}

func splitStateSpec(spec string) (state, path string, err error) {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("invalid --state value %q, expected CODE=path", spec)
	}
	return parts[0], parts[1], nil
}

func resolveReferenceDate(flagValue, configValue string) (time.Time, error) {
	raw := flagValue
	if raw == "" {
		raw = configValue
	}
	if raw == "" {
		return time.Time{}, nil
	}
	t, ok := normalizers.ParseDate(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid reference date %q", raw)
	}
	return t, nil
}

func printVerifySummary(cmd *cobra.Command, total int, result *verification.Result) {
	fmt.Fprintf(cmd.OutOrStdout(), "Verified %d roster rows: %d mismatched\n", total, len(result.Mismatches))
	if len(result.Mismatches) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Provider ID", "Reasons"})
	shown := result.Mismatches
	if len(shown) > 25 {
		shown = shown[:25]
	}
	for _, m := range shown {
		t.AppendRow(table.Row{m.ProviderID, strings.Join(m.Reasons, ", ")})
	}
	if len(result.Mismatches) > len(shown) {
		t.AppendFooter(table.Row{"", fmt.Sprintf("+%d more rows", len(result.Mismatches)-len(shown))})
	}
	t.Render()
}
