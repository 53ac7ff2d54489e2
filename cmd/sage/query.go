package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/sage/internal/repositories/roster"
	"github.com/Ramsey-B/sage/pkg/nlquery"
)

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <question>",
		Short: "Ask the roster a question in plain English",
		Long:  `Translates a natural-language question into SQL and prints the result, e.g. sage query "how many cardiologists practice in Houston?"`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			translated := nlquery.NewTranslator(a.logger).Translate(args[0])
			if !nlquery.IsReadOnly(translated.SQL) {
				return fmt.Errorf("generated statement is not read-only: %s", translated.SQL)
			}

			rows, err := roster.NewRepository(a.db, a.logger).Query(ctx, translated.SQL, translated.Args...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "SQL: %s\n", translated.SQL)
			printQueryRows(cmd, rows)
			return nil
		},
	}
}

func printQueryRows(cmd *cobra.Command, rows []map[string]any) {
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No rows returned")
		return
	}

	columns := rowColumns(rows)

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(columns))
	for _, col := range columns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, row := range rows {
		out := make(table.Row, 0, len(columns))
		for _, col := range columns {
			val, ok := row[col]
			if !ok || val == nil {
				out = append(out, "")
				continue
			}
			out = append(out, fmt.Sprintf("%v", val))
		}
		t.AppendRow(out)
	}
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "%d row(s)\n", len(rows))
}

// rowColumns collects the union of keys across rows so sparse results
// still render every column.
func rowColumns(rows []map[string]any) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		for col := range row {
			seen[col] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for col := range seen {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	// provider_id leads when present, matching the roster table shape
	for i, col := range columns {
		if strings.EqualFold(col, "provider_id") && i != 0 {
			copy(columns[1:i+1], columns[:i])
			columns[0] = "provider_id"
			break
		}
	}
	return columns
}
