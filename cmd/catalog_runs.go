package main

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

var runsLimit int

var catalogRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent sync and cleanup runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.RecentRuns(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "catalog runs")
		}
		if len(runs) == 0 {
			zap.L().Info("no runs recorded yet")
			return nil
		}

		if cmd.Flags().Changed("output") {
			return writeOutput(os.Stdout, outputFormat, runs)
		}
		return renderRuns(os.Stdout, runs)
	},
}

func init() {
	catalogRunsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")
	catalogCmd.AddCommand(catalogRunsCmd)
}

func renderRuns(w io.Writer, runs []model.Run) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "KIND", "STATUS", "STARTED", "DURATION", "ERROR")

	for _, r := range runs {
		dur := "-"
		if r.CompletedAt != nil {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		started := r.StartedAt
		row := []string{
			strconv.FormatInt(r.ID, 10),
			string(r.Kind),
			string(r.Status),
			formatTime(&started),
			dur,
			truncate(r.Error, 60),
		}
		if err := table.Append(row); err != nil {
			return eris.Wrap(err, "append run row")
		}
	}
	return table.Render()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
