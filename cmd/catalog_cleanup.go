package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ewaste-depot/cpu-catalog/internal/cleanup"
)

var (
	cleanupConfirmed bool
	cleanupDryRun    bool
)

var catalogCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete catalog rows outside the curation policy",
	Long: `Permanently deletes value-line families (Athlon, Atom, Celeron, Pentium),
unwanted Xeon families, Xeon E3/E5/E7 rows below v3, Core i-series generations
1-3, and rows released before ` + cleanup.Cutoff.Format("2006-01-02") + `. There is no undo; pass --yes to confirm,
or --dry-run to count the rows each rule matches without deleting them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cleanupConfirmed && !cleanupDryRun {
			return eris.New("catalog cleanup deletes rows permanently; re-run with --yes to confirm")
		}

		ctx := cmd.Context()
		if err := cfg.Validate("cleanup"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		c := cleanup.New(st)
		c.RecordRuns = cfg.Store.RecordRuns

		run := c.Run
		if cleanupDryRun {
			run = c.Preview
		}
		res, err := run(ctx)
		if err != nil {
			return eris.Wrap(err, "catalog cleanup")
		}

		env, err := successEnvelope(res)
		if err != nil {
			return err
		}
		return writeOutput(os.Stdout, outputFormat, env)
	},
}

func init() {
	catalogCleanupCmd.Flags().BoolVar(&cleanupConfirmed, "yes", false, "confirm permanent deletion")
	catalogCleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "count matching rows without deleting")
	catalogCmd.AddCommand(catalogCleanupCmd)
}
