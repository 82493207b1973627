package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ewaste-depot/cpu-catalog/internal/catalogsync"
	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

var syncScope string

var catalogSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Insert newly listed processor models",
	Long:  "Fetches the processor listings of the selected brands, extracts models, and inserts those not yet in the catalog. Safe to re-run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		s := catalogsync.New(st, newFetcher())
		s.RecordRuns = cfg.Store.RecordRuns

		res, err := s.Run(ctx, model.ParseScope(syncScope))
		if err != nil {
			return eris.Wrap(err, "catalog sync")
		}

		env, err := successEnvelope(res)
		if err != nil {
			return err
		}
		return writeOutput(os.Stdout, outputFormat, env)
	},
}

func init() {
	catalogSyncCmd.Flags().StringVar(&syncScope, "scope", "all", "brands to sync: intel, amd or all")
	catalogCmd.AddCommand(catalogSyncCmd)
}
