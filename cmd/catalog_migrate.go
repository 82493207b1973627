package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var catalogMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply catalog schema migrations",
	Long:  "Creates or upgrades the cpu_catalog and cpu_catalog_runs tables of the configured store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "catalog migrate")
		}

		zap.L().Info("catalog migrations applied", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogMigrateCmd)
}
