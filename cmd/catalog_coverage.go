package main

import (
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

var catalogCoverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Show catalog counts per brand",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("coverage"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cov, err := st.Coverage(ctx)
		if err != nil {
			return eris.Wrap(err, "catalog coverage")
		}

		if cmd.Flags().Changed("output") {
			return writeOutput(os.Stdout, outputFormat, cov)
		}
		return renderCoverage(os.Stdout, cov)
	},
}

func init() {
	catalogCmd.AddCommand(catalogCoverageCmd)
}

// renderCoverage writes one table row per brand plus a total row.
func renderCoverage(w io.Writer, cov *model.Coverage) error {
	table := tablewriter.NewWriter(w)
	table.Header("BRAND", "MODELS", "FAMILIES", "LAST UPDATED")

	var total int64
	for _, b := range []model.Brand{model.BrandIntel, model.BrandAMD} {
		bc := cov.ForBrand(b)
		total += bc.Models
		row := []string{
			string(b),
			strconv.FormatInt(bc.Models, 10),
			strconv.FormatInt(bc.Families, 10),
			"",
		}
		if err := table.Append(row); err != nil {
			return eris.Wrap(err, "append coverage row")
		}
	}
	if err := table.Append([]string{"TOTAL", strconv.FormatInt(total, 10), "", formatTime(cov.LastUpdatedAt)}); err != nil {
		return eris.Wrap(err, "append coverage total")
	}
	return table.Render()
}
