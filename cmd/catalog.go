package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ewaste-depot/cpu-catalog/internal/catalog"
	"github.com/ewaste-depot/cpu-catalog/internal/fetcher"
)

var outputFormat string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the CPU catalog",
	Long:  "Sync new processor models into the catalog, clean out-of-policy rows, and inspect coverage and run history.",
}

func init() {
	catalogCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(catalogCmd)
}

// openStore connects to the configured catalog backend.
func openStore(ctx context.Context) (catalog.Store, error) {
	return catalog.Open(ctx, catalog.Options{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		MaxConns:    cfg.Store.MaxConns,
	})
}

// newFetcher builds the source fetcher from the fetch settings.
func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:         cfg.Fetch.UserAgent,
		Timeout:           cfg.Fetch.Timeout(),
		MaxRetries:        cfg.Fetch.MaxRetries,
		RequestsPerSecond: cfg.Fetch.RequestsPerSec,
		MaxBodyBytes:      int64(cfg.Fetch.MaxBodyMB) << 20,
	})
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
