// Package catalog is the persistent CPU catalog: one row per (brand, model)
// with the curated hardware attributes owned by manual entry.
package catalog

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

// Table is the catalog table name.
const Table = "cpu_catalog"

// RunTable records sync and cleanup runs.
const RunTable = "cpu_catalog_runs"

// insertColumns are the columns written by sync inserts.
var insertColumns = []string{"brand", "family", "generation", "model", "base_clock_ghz"}

var (
	// ErrUnboundedDelete is returned for a delete without any predicate.
	ErrUnboundedDelete = eris.New("catalog: refusing delete without predicate")

	// ErrMissingDatabaseURL is returned when no store DSN is configured.
	ErrMissingDatabaseURL = eris.New("catalog: store.database_url is not configured")
)

// Store defines the persistence operations used by the sync and cleanup
// pipelines.
type Store interface {
	// ExistingModels returns the natural keys (see model.KeyFor) of up to
	// limit rows of the given brand.
	ExistingModels(ctx context.Context, brand model.Brand, limit int) (map[string]struct{}, error)

	// InsertMany inserts rows in one statement and returns how many were
	// written. A rejected row fails the whole call.
	InsertMany(ctx context.Context, rows []model.Processor) (int64, error)

	// Delete hard-deletes the rows matching f and returns how many went.
	Delete(ctx context.Context, f Filter) (int64, error)

	// Count returns the number of rows matching f; an empty filter counts
	// the whole table.
	Count(ctx context.Context, f Filter) (int64, error)

	// Coverage summarizes the catalog per brand.
	Coverage(ctx context.Context) (*model.Coverage, error)

	// Run log
	StartRun(ctx context.Context, kind model.RunKind) (int64, error)
	FinishRun(ctx context.Context, runID int64, result any, runErr error) error
	RecentRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Options configures store construction.
type Options struct {
	Driver      string
	DatabaseURL string
	MaxConns    int32
}

// Open constructs the store named by opts.Driver ("postgres" or "sqlite").
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	switch opts.Driver {
	case "", "postgres":
		return NewPostgres(ctx, opts.DatabaseURL, opts.MaxConns)
	case "sqlite":
		return NewSQLite(opts.DatabaseURL)
	default:
		return nil, eris.Errorf("catalog: unknown store driver %q (valid: postgres, sqlite)", opts.Driver)
	}
}

func processorRow(p model.Processor) []any {
	return []any{string(p.Brand), p.Family, p.Generation, p.Model, p.BaseClockGHz}
}

// sqliteTime is the timestamp layout of the SQLite backend; fixed width so
// MAX() over the text column picks the latest instant.
const sqliteTime = "2006-01-02 15:04:05.000000"

func nowUTC() time.Time { return time.Now().UTC() }
