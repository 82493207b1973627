package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

// SQLiteStore implements Store on a local modernc.org/sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One writer; WAL readers are fine.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS cpu_catalog (
	id              TEXT PRIMARY KEY,
	brand           TEXT NOT NULL CHECK (brand IN ('INTEL', 'AMD')),
	family          TEXT NOT NULL,
	generation      TEXT NOT NULL,
	model           TEXT NOT NULL,
	base_clock_ghz  REAL,
	boost_clock_ghz REAL,
	cores           INTEGER,
	threads         INTEGER,
	socket          TEXT,
	tdp_watts       INTEGER,
	release_date    TEXT,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL,
	UNIQUE (brand, model)
);

CREATE INDEX IF NOT EXISTS idx_cpu_catalog_brand_family ON cpu_catalog(brand, family);
CREATE INDEX IF NOT EXISTS idx_cpu_catalog_brand_generation ON cpu_catalog(brand, generation);

CREATE TABLE IF NOT EXISTS cpu_catalog_runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TEXT NOT NULL,
	completed_at TEXT,
	error        TEXT,
	result       TEXT
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ExistingModels(ctx context.Context, brand model.Brand, limit int) (map[string]struct{}, error) {
	query, args, err := existingQuery(brand, limit, sqliteDialect)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build existing query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: existing models %s", brand)
	}
	defer rows.Close() //nolint:errcheck

	keys := make(map[string]struct{})
	for rows.Next() {
		var b, m string
		if err := rows.Scan(&b, &m); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan existing model")
		}
		keys[model.KeyFor(model.Brand(b), m)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: existing models %s", brand)
	}
	return keys, nil
}

func (s *SQLiteStore) InsertMany(ctx context.Context, rows []model.Processor) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	now := nowUTC().Format(sqliteTime)
	cols := append([]string{"id"}, insertColumns...)
	cols = append(cols, "created_at", "updated_at")

	ins := sq.Insert(Table).Columns(cols...).PlaceholderFormat(sq.Question)
	for _, p := range rows {
		vals := append([]any{uuid.NewString()}, processorRow(p)...)
		vals = append(vals, now, now)
		ins = ins.Values(vals...)
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: build insert")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert %d rows", len(rows))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert")
	}
	return n, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, f Filter) (int64, error) {
	query, args, err := deleteQuery(f, sqliteDialect)
	if err != nil {
		return 0, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete")
	}
	defer rows.Close() //nolint:errcheck

	var n int64
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "sqlite: delete")
	}
	return n, nil
}

func (s *SQLiteStore) Count(ctx context.Context, f Filter) (int64, error) {
	query, args, err := countQuery(f, sqliteDialect)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: build count query")
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count")
	}
	return n, nil
}

func (s *SQLiteStore) Coverage(ctx context.Context) (*model.Coverage, error) {
	query, args, err := coverageQuery()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build coverage query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: coverage")
	}
	defer rows.Close() //nolint:errcheck

	cov := &model.Coverage{}
	for rows.Next() {
		var bc model.BrandCoverage
		var brand string
		if err := rows.Scan(&brand, &bc.Models, &bc.Families); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan coverage")
		}
		bc.Brand = model.Brand(brand)
		cov.Brands = append(cov.Brands, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: coverage")
	}

	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM "+Table).Scan(&last); err != nil {
		return nil, eris.Wrap(err, "sqlite: coverage last update")
	}
	if last.Valid {
		t, err := time.Parse(sqliteTime, last.String)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse updated_at %q", last.String)
		}
		cov.LastUpdatedAt = &t
	}
	return cov, nil
}

func (s *SQLiteStore) StartRun(ctx context.Context, kind model.RunKind) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cpu_catalog_runs (kind, status, started_at) VALUES (?, ?, ?)`,
		string(kind), string(model.RunStatusRunning), nowUTC().Format(sqliteTime),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: start %s run", kind)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: run id")
	}
	return id, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID int64, result any, runErr error) error {
	completed := nowUTC().Format(sqliteTime)
	if runErr != nil {
		_, err := s.db.ExecContext(ctx,
			`UPDATE cpu_catalog_runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
			string(model.RunStatusFailed), completed, runErr.Error(), runID,
		)
		return eris.Wrapf(err, "sqlite: fail run %d", runID)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run result")
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE cpu_catalog_runs SET status = ?, completed_at = ?, result = ? WHERE id = ?`,
		string(model.RunStatusComplete), completed, string(data), runID,
	)
	return eris.Wrapf(err, "sqlite: complete run %d", runID)
}

func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, status, started_at, completed_at, COALESCE(error, ''), result
		 FROM cpu_catalog_runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		var (
			r         model.Run
			kind      string
			status    string
			started   string
			completed sql.NullString
			raw       sql.NullString
		)
		if err := rows.Scan(&r.ID, &kind, &status, &started, &completed, &r.Error, &raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Kind = model.RunKind(kind)
		r.Status = model.RunStatus(status)
		if r.StartedAt, err = time.Parse(sqliteTime, started); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse run %d started_at", r.ID)
		}
		if completed.Valid {
			t, err := time.Parse(sqliteTime, completed.String)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: parse run %d completed_at", r.ID)
			}
			r.CompletedAt = &t
		}
		if raw.Valid && raw.String != "" {
			if err := json.Unmarshal([]byte(raw.String), &r.Result); err != nil {
				return nil, eris.Wrapf(err, "sqlite: decode run %d result", r.ID)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
