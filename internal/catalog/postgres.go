package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ewaste-depot/cpu-catalog/internal/db"
	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects to dsn and verifies the connection.
func NewPostgres(ctx context.Context, dsn string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	if maxConns <= 0 {
		maxConns = 10
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, typically a pgxmock pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return MigratePostgres(ctx, s.pool)
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ExistingModels(ctx context.Context, brand model.Brand, limit int) (map[string]struct{}, error) {
	query, args, err := existingQuery(brand, limit, postgresDialect)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build existing query")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: existing models %s", brand)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var b, m string
		if err := rows.Scan(&b, &m); err != nil {
			return nil, eris.Wrap(err, "postgres: scan existing model")
		}
		keys[model.KeyFor(model.Brand(b), m)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: existing models %s", brand)
	}
	return keys, nil
}

func (s *PostgresStore) InsertMany(ctx context.Context, rows []model.Processor) (int64, error) {
	data := make([][]any, len(rows))
	for i, p := range rows {
		data[i] = processorRow(p)
	}
	n, err := db.CopyFrom(ctx, s.pool, Table, insertColumns, data)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert %d rows", len(rows))
	}
	return n, nil
}

func (s *PostgresStore) Delete(ctx context.Context, f Filter) (int64, error) {
	query, args, err := deleteQuery(f, postgresDialect)
	if err != nil {
		return 0, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete")
	}
	defer rows.Close()

	var n int64
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "postgres: delete")
	}
	return n, nil
}

func (s *PostgresStore) Count(ctx context.Context, f Filter) (int64, error) {
	query, args, err := countQuery(f, postgresDialect)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: build count query")
	}

	var n int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count")
	}
	return n, nil
}

func (s *PostgresStore) Coverage(ctx context.Context) (*model.Coverage, error) {
	query, args, err := coverageQuery()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build coverage query")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: coverage")
	}
	defer rows.Close()

	cov := &model.Coverage{}
	for rows.Next() {
		var bc model.BrandCoverage
		var brand string
		if err := rows.Scan(&brand, &bc.Models, &bc.Families); err != nil {
			return nil, eris.Wrap(err, "postgres: scan coverage")
		}
		bc.Brand = model.Brand(brand)
		cov.Brands = append(cov.Brands, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: coverage")
	}

	var last *time.Time
	if err := s.pool.QueryRow(ctx, "SELECT MAX(updated_at) FROM "+Table).Scan(&last); err != nil {
		return nil, eris.Wrap(err, "postgres: coverage last update")
	}
	cov.LastUpdatedAt = last
	return cov, nil
}

func (s *PostgresStore) StartRun(ctx context.Context, kind model.RunKind) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO cpu_catalog_runs (kind, status, started_at) VALUES ($1, 'running', now()) RETURNING id`,
		string(kind),
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: start %s run", kind)
	}
	return id, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID int64, result any, runErr error) error {
	if runErr != nil {
		_, err := s.pool.Exec(ctx,
			`UPDATE cpu_catalog_runs SET status = 'failed', completed_at = now(), error = $1 WHERE id = $2`,
			runErr.Error(), runID,
		)
		return eris.Wrapf(err, "postgres: fail run %d", runID)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run result")
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE cpu_catalog_runs SET status = 'complete', completed_at = now(), result = $1 WHERE id = $2`,
		data, runID,
	)
	return eris.Wrapf(err, "postgres: complete run %d", runID)
}

func (s *PostgresStore) RecentRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, status, started_at, completed_at, COALESCE(error, ''), result
		 FROM cpu_catalog_runs ORDER BY started_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			r      model.Run
			kind   string
			status string
			raw    []byte
		)
		if err := rows.Scan(&r.ID, &kind, &status, &r.StartedAt, &r.CompletedAt, &r.Error, &raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Kind = model.RunKind(kind)
		r.Status = model.RunStatus(status)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &r.Result); err != nil {
				return nil, eris.Wrapf(err, "postgres: decode run %d result", r.ID)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
