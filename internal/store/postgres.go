package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoodscore-cli/internal/boundary"
	"github.com/sells-group/hoodscore-cli/internal/db"
	"github.com/sells-group/hoodscore-cli/internal/report"
)

// Schema holds every warehouse table.
const Schema = "hoodscore"

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;
CREATE SCHEMA IF NOT EXISTS hoodscore;

CREATE TABLE IF NOT EXISTS hoodscore.runs (
	id             TEXT PRIMARY KEY,
	profile        TEXT NOT NULL,
	config_hash    TEXT NOT NULL,
	metrics        TEXT[] NOT NULL,
	neighbourhoods INTEGER NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS hoodscore.run_neighbourhoods (
	run_id          TEXT NOT NULL REFERENCES hoodscore.runs(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	neighbourhood   TEXT NOT NULL,
	name            TEXT NOT NULL,
	composite_score SMALLINT NOT NULL,
	PRIMARY KEY (run_id, neighbourhood)
);

CREATE TABLE IF NOT EXISTS hoodscore.run_values (
	run_id        TEXT NOT NULL REFERENCES hoodscore.runs(id) ON DELETE CASCADE,
	neighbourhood TEXT NOT NULL,
	metric_index  INTEGER NOT NULL,
	value         DOUBLE PRECISION,
	PRIMARY KEY (run_id, neighbourhood, metric_index)
);

CREATE TABLE IF NOT EXISTS hoodscore.boundaries (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	population DOUBLE PRECISION,
	area_km2   DOUBLE PRECISION NOT NULL,
	geom       geometry(MultiPolygon, 4326) NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_profile ON hoodscore.runs(profile);
CREATE INDEX IF NOT EXISTS idx_boundaries_geom ON hoodscore.boundaries USING GIST (geom);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveRun inserts the run row and COPYs the table cells in one transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, meta RunMeta, t *report.Table) (*Run, error) {
	run := &Run{
		ID:             uuid.New().String(),
		Profile:        meta.Profile,
		ConfigHash:     meta.ConfigHash,
		Metrics:        append([]string{}, t.Metrics...),
		Neighbourhoods: len(t.Rows),
		CreatedAt:      time.Now().UTC(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO hoodscore.runs (id, profile, config_hash, metrics, neighbourhoods, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Profile, run.ConfigHash, run.Metrics, run.Neighbourhoods, run.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	rows := make([][]any, 0, len(t.Rows))
	values := make([][]any, 0, len(t.Rows)*len(t.Metrics))
	for pos, r := range t.Rows {
		rows = append(rows, []any{run.ID, pos, r.ID, r.Name, r.Composite})
		for i, v := range r.Values {
			values = append(values, []any{run.ID, r.ID, i, v})
		}
	}
	if _, err := db.Copy(ctx, tx, db.Table(Schema+".run_neighbourhoods"),
		[]string{"run_id", "position", "neighbourhood", "name", "composite_score"}, rows); err != nil {
		return nil, eris.Wrap(err, "postgres: save run rows")
	}
	if _, err := db.Copy(ctx, tx, db.Table(Schema+".run_values"),
		[]string{"run_id", "neighbourhood", "metric_index", "value"}, values); err != nil {
		return nil, eris.Wrap(err, "postgres: save run values")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit run")
	}
	return run, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var r Run
	err := s.pool.QueryRow(ctx,
		`SELECT id, profile, config_hash, metrics, neighbourhoods, created_at FROM hoodscore.runs WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Profile, &r.ConfigHash, &r.Metrics, &r.Neighbourhoods, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrRunNotFound, "postgres: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, profile, config_hash, metrics, neighbourhoods, created_at FROM hoodscore.runs`
	args := []any{}
	if filter.Profile != "" {
		query += ` WHERE profile = $1`
		args = append(args, filter.Profile)
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Profile != "" {
		query += ` LIMIT $2`
	} else {
		query += ` LIMIT $1`
	}
	args = append(args, limitOf(filter))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Profile, &r.ConfigHash, &r.Metrics, &r.Neighbourhoods, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) LoadTable(ctx context.Context, id string) (*report.Table, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	b := newTableBuilder(run.Metrics)

	rows, err := s.pool.Query(ctx,
		`SELECT neighbourhood, name, composite_score FROM hoodscore.run_neighbourhoods WHERE run_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load rows %s", id)
	}
	for rows.Next() {
		var nid, name string
		var score int
		if err := rows.Scan(&nid, &name, &score); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		b.addRow(nid, name, score)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: load rows iterate")
	}

	vals, err := s.pool.Query(ctx,
		`SELECT neighbourhood, metric_index, value FROM hoodscore.run_values WHERE run_id = $1`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load values %s", id)
	}
	defer vals.Close()
	for vals.Next() {
		var nid string
		var idx int
		var v *float64
		if err := vals.Scan(&nid, &idx, &v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan value")
		}
		b.setValue(nid, idx, v)
	}
	return b.t, eris.Wrap(vals.Err(), "postgres: load values iterate")
}

// SaveBoundaries upserts the neighbourhood geometries as EWKB. Boundaries
// whose geometry cannot be encoded are skipped and logged.
func (s *PostgresStore) SaveBoundaries(ctx context.Context, set *boundary.Set) (int64, error) {
	rows := make([][]any, 0, set.Len())
	now := time.Now().UTC()
	for _, n := range set.All() {
		g, err := EncodeMultiPolygon(n.Geometry)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: encode boundary %s", n.ID)
		}
		if g == nil {
			zap.L().Warn("postgres: boundary has no encodable geometry", zap.String("id", n.ID))
			continue
		}
		rows = append(rows, []any{n.ID, n.Name, n.Population, n.AreaKM2, g, now})
	}

	count, err := db.Upsert{
		Table:   db.Table(Schema + ".boundaries"),
		Columns: []string{"id", "name", "population", "area_km2", "geom", "updated_at"},
		Key:     []string{"id"},
	}.Exec(ctx, s.pool, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save boundaries")
	}
	return count, nil
}
