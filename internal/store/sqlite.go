package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/hoodscore-cli/internal/report"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	profile        TEXT NOT NULL,
	config_hash    TEXT NOT NULL,
	metrics        TEXT NOT NULL,
	neighbourhoods INTEGER NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_neighbourhoods (
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	neighbourhood   TEXT NOT NULL,
	name            TEXT NOT NULL,
	composite_score INTEGER NOT NULL,
	PRIMARY KEY (run_id, neighbourhood)
);

CREATE TABLE IF NOT EXISTS run_values (
	run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	neighbourhood TEXT NOT NULL,
	metric_index  INTEGER NOT NULL,
	value         REAL,
	PRIMARY KEY (run_id, neighbourhood, metric_index)
);

CREATE INDEX IF NOT EXISTS idx_runs_profile ON runs(profile);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun stores the run and every table cell in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, meta RunMeta, t *report.Table) (*Run, error) {
	run := &Run{
		ID:             uuid.New().String(),
		Profile:        meta.Profile,
		ConfigHash:     meta.ConfigHash,
		Metrics:        append([]string(nil), t.Metrics...),
		Neighbourhoods: len(t.Rows),
		CreatedAt:      time.Now().UTC(),
	}
	metricsJSON, err := json.Marshal(run.Metrics)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal metrics")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, profile, config_hash, metrics, neighbourhoods, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Profile, run.ConfigHash, string(metricsJSON), run.Neighbourhoods, run.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	rowStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_neighbourhoods (run_id, position, neighbourhood, name, composite_score) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare row insert")
	}
	defer rowStmt.Close() //nolint:errcheck
	valStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_values (run_id, neighbourhood, metric_index, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare value insert")
	}
	defer valStmt.Close() //nolint:errcheck

	for pos, r := range t.Rows {
		if _, err := rowStmt.ExecContext(ctx, run.ID, pos, r.ID, r.Name, r.Composite); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert neighbourhood %s", r.ID)
		}
		for i, v := range r.Values {
			var val sql.NullFloat64
			if v != nil {
				val = sql.NullFloat64{Float64: *v, Valid: true}
			}
			if _, err := valStmt.ExecContext(ctx, run.ID, r.ID, i, val); err != nil {
				return nil, eris.Wrapf(err, "sqlite: insert value %s/%d", r.ID, i)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit run")
	}
	return run, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, profile, config_hash, metrics, neighbourhoods, created_at FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, profile, config_hash, metrics, neighbourhoods, created_at FROM runs WHERE 1=1`
	var args []any
	if filter.Profile != "" {
		query += ` AND profile = ?`
		args = append(args, filter.Profile)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limitOf(filter))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// LoadTable rebuilds the score table saved with run id, in its original
// row order.
func (s *SQLiteStore) LoadTable(ctx context.Context, id string) (*report.Table, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	b := newTableBuilder(run.Metrics)

	rows, err := s.db.QueryContext(ctx,
		`SELECT neighbourhood, name, composite_score FROM run_neighbourhoods WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load rows %s", id)
	}
	for rows.Next() {
		var nid, name string
		var score int
		if err := rows.Scan(&nid, &name, &score); err != nil {
			rows.Close() //nolint:errcheck
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		b.addRow(nid, name, score)
	}
	rows.Close() //nolint:errcheck
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: load rows iterate")
	}

	vals, err := s.db.QueryContext(ctx,
		`SELECT neighbourhood, metric_index, value FROM run_values WHERE run_id = ?`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load values %s", id)
	}
	defer vals.Close() //nolint:errcheck
	for vals.Next() {
		var nid string
		var idx int
		var v sql.NullFloat64
		if err := vals.Scan(&nid, &idx, &v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan value")
		}
		if v.Valid {
			f := v.Float64
			b.setValue(nid, idx, &f)
		}
	}
	return b.t, eris.Wrap(vals.Err(), "sqlite: load values iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var metricsJSON string
	err := row.Scan(&r.ID, &r.Profile, &r.ConfigHash, &metricsJSON, &r.Neighbourhoods, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := json.Unmarshal([]byte(metricsJSON), &r.Metrics); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal metrics")
	}
	return &r, nil
}
