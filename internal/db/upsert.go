package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Upsert inserts rows into Table, updating the non-key columns of rows
// whose Key already exists.
type Upsert struct {
	Table   Table
	Columns []string
	Key     []string
}

func (u Upsert) validate() error {
	if len(u.Columns) == 0 {
		return eris.Errorf("db: upsert %s: no columns", u.Table)
	}
	if len(u.Key) == 0 {
		return eris.Errorf("db: upsert %s: no key columns", u.Table)
	}
	for _, k := range u.Key {
		if !slices.Contains(u.Columns, k) {
			return eris.Errorf("db: upsert %s: key column %q is not loaded", u.Table, k)
		}
	}
	return nil
}

// stagingTable names the temp table rows are copied into first.
func (u Upsert) stagingTable() string {
	return "stage_" + strings.ReplaceAll(string(u.Table), ".", "_")
}

// statement merges the staging table into the target. Without non-key
// columns an existing row is left alone.
func (u Upsert) statement() string {
	cols := quoteAll(u.Columns)
	action := "DO NOTHING"

	var sets []string
	for _, c := range u.Columns {
		if slices.Contains(u.Key, c) {
			continue
		}
		q := pgx.Identifier{c}.Sanitize()
		sets = append(sets, q+" = EXCLUDED."+q)
	}
	if len(sets) > 0 {
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		u.Table.Sanitize(), cols, cols,
		pgx.Identifier{u.stagingTable()}.Sanitize(),
		quoteAll(u.Key), action,
	)
}

// Exec copies rows into a temp table shaped like the target and merges them
// in one transaction. It returns the number of rows inserted or updated.
func (u Upsert) Exec(ctx context.Context, pool Pool, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := u.validate(); err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: begin tx", u.Table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stage := Table(u.stagingTable())
	create := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		stage.Sanitize(), u.Table.Sanitize())
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: create staging table", u.Table)
	}

	if _, err := Copy(ctx, tx, stage, u.Columns, rows); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: stage rows", u.Table)
	}

	tag, err := tx.Exec(ctx, u.statement())
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: merge", u.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: commit", u.Table)
	}
	return tag.RowsAffected(), nil
}

func quoteAll(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
