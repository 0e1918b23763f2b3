// Package db holds the Postgres helpers behind the warehouse sink: COPY
// loads and staged upserts.
package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Table is a table name, optionally schema-qualified ("hoodscore.runs").
type Table string

// Identifier splits t into its schema and table parts.
func (t Table) Identifier() pgx.Identifier {
	if schema, name, ok := strings.Cut(string(t), "."); ok {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{string(t)}
}

// Sanitize returns t quoted for use in SQL text.
func (t Table) Sanitize() string {
	return t.Identifier().Sanitize()
}

// Copy loads rows into table with the COPY protocol. c may be a pool or a
// transaction. Every row must carry one value per column.
func Copy(ctx context.Context, c Copier, table Table, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return 0, eris.Errorf("db: copy %s: row %d has %d values for %d columns", table, i, len(r), len(columns))
		}
	}

	n, err := c.CopyFrom(ctx, table.Identifier(), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: copy %s", table)
	}
	return n, nil
}
