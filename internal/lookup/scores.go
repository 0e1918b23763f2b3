// Package lookup loads precomputed neighbourhood scores and the alias file
// that maps name variants onto neighbourhood ids.
package lookup

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoodscore-cli/internal/tabular"
)

// Stats counts rows dropped while reading a score table.
type Stats struct {
	Rows      int
	Malformed int
	Duplicate int
}

// LoadScores reads a flat id -> score table from a CSV or XLSX file. Rows
// with a blank id or an unparsable value are skipped and counted. A repeated
// id keeps its first value.
func LoadScores(ctx context.Context, path, idColumn, valueColumn string) (map[string]float64, Stats, error) {
	table, err := tabular.ReadFile(ctx, path)
	if err != nil {
		return nil, Stats{}, eris.Wrap(err, "lookup: read scores")
	}
	if err := table.Require(idColumn, valueColumn); err != nil {
		return nil, Stats{}, eris.Wrapf(err, "lookup: %s", path)
	}

	idIdx, valIdx := table.Col(idColumn), table.Col(valueColumn)
	out := make(map[string]float64, len(table.Rows))
	stats := Stats{Malformed: table.Skipped}
	for _, row := range table.Rows {
		stats.Rows++
		id := tabular.Value(row, idIdx)
		v, ok := tabular.ParseFloat(tabular.Value(row, valIdx))
		if id == "" || !ok {
			stats.Malformed++
			continue
		}
		if _, dup := out[id]; dup {
			stats.Duplicate++
			continue
		}
		out[id] = v
	}

	if stats.Malformed > 0 || stats.Duplicate > 0 {
		zap.L().Warn("lookup: rows skipped",
			zap.String("path", path),
			zap.Int("malformed", stats.Malformed),
			zap.Int("duplicate", stats.Duplicate),
		)
	}
	return out, stats, nil
}
