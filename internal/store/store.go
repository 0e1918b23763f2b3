// Package store persists scoring runs: a local SQLite history and an
// optional Postgres warehouse sink.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hoodscore-cli/internal/report"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = eris.New("store: run not found")

// Run is the metadata of one saved scoring run.
type Run struct {
	ID             string    `json:"id"`
	Profile        string    `json:"profile"`
	ConfigHash     string    `json:"config_hash"`
	Metrics        []string  `json:"metrics"`
	Neighbourhoods int       `json:"neighbourhoods"`
	CreatedAt      time.Time `json:"created_at"`
}

// RunMeta describes a run about to be saved.
type RunMeta struct {
	Profile    string
	ConfigHash string
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Profile string `json:"profile,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Store saves score tables and reads them back.
type Store interface {
	SaveRun(ctx context.Context, meta RunMeta, t *report.Table) (*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	LoadTable(ctx context.Context, id string) (*report.Table, error)

	Migrate(ctx context.Context) error
	Close() error
}

func limitOf(f RunFilter) int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// tableBuilder rebuilds a report.Table from stored rows.
type tableBuilder struct {
	t   *report.Table
	pos map[string]int
}

func newTableBuilder(metrics []string) *tableBuilder {
	return &tableBuilder{t: &report.Table{Metrics: metrics}, pos: make(map[string]int)}
}

func (b *tableBuilder) addRow(id, name string, composite int) {
	b.pos[id] = len(b.t.Rows)
	b.t.Rows = append(b.t.Rows, report.Row{
		ID:        id,
		Name:      name,
		Composite: composite,
		Values:    make([]*float64, len(b.t.Metrics)),
	})
}

func (b *tableBuilder) setValue(id string, idx int, v *float64) {
	i, ok := b.pos[id]
	if !ok || idx < 0 || idx >= len(b.t.Metrics) {
		return
	}
	b.t.Rows[i].Values[idx] = v
}
