// Package assign maps raw features onto the neighbourhood that contains
// their representative point.
package assign

import (
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/sells-group/hoodscore-cli/internal/boundary"
	"github.com/sells-group/hoodscore-cli/internal/feature"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// Engine assigns features against a read-only boundary set. It holds no
// mutable state and may be shared by concurrent callers.
type Engine struct {
	set   *boundary.Set
	items []*boundary.Neighbourhood
	log   *zap.Logger
}

// New creates an Engine over set. Neighbourhoods are tried in the set's
// ascending id order.
func New(set *boundary.Set, opts ...Option) *Engine {
	e := &Engine{
		set:   set,
		items: set.All(),
		log:   zap.L().With(zap.String("component", "assign")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Set returns the boundary set the engine was built over.
func (e *Engine) Set() *boundary.Set {
	return e.set
}

// Locate returns the id of the first neighbourhood, in id order, whose
// boundary contains p. The bounding box check only skips neighbourhoods
// that cannot contain p.
func (e *Engine) Locate(p orb.Point) (string, bool) {
	for _, n := range e.items {
		if n.Contains(p) {
			return n.ID, true
		}
	}
	return "", false
}

// Assign places every feature in at most one neighbourhood. Features whose
// representative point falls outside every boundary go to Unassigned;
// features without a usable representative point are only counted.
func (e *Engine) Assign(features []feature.RawFeature) *Result {
	res := &Result{ByNeighbourhood: make(map[string][]feature.RawFeature, len(e.items))}
	for _, f := range features {
		p, ok := f.RepresentativePoint()
		if !ok {
			res.MissingGeometry++
			continue
		}
		id, ok := e.Locate(p)
		if !ok {
			res.Unassigned = append(res.Unassigned, f)
			continue
		}
		res.ByNeighbourhood[id] = append(res.ByNeighbourhood[id], f)
	}

	if len(res.Unassigned) > 0 {
		e.log.Warn("features outside every boundary",
			zap.String("source", sourceOf(features)),
			zap.Int("unassigned", len(res.Unassigned)),
			zap.Int("total", len(features)),
		)
	}
	if res.MissingGeometry > 0 {
		e.log.Warn("features without a representative point",
			zap.String("source", sourceOf(features)),
			zap.Int("missing_geometry", res.MissingGeometry),
		)
	}
	return res
}

func sourceOf(features []feature.RawFeature) string {
	if len(features) == 0 {
		return ""
	}
	return features[0].Source
}
