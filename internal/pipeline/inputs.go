package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoodscore-cli/internal/aggregate"
	"github.com/sells-group/hoodscore-cli/internal/assign"
	"github.com/sells-group/hoodscore-cli/internal/boundary"
	"github.com/sells-group/hoodscore-cli/internal/lookup"
)

// AggregateTracts loads the tract polygons and attributes and rolls them up
// onto the engine's neighbourhoods.
func (p *Pipeline) AggregateTracts(ctx context.Context, engine *assign.Engine) (*aggregate.Result, error) {
	tc := p.cfg.Tracts
	tracts, _, err := aggregate.LoadTracts(ctx, tc.GeometryPath, tc.AttributesPath, aggregate.TractSpec{
		IDField:           tc.IDField,
		AttributeIDColumn: tc.AttributeIDColumn,
		Attributes:        tc.Attributes,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: tracts")
	}

	res := aggregate.Aggregate(engine, tracts, tc.Attributes)
	p.log.Info("aggregated tracts",
		zap.Int("tracts", len(tracts)),
		zap.Int("unmatched", len(res.Unmatched)),
		zap.Int("neighbourhoods", len(res.Members)),
	)
	return res, nil
}

// LoadLookups reads every configured lookup table keyed by neighbourhood
// id. Tables keyed by name are resolved through the alias file.
func (p *Pipeline) LoadLookups(ctx context.Context, set *boundary.Set) (map[string]map[string]float64, error) {
	out := make(map[string]map[string]float64, len(p.cfg.Lookups))
	if len(p.cfg.Lookups) == 0 {
		return out, nil
	}

	var resolver *lookup.Resolver
	for _, l := range p.cfg.Lookups {
		table, _, err := lookup.LoadScores(ctx, l.Path, l.IDColumn, l.ValueColumn)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: lookup %s", l.Name)
		}

		if l.ByName {
			if resolver == nil {
				resolver, err = p.resolver(set)
				if err != nil {
					return nil, err
				}
			}
			var unknown []string
			table, unknown = resolver.ResolveTable(table)
			if len(unknown) > 0 {
				p.log.Warn("lookup names without a neighbourhood",
					zap.String("lookup", l.Name),
					zap.Strings("names", unknown),
				)
			}
		}
		out[l.Name] = table
	}
	return out, nil
}

func (p *Pipeline) resolver(set *boundary.Set) (*lookup.Resolver, error) {
	aliases, err := lookup.LoadAliases(p.cfg.Aliases)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: aliases")
	}
	names := make(map[string]string, set.Len())
	for _, n := range set.All() {
		names[n.ID] = n.Name
	}
	r := lookup.NewResolver(names, aliases)
	if c := r.Conflicts(); len(c) > 0 {
		p.log.Warn("ambiguous neighbourhood names ignored", zap.Strings("names", c))
	}
	return r, nil
}
