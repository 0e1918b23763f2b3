package scorer

import (
	"math"
	"sort"

	"github.com/sells-group/hoodscore-cli/internal/config"
)

// Input is everything the scorer needs for one neighbourhood.
type Input struct {
	ID string
	// Components holds normalized [0,1] values by metric name. A nil or
	// absent value means no data and contributes nothing.
	Components map[string]*float64
	// Raw holds raw metric values by metric name for bonus rules.
	Raw map[string]*float64
	// AreaKM2 and Density feed the penalty rule. A neighbourhood whose
	// density is unknown is never penalized.
	AreaKM2    float64
	Density    float64
	HasDensity bool
}

// Result is a composite score with its breakdown.
type Result struct {
	ID    string
	Score int
	// Weighted is the pre-penalty sum of component points and bonuses.
	Weighted   float64
	Components map[string]float64
	Bonuses    map[string]float64
	Penalty    string
	Multiplier float64
	// NoData is set when no component had a value.
	NoData bool
	Passed bool
}

// Compute scores one neighbourhood. The order is fixed: weighted components
// plus capped bonuses, then the penalty multiplier, then the clamp to
// [0,100], then rounding to an integer.
func Compute(in Input, cfg config.ScoringConfig) Result {
	res := Result{
		ID:         in.ID,
		Components: make(map[string]float64, len(cfg.Components)),
		Multiplier: 1,
		NoData:     true,
	}

	var total float64
	for _, comp := range cfg.Components {
		v := in.Components[comp.Metric]
		if v == nil || math.IsNaN(*v) {
			res.Components[comp.Metric] = 0
			continue
		}
		res.NoData = false
		points := comp.Weight * clamp(*v, 0, 1)
		res.Components[comp.Metric] = points
		total += points
	}

	if len(cfg.Bonuses) > 0 {
		res.Bonuses = make(map[string]float64, len(cfg.Bonuses))
	}
	for _, b := range cfg.Bonuses {
		var raw float64
		if v := in.Raw[b.Metric]; v != nil && !math.IsNaN(*v) {
			raw = *v
		}
		points := clamp(b.PointsPerUnit*raw, 0, b.Cap)
		res.Bonuses[b.Name] = points
		total += points
	}
	res.Weighted = total

	for _, p := range cfg.Penalties {
		if in.HasDensity && in.AreaKM2 > p.MinAreaKM2 && in.Density < p.MaxDensity {
			res.Penalty = p.Name
			res.Multiplier = p.Multiplier
			total *= p.Multiplier
			break
		}
	}

	res.Score = int(math.Round(clamp(total, 0, 100)))
	res.Passed = float64(res.Score) >= cfg.MinScore
	return res
}

// Rank returns results ordered by score descending, ties broken by id.
func Rank(results []Result) []Result {
	out := make([]Result, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
