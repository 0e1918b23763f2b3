package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hoodscore-cli/internal/config"
)

func f(v float64) *float64 { return &v }

func ruralProfile() config.ScoringConfig {
	return config.ScoringConfig{
		Components: []config.ComponentWeight{
			{Metric: "parks", Weight: 50},
			{Metric: "transit", Weight: 30},
			{Metric: "canopy", Weight: 20},
		},
		Penalties: []config.PenaltyRule{
			{Name: "sparse_rural", MinAreaKM2: 50, MaxDensity: 100, Multiplier: 0.5},
		},
	}
}

func TestCompute_RuralPenalty(t *testing.T) {
	// Components give 40 + 24 + 16 = 80 before the penalty.
	in := Input{
		ID:         "x",
		Components: map[string]*float64{"parks": f(0.8), "transit": f(0.8), "canopy": f(0.8)},
		AreaKM2:    60,
		Density:    50,
		HasDensity: true,
	}

	res := Compute(in, ruralProfile())

	assert.InDelta(t, 80, res.Weighted, 1e-9)
	assert.Equal(t, 40, res.Score)
	assert.Equal(t, "sparse_rural", res.Penalty)
	assert.Equal(t, 0.5, res.Multiplier)
}

func TestCompute_PenaltyConditions(t *testing.T) {
	full := map[string]*float64{"parks": f(1), "transit": f(1), "canopy": f(1)}
	tests := []struct {
		name       string
		area       float64
		density    float64
		hasDensity bool
		want       int
	}{
		{"large and sparse", 60, 50, true, 50},
		{"area at the limit is not over it", 50, 50, true, 100},
		{"dense", 60, 100, true, 100},
		{"small", 10, 5, true, 100},
		{"unknown density", 60, 0, false, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compute(Input{Components: full, AreaKM2: tt.area, Density: tt.density, HasDensity: tt.hasDensity}, ruralProfile())
			assert.Equal(t, tt.want, res.Score)
		})
	}
}

func TestCompute_NoDataScoresZero(t *testing.T) {
	res := Compute(Input{ID: "empty"}, ruralProfile())

	assert.Equal(t, 0, res.Score)
	assert.True(t, res.NoData)
	assert.Len(t, res.Components, 3)

	res = Compute(Input{Components: map[string]*float64{"parks": nil, "transit": nil}}, ruralProfile())
	assert.Equal(t, 0, res.Score)
	assert.True(t, res.NoData)
}

func TestCompute_BonusesCappedAndClamped(t *testing.T) {
	cfg := ruralProfile()
	cfg.Penalties = nil
	cfg.Bonuses = []config.BonusRule{
		{Name: "libraries", Metric: "library_count", PointsPerUnit: 2, Cap: 5},
		{Name: "walk", Metric: "walk_score", PointsPerUnit: 0.1, Cap: 10},
	}

	in := Input{
		Components: map[string]*float64{"parks": f(1), "transit": f(1), "canopy": f(0.5)},
		Raw:        map[string]*float64{"library_count": f(4), "walk_score": f(30)},
	}
	res := Compute(in, cfg)

	assert.InDelta(t, 5, res.Bonuses["libraries"], 1e-9)
	assert.InDelta(t, 3, res.Bonuses["walk"], 1e-9)
	assert.InDelta(t, 98, res.Weighted, 1e-9)
	assert.Equal(t, 98, res.Score)

	in.Components["canopy"] = f(1)
	res = Compute(in, cfg)
	assert.InDelta(t, 108, res.Weighted, 1e-9)
	assert.Equal(t, 100, res.Score, "clamped after bonuses")
}

func TestCompute_NegativeBonusInputIgnored(t *testing.T) {
	cfg := config.ScoringConfig{
		Components: []config.ComponentWeight{{Metric: "a", Weight: 100}},
		Bonuses:    []config.BonusRule{{Name: "b", Metric: "m", PointsPerUnit: 1, Cap: 10}},
	}
	res := Compute(Input{Components: map[string]*float64{"a": f(0.2)}, Raw: map[string]*float64{"m": f(-50)}}, cfg)
	assert.Equal(t, 20, res.Score)
}

func TestCompute_Rounding(t *testing.T) {
	cfg := config.ScoringConfig{Components: []config.ComponentWeight{{Metric: "a", Weight: 100}}}

	assert.Equal(t, 43, Compute(Input{Components: map[string]*float64{"a": f(0.425)}}, cfg).Score)
	assert.Equal(t, 42, Compute(Input{Components: map[string]*float64{"a": f(0.4249)}}, cfg).Score)
	assert.Equal(t, 100, Compute(Input{Components: map[string]*float64{"a": f(7)}}, cfg).Score, "component clamped to 1")
}

func TestCompute_PassedAgainstMinScore(t *testing.T) {
	cfg := config.ScoringConfig{Components: []config.ComponentWeight{{Metric: "a", Weight: 100}}, MinScore: 50}

	assert.True(t, Compute(Input{Components: map[string]*float64{"a": f(0.5)}}, cfg).Passed)
	assert.False(t, Compute(Input{Components: map[string]*float64{"a": f(0.49)}}, cfg).Passed)
}

func TestCompute_BoundedAndPenaltyNeverIncreases(t *testing.T) {
	cfg := ruralProfile()
	cfg.Bonuses = []config.BonusRule{{Name: "b", Metric: "m", PointsPerUnit: 3, Cap: 25}}
	values := []float64{0, 0.1, 0.33, 0.5, 0.77, 1, 1.5}
	raws := []float64{0, 1, 5, 100}

	for _, p := range values {
		for _, q := range values {
			for _, r := range raws {
				in := Input{
					Components: map[string]*float64{"parks": f(p), "transit": f(q), "canopy": f(p)},
					Raw:        map[string]*float64{"m": f(r)},
					AreaKM2:    80,
					Density:    20,
					HasDensity: true,
				}
				penalized := Compute(in, cfg)
				in.HasDensity = false
				plain := Compute(in, cfg)

				require.GreaterOrEqual(t, penalized.Score, 0)
				require.LessOrEqual(t, penalized.Score, 100)
				require.LessOrEqual(t, plain.Score, 100)
				require.LessOrEqual(t, penalized.Score, plain.Score)
			}
		}
	}
}

func TestRank(t *testing.T) {
	results := []Result{
		{ID: "c", Score: 50},
		{ID: "a", Score: 70},
		{ID: "b", Score: 50},
		{ID: "d", Score: 0},
	}

	ranked := Rank(results)

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.Equal(t, "c", results[0].ID, "input is not reordered")
}
