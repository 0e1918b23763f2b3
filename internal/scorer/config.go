// Package scorer combines normalized neighbourhood metrics into a bounded
// composite score.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hoodscore-cli/internal/config"
)

// weightTolerance absorbs rounding in weights such as 100/3.
const weightTolerance = 0.01

// DefaultScoringConfig weights the given metrics equally and applies the
// sparse-rural penalty: area over 50 km² with density under 100/km² halves
// the score.
func DefaultScoringConfig(metrics []string) config.ScoringConfig {
	cfg := config.ScoringConfig{
		Profile: "default",
		Penalties: []config.PenaltyRule{
			{Name: "sparse_rural", MinAreaKM2: 50, MaxDensity: 100, Multiplier: 0.5},
		},
	}
	if len(metrics) == 0 {
		return cfg
	}
	w := 100 / float64(len(metrics))
	for _, m := range metrics {
		cfg.Components = append(cfg.Components, config.ComponentWeight{Metric: m, Weight: w})
	}
	return cfg
}

// WeightSum returns the sum of all component weights.
func WeightSum(c config.ScoringConfig) float64 {
	var sum float64
	for _, comp := range c.Components {
		sum += comp.Weight
	}
	return sum
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
// At most one penalty rule is accepted: how several rules would combine is
// not defined.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	if len(c.Components) == 0 {
		errs = append(errs, "at least one component is required")
	}

	seen := make(map[string]bool, len(c.Components))
	for i, comp := range c.Components {
		if comp.Metric == "" {
			errs = append(errs, fmt.Sprintf("components[%d]: metric is required", i))
		} else if seen[comp.Metric] {
			errs = append(errs, fmt.Sprintf("components[%d]: duplicate metric %q", i, comp.Metric))
		}
		seen[comp.Metric] = true
		if comp.Weight < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", comp.Metric))
		}
	}

	// Weights must sum to 100.
	if sum := WeightSum(c); len(c.Components) > 0 && math.Abs(sum-100) > weightTolerance {
		errs = append(errs, fmt.Sprintf("weights should sum to 100, got %.2f", sum))
	}

	for _, b := range c.Bonuses {
		if b.PointsPerUnit < 0 {
			errs = append(errs, fmt.Sprintf("bonus %q: points_per_unit must be >= 0", b.Name))
		}
		if b.Cap < 0 {
			errs = append(errs, fmt.Sprintf("bonus %q: cap must be >= 0", b.Name))
		}
	}

	if len(c.Penalties) > 1 {
		errs = append(errs, fmt.Sprintf("at most one penalty rule is supported, got %d", len(c.Penalties)))
	}
	for _, p := range c.Penalties {
		if p.Multiplier <= 0 || p.Multiplier > 1 {
			errs = append(errs, fmt.Sprintf("penalty %q: multiplier must be in (0,1]", p.Name))
		}
		if p.MinAreaKM2 < 0 {
			errs = append(errs, fmt.Sprintf("penalty %q: min_area_km2 must be >= 0", p.Name))
		}
		if p.MaxDensity <= 0 {
			errs = append(errs, fmt.Sprintf("penalty %q: max_density must be > 0", p.Name))
		}
	}

	// Thresholds.
	if c.MinScore < 0 || c.MinScore > 100 {
		errs = append(errs, "min_score must be between 0 and 100")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
