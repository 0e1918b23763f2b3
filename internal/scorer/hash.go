package scorer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/sells-group/hoodscore-cli/internal/config"
)

// ProfileHash fingerprints everything that shapes a score: the scoring
// profile and the metric definitions it weights. Runs with equal hashes
// over equal inputs produce equal tables.
func ProfileHash(c config.ScoringConfig, metrics []config.MetricConfig) string {
	data, err := json.Marshal(struct {
		Scoring config.ScoringConfig  `json:"scoring"`
		Metrics []config.MetricConfig `json:"metrics"`
	}{c, metrics})
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:16])
}
