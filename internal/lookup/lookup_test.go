package lookup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hoodscore-cli/internal/tabular"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadScores(t *testing.T) {
	path := writeFile(t, "walk.csv", "Neighbourhood ID,Walk Score\n001,88\n002,\n003,abc\n001,12\n004,\"1,050\"\n,5\n")

	scores, stats, err := LoadScores(context.Background(), path, "neighbourhood id", "walk score")
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"001": 88, "004": 1050}, scores)
	assert.Equal(t, 6, stats.Rows)
	assert.Equal(t, 3, stats.Malformed)
	assert.Equal(t, 1, stats.Duplicate)
}

func TestLoadScores_MissingColumn(t *testing.T) {
	path := writeFile(t, "walk.csv", "id,score\n1,2\n")

	_, _, err := LoadScores(context.Background(), path, "id", "walk_score")
	require.Error(t, err)
	assert.True(t, eris.Is(err, tabular.ErrMissingColumn))
	assert.Contains(t, err.Error(), "walk_score")
}

func TestLoadScores_MissingFile(t *testing.T) {
	_, _, err := LoadScores(context.Background(), "/nonexistent/walk.csv", "id", "score")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/walk.csv")
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"St. James Town", "st james town"},
		{"st james-town", "st james town"},
		{"  Côte-des-Neiges ", "cote des neiges"},
		{"O'Connor–Parkview", "oconnor parkview"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestLoadAliases(t *testing.T) {
	path := writeFile(t, "aliases.yaml", "aliases:\n  \"083\":\n    - The Annex\n    - Annex\n  \"095\":\n    - Bay Street Corridor\n")

	f, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"The Annex", "Annex"}, f.Aliases["083"])
	assert.Len(t, f.Aliases, 2)
}

func TestLoadAliases_Errors(t *testing.T) {
	_, err := LoadAliases(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")

	bad := writeFile(t, "bad.yaml", "aliases: [unclosed\n")
	_, err = LoadAliases(bad)
	require.Error(t, err)
}

func TestResolver(t *testing.T) {
	names := map[string]string{
		"083": "Annex",
		"095": "Bay Street Corridor",
		"100": "Junction",
		"101": "Junction",
	}
	aliases := &AliasFile{Aliases: map[string][]string{
		"083": {"The Annex"},
		"100": {"The Junction", "Junction Area"},
	}}

	r := NewResolver(names, aliases)

	tests := []struct {
		name   string
		wantID string
		wantOK bool
	}{
		{"annex", "083", true},
		{"THE ANNEX", "083", true},
		{"Bay St Corridor", "", false},
		{"bay street   corridor", "095", true},
		{"095", "095", true},
		{"Junction", "", false},
		{"the junction", "100", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := r.Resolve(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
	assert.Equal(t, []string{"Junction"}, r.Conflicts())
}

func TestResolver_ResolveTable(t *testing.T) {
	r := NewResolver(map[string]string{"1": "Annex", "2": "Leaside"}, nil)

	out, unknown := r.ResolveTable(map[string]float64{"annex": 10, "LEASIDE": 20, "Nowhere": 5})

	assert.Equal(t, map[string]float64{"1": 10, "2": 20}, out)
	assert.Equal(t, []string{"Nowhere"}, unknown)
}
