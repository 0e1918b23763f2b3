package report

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hoodscore-cli/internal/tabular"
)

func f(v float64) *float64 { return &v }

func sampleTable() *Table {
	return &Table{
		Metrics: []string{"parks_per_km2", "canopy_pct"},
		Rows: []Row{
			{ID: "001", Name: "Annex", Values: []*float64{f(3.14159), f(65)}, Composite: 72},
			{ID: "002", Name: "Bay, Street", Values: []*float64{nil, f(0)}, Composite: 0},
			{ID: "003", Name: "Casa Loma", Values: []*float64{f(0.006), nil}, Composite: 91},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable(), 2))

	want := "id,name,parks_per_km2,canopy_pct,composite_score\n" +
		"001,Annex,3.14,65.00,72\n" +
		"002,\"Bay, Street\",,0.00,0\n" +
		"003,Casa Loma,0.01,,91\n"
	assert.Equal(t, want, buf.String())
}

func TestCSVRoundTrip(t *testing.T) {
	for _, precision := range []int{0, 2, 4, -1} {
		in := sampleTable()
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, in, precision))

		out, err := ReadCSV(context.Background(), &buf)
		require.NoError(t, err)
		require.Equal(t, in.Metrics, out.Metrics)
		require.Len(t, out.Rows, len(in.Rows))

		tol := 0.5
		for i := 0; i < precision; i++ {
			tol /= 10
		}
		if precision < 0 {
			tol = 0
		}
		for i, row := range in.Rows {
			got := out.Rows[i]
			assert.Equal(t, row.ID, got.ID)
			assert.Equal(t, row.Name, got.Name)
			assert.Equal(t, row.Composite, got.Composite)
			for j, v := range row.Values {
				if v == nil {
					assert.Nil(t, got.Values[j], "missing stays missing")
					continue
				}
				require.NotNil(t, got.Values[j], "zero stays a value")
				assert.InDelta(t, *v, *got.Values[j], tol+1e-12)
			}
		}
	}
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader("id,name\n1,a\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), CompositeColumn)

	_, err = ReadCSV(context.Background(), strings.NewReader("id,name,x,composite_score\n1,a,abc,3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column x")

	_, err = ReadCSV(context.Background(), strings.NewReader("id,name,composite_score\n1,a,\n"))
	require.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.xlsx")
	require.NoError(t, WriteXLSX(path, sampleTable()))

	tbl, err := tabular.ReadXLSX(path, tabular.XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "parks_per_km2", "canopy_pct", "composite_score"}, tbl.Header)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, "Annex", tabular.Value(tbl.Rows[0], 1))
	assert.Equal(t, "", tabular.Value(tbl.Rows[1], 2))
	assert.Equal(t, "91", tabular.Value(tbl.Rows[2], 4))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTable(), 2)

	require.Len(t, s.Top, 2)
	assert.Equal(t, "003", s.Top[0].ID)
	assert.Equal(t, "001", s.Top[1].ID)
	require.Len(t, s.Bottom, 2)
	assert.Equal(t, "002", s.Bottom[0].ID)
	assert.Equal(t, "001", s.Bottom[1].ID)

	assert.Equal(t, 3, s.Composite.Count)
	assert.Equal(t, 0.0, s.Composite.Min)
	assert.Equal(t, 91.0, s.Composite.Max)
	assert.Equal(t, 72.0, s.Composite.Median)

	assert.Equal(t, 2, s.Metrics["canopy_pct"].Count)
	assert.Equal(t, 1, s.Metrics["canopy_pct"].Positive)
}

func TestSummarize_NLargerThanTable(t *testing.T) {
	s := Summarize(sampleTable(), 10)
	assert.Len(t, s.Top, 3)
	assert.Len(t, s.Bottom, 3)

	s = Summarize(&Table{}, 5)
	assert.Empty(t, s.Top)
	assert.Equal(t, 0, s.Composite.Count)
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, sampleTable(), 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "composite_score")
	assert.Contains(t, lines[1], "3.1")
	assert.Contains(t, lines[2], "-")

	buf.Reset()
	PrintSummary(&buf, Summarize(sampleTable(), 1))
	assert.Contains(t, buf.String(), "Casa Loma (003)")
	assert.Contains(t, buf.String(), "Top:")
}
