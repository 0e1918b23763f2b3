package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/hoodscore-cli/internal/store"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []store.Run{
		{
			ID:             "abc12345-6789-0000-0000-000000000000",
			Profile:        "default",
			ConfigHash:     "0123456789abcdef0123456789abcdef",
			Metrics:        []string{"parks", "transit"},
			Neighbourhoods: 140,
			CreatedAt:      now,
		},
		{
			ID:             "def12345-6789-0000-0000-000000000000",
			Profile:        "rural",
			ConfigHash:     "fedcba9876543210fedcba9876543210",
			Metrics:        []string{"parks_per_km2", "canopy_pct", "transit_stops", "library_branches"},
			Neighbourhoods: 12,
			CreatedAt:      now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "PROFILE")
	assert.Contains(t, output, "NEIGHBOURHOODS")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "01234567")
	assert.Contains(t, output, "parks,transit")
	assert.Contains(t, output, "140")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "rural")
	assert.Contains(t, output, "...")
}

func TestFormatRunHeader(t *testing.T) {
	var buf bytes.Buffer
	formatRunHeader(&buf, &store.Run{
		ID:             "abc12345-6789-0000-0000-000000000000",
		Profile:        "default",
		ConfigHash:     "feedface",
		Neighbourhoods: 3,
		CreatedAt:      time.Date(2025, 6, 15, 10, 30, 5, 0, time.UTC),
	})

	output := buf.String()
	assert.Contains(t, output, "abc12345-6789-0000-0000-000000000000")
	assert.Contains(t, output, "default (feedface)")
	assert.Contains(t, output, "2025-06-15 10:30:05")
	assert.Contains(t, output, "3")
}

func TestTruncateID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc12345-6789", "abc12345"},
		{"short", "short"},
		{"", ""},
		{"12345678", "12345678"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateID(tt.in))
	}
}
