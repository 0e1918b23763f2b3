package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hoodscore-cli/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"score", "assign", "aggregate", "fetch", "runs"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "hoodscore", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	flag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag, "root should have --config flag")
	assert.Equal(t, "", flag.DefValue)
}

func TestScoreCommand_Flags(t *testing.T) {
	for name, def := range map[string]string{
		"output": "",
		"format": "table",
		"top":    "5",
		"save":   "",
	} {
		flag := scoreCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "score should have --%s flag", name)
		assert.Equal(t, def, flag.DefValue, name)
	}
}

func TestAssignCommand_RequiresDataset(t *testing.T) {
	flag := assignCmd.Flags().Lookup("dataset")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
}

func TestFetchCommand_HasOverpass(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range fetchCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["overpass"])

	for _, name := range []string{"query", "input", "out", "source", "category-tag", "magnitude-tag", "categories", "length-magnitude"} {
		assert.NotNil(t, fetchOverpassCmd.Flags().Lookup(name), "fetch overpass should have --%s flag", name)
	}
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}

	flag := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
}

func TestOutputOverrides_OnlyChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "score"}
	cmd.Flags().String("output", "", "")
	cmd.Flags().String("format", "table", "")
	cmd.Flags().Int("top", 5, "")
	require.NoError(t, cmd.Flags().Set("format", "csv"))
	require.NoError(t, cmd.Flags().Set("top", "0"))

	base := config.OutputConfig{Path: "scores.csv", Format: "table", Precision: 3, TopN: 10}
	got := outputOverrides(cmd, base)

	assert.Equal(t, config.OutputConfig{Path: "scores.csv", Format: "csv", Precision: 3, TopN: 0}, got)
	assert.Equal(t, "table", base.Format, "configured output is left untouched")
}
