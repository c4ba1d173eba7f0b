package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"report", "import", "dump", "count"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "citystats", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	flag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag, "root command should have --config flag")
	assert.Equal(t, "", flag.DefValue)
}

func TestRootCommand_PreRunLoadsConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "citystats.yaml", "main:\n  output: custom.csv\nlog:\n  level: warn\n")

	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	require.NotNil(t, cfg)
	assert.Equal(t, "custom.csv", cfg.Main.Output)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestRootCommand_PreRunMissingConfig(t *testing.T) {
	old := configPath
	configPath = "/nonexistent/citystats.yaml"
	t.Cleanup(func() { configPath = old })

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd   string
		flags []string
	}{
		{"report", []string{"dump-data"}},
		{"import", []string{"city"}},
		{"dump", []string{"startups", "investors", "city"}},
		{"count", []string{"city"}},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			c, _, err := rootCmd.Find([]string{tt.cmd})
			require.NoError(t, err)
			for _, f := range tt.flags {
				assert.NotNil(t, c.Flags().Lookup(f), "%s should have --%s flag", tt.cmd, f)
			}
		})
	}
}
