package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"run", "queries", "runs"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "contactgen", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	tests := []struct {
		name string
		def  string
	}{
		{"input", "input.csv"},
		{"output", "output.csv"},
		{"audit", ""},
		{"audit-db", ""},
		{"metrics-out", ""},
		{"limit", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := runCmd.Flags().Lookup(tt.name)
			require.NotNil(t, flag, "run command should have --%s flag", tt.name)
			assert.Equal(t, tt.def, flag.DefValue)
		})
	}
	assert.Nil(t, runCmd.Flags().Lookup("dry-run"))
}

func TestQueriesCommand_Flags(t *testing.T) {
	flag := queriesCmd.Flags().Lookup("input")
	require.NotNil(t, flag)
	assert.Equal(t, "input.csv", flag.DefValue)
	require.NotNil(t, queriesCmd.Flags().Lookup("limit"))
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"show", "audit"} {
		assert.True(t, names[name], "expected runs subcommand %q not found", name)
	}
	require.NotNil(t, runsCmd.PersistentFlags().Lookup("audit-db"))
}
