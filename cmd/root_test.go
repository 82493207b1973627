package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"catalog", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "cpu-catalog", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestCatalogCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range catalogCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"sync", "cleanup", "coverage", "migrate", "runs"} {
		assert.True(t, names[name], "expected catalog subcommand %q not found", name)
	}
}

func TestCommandFlags(t *testing.T) {
	scope := catalogSyncCmd.Flags().Lookup("scope")
	require.NotNil(t, scope)
	assert.Equal(t, "all", scope.DefValue)

	yes := catalogCleanupCmd.Flags().Lookup("yes")
	require.NotNil(t, yes)
	assert.Equal(t, "false", yes.DefValue)

	dryRun := catalogCleanupCmd.Flags().Lookup("dry-run")
	require.NotNil(t, dryRun)
	assert.Equal(t, "false", dryRun.DefValue)

	port := serveCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "0", port.DefValue)

	output := catalogCmd.PersistentFlags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "json", output.DefValue)
}

func TestCleanupRequiresConfirmation(t *testing.T) {
	cleanupConfirmed = false
	cleanupDryRun = false
	err := catalogCleanupCmd.RunE(catalogCleanupCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestSuccessEnvelope(t *testing.T) {
	env, err := successEnvelope(&model.SyncResult{Scope: model.ScopeIntel, Found: 3, Sample: []string{}})
	require.NoError(t, err)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, "intel", env["scope"])
	assert.Equal(t, float64(3), env["found"])
}

func TestFailureEnvelope(t *testing.T) {
	env := failureEnvelope(errors.New("boom"))
	assert.Equal(t, map[string]any{"success": false, "error": "boom"}, env)
}

func TestWriteOutput(t *testing.T) {
	v := map[string]any{"success": true, "totalDeleted": 4}

	var js bytes.Buffer
	require.NoError(t, writeOutput(&js, "json", v))
	assert.Contains(t, js.String(), `"totalDeleted": 4`)

	var ym bytes.Buffer
	require.NoError(t, writeOutput(&ym, "yaml", v))
	assert.Contains(t, ym.String(), "totalDeleted: 4")

	assert.Error(t, writeOutput(&js, "xml", v))
}

func TestRenderCoverage(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	cov := &model.Coverage{
		Brands: []model.BrandCoverage{
			{Brand: model.BrandAMD, Models: 40, Families: 3},
			{Brand: model.BrandIntel, Models: 250, Families: 9},
		},
		LastUpdatedAt: &last,
	}

	var buf bytes.Buffer
	require.NoError(t, renderCoverage(&buf, cov))
	out := buf.String()
	assert.Contains(t, out, "INTEL")
	assert.Contains(t, out, "250")
	assert.Contains(t, out, "290")
	assert.Contains(t, out, "2026-03-01 12:30")
}

func TestRenderRuns(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	done := started.Add(90 * time.Second)

	var buf bytes.Buffer
	require.NoError(t, renderRuns(&buf, []model.Run{
		{ID: 2, Kind: model.RunKindCleanup, Status: model.RunStatusComplete, StartedAt: started, CompletedAt: &done},
		{ID: 1, Kind: model.RunKindSync, Status: model.RunStatusFailed, StartedAt: started, Error: "read existing INTEL models"},
	}))
	out := buf.String()
	assert.Contains(t, out, "cleanup")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "read existing INTEL models")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
