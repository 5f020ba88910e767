package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-valuator/internal/config"
)

// setFlag sets a run command flag and restores its state afterwards.
func setFlag(t *testing.T, name, value string) {
	t.Helper()
	require.NoError(t, runCommand.Flags().Set(name, value))
	t.Cleanup(func() {
		flag := runCommand.Flags().Lookup(name)
		flag.Value.Set(flag.DefValue) //nolint:errcheck
		flag.Changed = false
	})
}

func clearServiceEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SEARCH_API_KEY", "SEARCH_CX", "GEMINI_API_KEY", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
}

func TestResolveRunConfig_Defaults(t *testing.T) {
	clearServiceEnv(t)

	cfg, err := resolveRunConfig(runCommand)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultRounds, cfg.Rounds)
	assert.Equal(t, "reports", cfg.OutputDir)
	assert.Equal(t, 30, cfg.TimeoutSeconds)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Empty(t, cfg.SearchAPIKey)
}

func TestResolveRunConfig_FlagOverridesConfigFile(t *testing.T) {
	clearServiceEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rounds": 2, "timeout_seconds": 5}`), 0o644))

	setFlag(t, "config", path)
	runConfigPath = path
	t.Cleanup(func() { runConfigPath = "" })
	setFlag(t, "rounds", "5")

	cfg, err := resolveRunConfig(runCommand)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Rounds, "flag wins over config file")
	assert.Equal(t, 5, cfg.TimeoutSeconds, "config file value survives when flag unset")
}

func TestResolveRunConfig_EnvFallback(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("SEARCH_API_KEY", "search-key")
	t.Setenv("SEARCH_CX", "cx")

	cfg, err := resolveRunConfig(runCommand)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.GeminiAPIKey)
	assert.Equal(t, "search-key", cfg.SearchAPIKey)
	assert.Equal(t, "cx", cfg.SearchCx)
}

func TestResolveRunConfig_RejectsSearchKeyWithoutCx(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("SEARCH_API_KEY", "search-key")

	_, err := resolveRunConfig(runCommand)
	assert.Error(t, err)
}

func TestBuildCollectors_WithoutSearch(t *testing.T) {
	collectors, err := buildCollectors(context.Background(), config.Config{TimeoutSeconds: 5, MaxRetries: 1})
	require.NoError(t, err)

	require.Len(t, collectors, 6)
	names := make([]string, 0, len(collectors))
	for _, c := range collectors {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "Website Analyzer")
	assert.NotContains(t, names, "News & Press Collector")
}

func TestBuildCollectors_WithSearch(t *testing.T) {
	collectors, err := buildCollectors(context.Background(), config.Config{
		TimeoutSeconds: 5,
		MaxRetries:     1,
		SearchAPIKey:   "key",
		SearchCx:       "cx",
	})
	require.NoError(t, err)
	assert.Len(t, collectors, 7)
}
