package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arnegard/hake/pkg/config"
)

func TestDefaultConfigMatchesFlagDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	require.Equal(t, 40, cfg.Optimize.NP)
	require.Equal(t, 0.5, cfg.Optimize.CR)
	require.Equal(t, 0.5, cfg.Optimize.F)
	require.Equal(t, 10, cfg.Optimize.Generations)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, 40, cfg.Optimize.NP)
}

func TestLoadOverridesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("HAKE_TEST_OUTPUT_DIR", "/tmp/hake-results")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "optimize:\n  np: 64\n  cr: 0.9\nreporting:\n  output_dir: \"${HAKE_TEST_OUTPUT_DIR}\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 64, cfg.Optimize.NP)
	require.Equal(t, 0.9, cfg.Optimize.CR)
	require.Equal(t, "/tmp/hake-results", cfg.Reporting.OutputDir)
	require.Equal(t, 1, cfg.Execution.Parallelism)
}

func TestValidateRejectsSmallPopulation(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Optimize.NP = 3
	require.Error(t, cfg.Validate())
}
