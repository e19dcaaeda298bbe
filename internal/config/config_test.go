package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://overpass-api.de/api/interpreter", cfg.Overpass.BaseURL)
	assert.Equal(t, "livability/1.0", cfg.Overpass.UserAgent)
	assert.Equal(t, 2, cfg.Overpass.Concurrency)
	assert.Equal(t, 3, cfg.Overpass.MaxAttempts)
	assert.Equal(t, 500, cfg.Overpass.RequestDelayMs)
	assert.Equal(t, 5, cfg.Overpass.BreakerThreshold)
	assert.Equal(t, 1000, cfg.Scoring.MaxRadiusMeters)
	assert.Equal(t, 10, cfg.Scoring.NearbyLimit)
	assert.Equal(t, 1000, cfg.Batch.LocationDelayMs)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
overpass:
  concurrency: 4
  base_url: http://localhost:8080/api/interpreter
scoring:
  max_radius_meters: 500
server:
  port: 9000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Overpass.Concurrency)
	assert.Equal(t, "http://localhost:8080/api/interpreter", cfg.Overpass.BaseURL)
	assert.Equal(t, 500, cfg.Scoring.MaxRadiusMeters)
	assert.Equal(t, 9000, cfg.Server.Port)
	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.Scoring.NearbyLimit)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LIVABILITY_OVERPASS_CONCURRENCY", "6")
	t.Setenv("LIVABILITY_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Overpass.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("overpass: [not a map"), 0o644))
	t.Chdir(dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestDurationHelpers(t *testing.T) {
	oc := OverpassConfig{TimeoutSecs: 30, RequestDelayMs: 500, BreakerCooldownS: 45}
	assert.Equal(t, "30s", oc.Timeout().String())
	assert.Equal(t, "500ms", oc.RequestDelay().String())
	assert.Equal(t, "45s", oc.BreakerCooldown().String())

	bc := BatchConfig{LocationDelayMs: 1500}
	assert.Equal(t, "1.5s", bc.LocationDelay().String())
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "shouting", Format: "json"}))
}
