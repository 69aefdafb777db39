package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileAndEnvOverrideDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
environment: test
client:
  api_horizon: 200
  cache:
    near_ttl: 30m
store:
  backend: memory
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("NOVACAST_SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 200, cfg.Client.APIHorizon)
	assert.Equal(t, 30*time.Minute, cfg.Client.Cache.NearTTL)
	assert.Equal(t, 3*time.Hour, cfg.Client.Cache.MidTTL)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://geocoding-api.open-meteo.com/v1/search", cfg.Client.GeocodingURL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_RejectsUnknownStoreBackend(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.Backend = "sqlite"
	assert.Error(t, Validate(cfg))

	assert.NoError(t, Validate(NewDefaultConfig()))
}

func TestSetConfig_RoundTrip(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Environment = "stored"
	SetConfig(cfg)
	assert.Equal(t, "stored", GetConfig().Environment)
}
