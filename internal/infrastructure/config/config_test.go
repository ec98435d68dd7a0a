package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"SERVER_HOST", "SERVER_PORT", "SERVER_SHUTDOWN_TIMEOUT",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME", "OTEL_ENVIRONMENT", "OTEL_SDK_DISABLED",
	"LOG_LEVEL", "CATALOG_SEED_DEFAULTS", "CATALOG_FIXTURES_FILE", "PROVIDER_STATES_ENABLED",
}

// clearEnv blanks every config variable for the duration of the test
func clearEnv(t *testing.T) {
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "localhost:4317", cfg.OTLP.Endpoint)
	assert.Equal(t, "products-api", cfg.OTLP.ServiceName)
	assert.Equal(t, "development", cfg.OTLP.Environment)
	assert.False(t, cfg.OTLP.Disabled)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.True(t, cfg.Catalog.SeedDefaults)
	assert.Empty(t, cfg.Catalog.FixturesFile)
	assert.False(t, cfg.Catalog.ProviderStatesEnabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OTEL_SDK_DISABLED", "true")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("CATALOG_SEED_DEFAULTS", "false")
	t.Setenv("PROVIDER_STATES_ENABLED", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.OTLP.Disabled)
	assert.Equal(t, slog.LevelWarn, cfg.Log.Level)
	assert.False(t, cfg.Catalog.SeedDefaults)
	assert.True(t, cfg.Catalog.ProviderStatesEnabled)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	for key, value := range map[string]string{
		"SERVER_SHUTDOWN_TIMEOUT": "soon",
		"LOG_LEVEL":               "chatty",
		"OTEL_SDK_DISABLED":       "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set, blank included
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("OTEL_SERVICE_NAME")
	t.Cleanup(func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("OTEL_SERVICE_NAME")
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=7070\nOTEL_SERVICE_NAME=catalog\n"), 0o600))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "catalog", cfg.OTLP.ServiceName)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), ".env")

	_, err := Load(missing, false)
	assert.NoError(t, err)

	_, err = Load(missing, true)
	assert.Error(t, err)
}
