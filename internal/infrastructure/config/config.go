package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	OTLP    OTLPConfig
	Log     LogConfig
	Catalog CatalogConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
}

type OTLPConfig struct {
	Endpoint    string
	ServiceName string
	Environment string
	Disabled    bool
}

type LogConfig struct {
	Level slog.Level
}

type CatalogConfig struct {
	SeedDefaults          bool
	FixturesFile          string
	ProviderStatesEnabled bool
}

// Load reads envFile (when present) into the process environment and then
// builds the configuration from environment variables. A missing envFile is
// only an error when required is set.
func Load(envFile string, required bool) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}
	}
	return LoadConfig()
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	shutdown, err := time.ParseDuration(getEnv("SERVER_SHUTDOWN_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	level, err := ParseLevel(getEnv("LOG_LEVEL", "debug"))
	if err != nil {
		return nil, err
	}

	otelDisabled, err := getBool("OTEL_SDK_DISABLED", false)
	if err != nil {
		return nil, err
	}
	seedDefaults, err := getBool("CATALOG_SEED_DEFAULTS", true)
	if err != nil {
		return nil, err
	}
	statesEnabled, err := getBool("PROVIDER_STATES_ENABLED", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ShutdownTimeout: shutdown,
		},
		OTLP: OTLPConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "products-api"),
			Environment: getEnv("OTEL_ENVIRONMENT", "development"),
			Disabled:    otelDisabled,
		},
		Log: LogConfig{
			Level: level,
		},
		Catalog: CatalogConfig{
			SeedDefaults:          seedDefaults,
			FixturesFile:          getEnv("CATALOG_FIXTURES_FILE", ""),
			ProviderStatesEnabled: statesEnabled,
		},
	}, nil
}

// ParseLevel maps debug|info|warn|error to a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
