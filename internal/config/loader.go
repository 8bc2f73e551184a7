package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "docegestao.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "DOCEGESTAO_PORT")
	setString(&cfg.Server.CORSOrigin, "DOCEGESTAO_CORS_ORIGIN")
	setString(&cfg.Storage.Driver, "DOCEGESTAO_STORAGE_DRIVER")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "DOCEGESTAO_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "DOCEGESTAO_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "DOCEGESTAO_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "DOCEGESTAO_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "DOCEGESTAO_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.MaxCostBytes, "DOCEGESTAO_CACHE_MAX_COST")
	setString(&cfg.Auth.TokenSecret, "DOCEGESTAO_TOKEN_SECRET")
	setDuration(&cfg.Auth.TokenExpiry, "DOCEGESTAO_TOKEN_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "DOCEGESTAO_BCRYPT_COST")
	setFloat64(&cfg.Auth.LoginRatePerMin, "DOCEGESTAO_LOGIN_RATE_PER_MIN")
	setInt(&cfg.Auth.LoginBurst, "DOCEGESTAO_LOGIN_BURST")
	setDuration(&cfg.Sync.ResolveTimeout, "DOCEGESTAO_RESOLVE_TIMEOUT")
	setDuration(&cfg.Sync.AutosaveQuiet, "DOCEGESTAO_AUTOSAVE_QUIET")
	setDuration(&cfg.Sync.MaxDeferral, "DOCEGESTAO_AUTOSAVE_MAX_DEFERRAL")
	setString(&cfg.Logging.Level, "DOCEGESTAO_LOG_LEVEL")
	setString(&cfg.Logging.Format, "DOCEGESTAO_LOG_FORMAT")
	setString(&cfg.Logging.Service, "DOCEGESTAO_LOG_SERVICE")
	setBool(&cfg.Telemetry.Enabled, "DOCEGESTAO_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks invariants that would otherwise surface as obscure
// runtime failures.
func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("storage.driver must be postgres or memory, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "postgres" && cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Auth.TokenExpiry <= 0 {
		return errors.New("auth.token_expiry must be positive")
	}
	if cfg.Sync.ResolveTimeout <= 0 {
		return errors.New("sync.resolve_timeout must be positive")
	}
	if cfg.Sync.AutosaveQuiet <= 0 {
		return errors.New("sync.autosave_quiet must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
