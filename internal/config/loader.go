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
const DefaultConfigFile = "tokyoflo.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
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
	setString(&cfg.Server.Port, "TOKYOFLO_PORT")
	setString(&cfg.Server.CORSOrigin, "TOKYOFLO_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "TOKYOFLO_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "TOKYOFLO_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "TOKYOFLO_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "TOKYOFLO_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "TOKYOFLO_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.MaxSizeMB, "TOKYOFLO_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TenantTTL, "TOKYOFLO_CACHE_TENANT_TTL")
	setString(&cfg.Auth.JWTSecret, "TOKYOFLO_JWT_SECRET")
	setDuration(&cfg.Auth.AccessTokenExpiry, "TOKYOFLO_ACCESS_TOKEN_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "TOKYOFLO_BCRYPT_COST")
	setString(&cfg.Domain.BaseDomain, "TOKYOFLO_BASE_DOMAIN")
	setString(&cfg.Domain.GlobalAdminLabel, "TOKYOFLO_GLOBAL_ADMIN_LABEL")
	setString(&cfg.Domain.AuthLabel, "TOKYOFLO_AUTH_LABEL")
	setString(&cfg.Domain.DevFallback, "TOKYOFLO_DEV_FALLBACK")
	setString(&cfg.Domain.DevTenantSubdomain, "TOKYOFLO_DEV_TENANT_SUBDOMAIN")
	setDuration(&cfg.Availability.Debounce, "TOKYOFLO_AVAILABILITY_DEBOUNCE")
	setDuration(&cfg.Availability.CheckTimeout, "TOKYOFLO_AVAILABILITY_TIMEOUT")
	setString(&cfg.Logging.Level, "TOKYOFLO_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TOKYOFLO_LOG_SERVICE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Domain.BaseDomain == "" {
		return errors.New("domain.base_domain is required")
	}
	if cfg.Domain.GlobalAdminLabel == "" {
		return errors.New("domain.global_admin_label is required")
	}
	if cfg.Domain.AuthLabel == "" {
		return errors.New("domain.auth_label is required")
	}
	if cfg.Domain.GlobalAdminLabel == cfg.Domain.AuthLabel {
		return errors.New("domain.global_admin_label and domain.auth_label must differ")
	}
	switch cfg.Domain.DevFallback {
	case "global", "auth", "tenant":
	default:
		return fmt.Errorf("domain.dev_fallback must be global, auth, or tenant (got %q)", cfg.Domain.DevFallback)
	}
	if cfg.Availability.Debounce <= 0 {
		return errors.New("availability.debounce must be positive")
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
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
