// Package config loads the vrf-server's runtime configuration from a .env
// file plus process environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ServerConfig controls the HTTP façade.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig controls the Postgres-backed store.
type DatabaseConfig struct {
	DSN            string
	MigrateOnStart bool
}

// LoggingConfig controls the telemetry logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// RegistryConfig seeds the oracle registry.
type RegistryConfig struct {
	MinStake          uint64
	RotationFrequency uint64
}

// AuthConfig controls admin-endpoint JWT verification.
type AuthConfig struct {
	JWTSecret string
}

// Config is the top-level vrf-server configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Registry RegistryConfig
	Auth     AuthConfig

	ExpirySlots   uint64
	EnforceVrfKey bool
}

// New returns a Config populated with defaults, before environment
// overrides are applied.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			MigrateOnStart: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Registry: RegistryConfig{
			MinStake:          0,
			RotationFrequency: 0,
		},
		ExpirySlots:   3 * 60 * 60,
		EnforceVrfKey: false,
	}
}

// Load reads a .env file if present, then applies environment variable
// overrides on top of New()'s defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := New()

	if v := strings.TrimSpace(os.Getenv("SERVER_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v, err := getInt("SERVER_PORT"); err != nil {
		return nil, err
	} else if v != nil {
		cfg.Server.Port = *v
	}

	if v := strings.TrimSpace(os.Getenv("DATABASE_DSN")); v != "" {
		cfg.Database.DSN = v
	}
	if v, err := getBool("DATABASE_MIGRATE_ON_START"); err != nil {
		return nil, err
	} else if v != nil {
		cfg.Database.MigrateOnStart = *v
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		cfg.Logging.Format = v
	}

	if v, err := getUint64("ORACLE_MIN_STAKE"); err != nil {
		return nil, err
	} else if v != nil {
		cfg.Registry.MinStake = *v
	}
	if v, err := getUint64("ORACLE_ROTATION_FREQUENCY"); err != nil {
		return nil, err
	} else if v != nil {
		cfg.Registry.RotationFrequency = *v
	}

	if v := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if v, err := getUint64("REQUEST_EXPIRY_SLOTS"); err != nil {
		return nil, err
	} else if v != nil {
		cfg.ExpirySlots = *v
	}
	if v, err := getBool("ENFORCE_VRF_KEY"); err != nil {
		return nil, err
	} else if v != nil {
		cfg.EnforceVrfKey = *v
	}

	return cfg, nil
}

func getInt(name string) (*int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s=%q: %w", name, raw, err)
	}
	return &v, nil
}

func getUint64(name string) (*uint64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s=%q: %w", name, raw, err)
	}
	return &v, nil
}

func getBool(name string) (*bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s=%q: %w", name, raw, err)
	}
	return &v, nil
}
