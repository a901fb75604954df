package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds application configuration loaded from YAML and env.
type Config struct {
	Database Database
	LogLevel string
}

// Database configures the query runner.
type Database struct {
	Driver   string
	URL      string
	PoolSize int
}

type fileConfig struct {
	Database struct {
		Driver   string `yaml:"driver"`
		URL      string `yaml:"url"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"database"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Database: Database{
			Driver:   DriverSQLite,
			URL:      "wellbeing.db",
			PoolSize: 5,
		},
		LogLevel: "INFO",
	}
}

// Load reads config/{ENV_NAME}.yaml (default dev) relative to the working
// directory, then applies env overrides. A missing file is not an error.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	return LoadFile(filepath.Join("config", env+".yaml"))
}

// LoadFile reads the given YAML file, then applies env overrides.
// An empty path or a missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			applyFile(cfg, &fc)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, fc *fileConfig) {
	if fc.Database.Driver != "" {
		cfg.Database.Driver = fc.Database.Driver
	}
	if fc.Database.URL != "" {
		cfg.Database.URL = fc.Database.URL
	}
	if fc.Database.PoolSize != 0 {
		cfg.Database.PoolSize = fc.Database.PoolSize
	}
	if fc.Log.Level != "" {
		cfg.LogLevel = fc.Log.Level
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DATABASE_POOL_SIZE"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("DATABASE_POOL_SIZE: %w", err)
		}
		cfg.Database.PoolSize = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks driver and pool size.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("database driver %q: must be %s or %s", c.Database.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url must not be empty")
	}
	if c.Database.PoolSize <= 0 {
		return fmt.Errorf("database pool size must be positive, got %d", c.Database.PoolSize)
	}
	return nil
}
