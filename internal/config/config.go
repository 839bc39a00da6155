package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // kitchens may run on hosts without zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	MetricsConfig struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
		Seed   bool   `yaml:"seed"`
	} `yaml:"database"`

	Auth struct {
		Secret string `yaml:"secret"`
	} `yaml:"auth"`

	Kitchen struct {
		DefaultID string `yaml:"default_id"`
		Timezone  string `yaml:"timezone"`
	} `yaml:"kitchen"`

	Forecast struct {
		WindowDays      int `yaml:"window_days"`
		DefaultQuantity int `yaml:"default_quantity"`
	} `yaml:"forecast"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{
		Port:     8080,
		LogLevel: "normal",
	}
	cfg.MetricsConfig.Enabled = true
	cfg.MetricsConfig.Port = 9090
	cfg.MetricsConfig.Path = "/metrics"
	cfg.Database.Driver = "sqlite3"
	cfg.Database.URL = "mise.db"
	cfg.Database.Seed = true
	cfg.Kitchen.DefaultID = "main"
	cfg.Kitchen.Timezone = "UTC"
	cfg.Forecast.WindowDays = 21
	cfg.Forecast.DefaultQuantity = 2
	return cfg
}

// Load reads the YAML file at path on top of the defaults, then applies
// overrides from a .env file and the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MISE_DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("MISE_DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("MISE_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("MISE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MISE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MISE_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Database.Driver != "sqlite3" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Forecast.WindowDays <= 0 {
		return fmt.Errorf("forecast window must be positive, got %d days", c.Forecast.WindowDays)
	}
	if c.Forecast.DefaultQuantity < 0 {
		return fmt.Errorf("forecast default quantity cannot be negative")
	}
	if c.Kitchen.DefaultID == "" {
		return fmt.Errorf("kitchen default_id is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the kitchen timezone used for weekdays and date keys
func (c *Config) Location() (*time.Location, error) {
	if c.Kitchen.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Kitchen.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid kitchen timezone %q: %w", c.Kitchen.Timezone, err)
	}
	return loc, nil
}

// ForecastWindow returns the trailing window as a duration
func (c *Config) ForecastWindow() time.Duration {
	return time.Duration(c.Forecast.WindowDays) * 24 * time.Hour
}
