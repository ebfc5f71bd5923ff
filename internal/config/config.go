// Package config provides YAML-based configuration loading for pmtrack.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zulandar/pmtrack/internal/schedule"
)

// Database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config is the top-level pmtrack configuration, loaded from pmtrack.yaml.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// DatabaseConfig selects and parameterizes the storage backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite (default) or mysql
	Path   string `yaml:"path"`   // sqlite file path
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	User   string `yaml:"user"`
}

// DashboardConfig holds the web dashboard settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
	// RefreshCron is a 5-field cron expression for the daily derived-field
	// refresh. Empty after defaulting is not possible; "off" disables it.
	RefreshCron string `yaml:"refresh_cron"`
}

// ThresholdsConfig holds the two "Due Soon" proximity cutoffs.
type ThresholdsConfig struct {
	DueSoonDays int `yaml:"due_soon_days"`
	MeterSoon   int `yaml:"meter_soon"`
}

// SoonThresholds converts the configured cutoffs to the engine's type.
func (c *Config) SoonThresholds() schedule.Thresholds {
	return schedule.Thresholds{
		DueSoonDays: c.Thresholds.DueSoonDays,
		MeterSoon:   c.Thresholds.MeterSoon,
	}
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the defaults, so the CLI works with zero setup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(nil)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Path == "" {
		c.Database.Path = "pmtrack.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "pmtrack"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Dashboard.RefreshCron == "" {
		c.Dashboard.RefreshCron = "5 0 * * *"
	}
	if c.Thresholds.DueSoonDays == 0 {
		c.Thresholds.DueSoonDays = schedule.DefaultDueSoonDays
	}
	if c.Thresholds.MeterSoon == 0 {
		c.Thresholds.MeterSoon = schedule.DefaultMeterSoon
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Database.Driver != DriverSQLite && c.Database.Driver != DriverMySQL {
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		errs = append(errs, "database.path is required for sqlite")
	}
	if c.Thresholds.DueSoonDays < 0 {
		errs = append(errs, "thresholds.due_soon_days must be positive")
	}
	if c.Thresholds.MeterSoon < 0 {
		errs = append(errs, "thresholds.meter_soon must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
