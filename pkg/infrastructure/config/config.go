// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Log      LogConfig
	Report   ReportConfig
}

// DatabaseConfig holds the valuation snapshot store settings.
type DatabaseConfig struct {
	Enabled bool
	Driver  string // sqlite or postgres
	DSN     string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// ReportConfig holds delivery slip rendering settings.
type ReportConfig struct {
	Format    string // text, json, csv or xlsx
	OutputDir string
}

// Supported values
var (
	Drivers       = []string{"sqlite", "postgres"}
	ReportFormats = []string{"text", "json", "csv", "xlsx"}
)

// Load reads configuration from environment variables.
// It uses sensible defaults for local runs.
func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Enabled: getEnvBool("STOCKVALUED_DB_ENABLED", false),
			Driver:  strings.ToLower(getEnv("STOCKVALUED_DB_DRIVER", "sqlite")),
			DSN:     getEnv("STOCKVALUED_DB_DSN", "stockvalued.db"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("STOCKVALUED_LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("STOCKVALUED_LOG_FORMAT", "console")),
		},
		Report: ReportConfig{
			Format:    strings.ToLower(getEnv("STOCKVALUED_REPORT_FORMAT", "text")),
			OutputDir: getEnv("STOCKVALUED_OUTPUT_DIR", "."),
		},
	}
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if c.Database.Enabled && !contains(Drivers, c.Database.Driver) {
		return fmt.Errorf("invalid database driver %q (expected one of %s)", c.Database.Driver, strings.Join(Drivers, ", "))
	}
	if !contains(ReportFormats, c.Report.Format) {
		return fmt.Errorf("invalid report format %q (expected one of %s)", c.Report.Format, strings.Join(ReportFormats, ", "))
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
