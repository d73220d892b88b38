// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and DASH_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"time"
)

// Supported storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BackendURL is where page widgets fetch ajax data from. Empty means
	// the widgets call the in-process API handler directly.
	BackendURL string `koanf:"backend_url"`

	// DBDriver selects report storage: memory, sqlite or mysql.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is the data source name for sqlite and mysql.
	DBDSN string `koanf:"db_dsn"`

	// DBMaxOpenConns and DBMaxIdleConns tune the SQL connection pool.
	DBMaxOpenConns int `koanf:"db_max_open_conns"`
	DBMaxIdleConns int `koanf:"db_max_idle_conns"`

	// SeedTestData stores a sample PMD report at startup.
	SeedTestData bool `koanf:"seed_test_data"`

	// UploadMaxBytes caps the size of an uploaded report.
	UploadMaxBytes int64 `koanf:"upload_max_bytes"`

	// FetchTimeoutMS bounds each widget data fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// PageSize is the number of grid rows per page.
	PageSize int `koanf:"page_size"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		DBDriver:       DriverMemory,
		DBMaxOpenConns: 20,
		DBMaxIdleConns: 5,
		SeedTestData:   true,
		UploadMaxBytes: 16 << 20,
		FetchTimeoutMS: 5000,
		PageSize:       10,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.DBDriver {
	case DriverMemory:
	case DriverSQLite, DriverMySQL:
		if c.DBDSN == "" {
			return fmt.Errorf("%w: db_dsn is required for driver %s", ErrInvalidConfig, c.DBDriver)
		}
	default:
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("%w: upload_max_bytes must be positive", ErrInvalidConfig)
	}
	if c.FetchTimeoutMS <= 0 {
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
