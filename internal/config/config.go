// Package config provides centralized configuration management for csvingest.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
// All settings can be configured via environment variables; CLI flags
// override them after Load.
type Config struct {
	Database DatabaseConfig
	Ingest   IngestConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL selects the backend by scheme: postgres://, sqlserver://, sqlite://
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// IngestConfig holds settings for a single ingestion run.
type IngestConfig struct {
	// MapFile is the column map document, JSON or YAML (default: column_map.json)
	MapFile string `env:"INGEST_MAP_FILE" default:"column_map.json"`

	// OutputDir receives the decoded <table>.csv files (default: working directory)
	OutputDir string `env:"INGEST_OUTPUT_DIR" default:"."`

	// DataDir resolves relative file paths in the column map (default: working directory)
	DataDir string `env:"INGEST_DATA_DIR"`

	// Exclude lists map identifiers that are never materialized (default: BLCK,FRD,VIP)
	Exclude []string `env:"INGEST_EXCLUDE" default:"BLCK,FRD,VIP"`

	// LargeTxnThreshold is the amount above which a transaction is flagged (default: 10000)
	LargeTxnThreshold decimal.Decimal `env:"INGEST_LARGE_TXN_THRESHOLD" default:"10000"`

	// LoadRows inserts normalized users and cards into the database (default: true)
	LoadRows bool `env:"INGEST_LOAD_ROWS" default:"true"`

	// WriteDecoded writes the decoded tables as CSV files (default: true)
	WriteDecoded bool `env:"INGEST_WRITE_DECODED" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
