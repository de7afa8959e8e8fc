// Package config loads fixture provider settings from environment variables.
package config

import "time"

// Config holds all settings. Every field can be set through the environment.
type Config struct {
	Cache   CacheConfig
	Sources SourceConfig
	Store   StoreConfig
	Logging LoggingConfig
}

// CacheConfig holds cache bounds and expiry.
type CacheConfig struct {
	// MaxSize is the bound in weight units; 0 means unbounded (default: 128)
	MaxSize int `env:"CACHE_MAX_SIZE" default:"128"`

	// Weight selects how entries are weighed: "entries" or "records" (default: entries)
	Weight string `env:"CACHE_WEIGHT" default:"entries"`

	// TTL is the lifetime of a loaded collection; 0 never expires (default: 5m)
	TTL time.Duration `env:"CACHE_TTL" default:"5m"`

	// PruneSchedule is a cron expression for sweeping expired entries (default: off)
	PruneSchedule string `env:"CACHE_PRUNE_SCHEDULE"`
}

// SourceConfig holds reader settings.
type SourceConfig struct {
	// LoadTimeout bounds every underlying read (default: 10s)
	LoadTimeout time.Duration `env:"LOAD_TIMEOUT" default:"10s"`

	// DataDir is the root for relative source paths (default: .)
	DataDir string `env:"DATA_DIR" default:"."`

	// RulesPath is an optional YAML file with extra validation rules
	RulesPath string `env:"RULES_PATH"`

	// Watch invalidates cached entries when local files change (default: false)
	Watch bool `env:"WATCH_SOURCES" default:"false"`

	// HTTPTimeout is the client timeout of the HTTP reader (default: 30s)
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" default:"30s"`
}

// StoreConfig selects the snapshot store.
type StoreConfig struct {
	// Driver is one of sqlite, postgres, mysql, mongodb (default: sqlite)
	Driver string `env:"STORE_DRIVER" default:"sqlite"`

	// DSN is the data source name or MongoDB URI (default: fixtures.db)
	DSN string `env:"STORE_DSN" default:"fixtures.db"`

	// Database is the MongoDB database name (default: fixtures)
	Database string `env:"STORE_DATABASE" default:"fixtures"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
