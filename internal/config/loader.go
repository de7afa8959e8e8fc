package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Load reads configuration from environment variables, applies defaults
// for unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value, ok := os.LookupEnv(envName)
		if !ok || value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Cache.MaxSize < 0 {
		errs = append(errs, "CACHE_MAX_SIZE must be non-negative")
	}
	if w := strings.ToLower(c.Cache.Weight); w != "entries" && w != "records" {
		errs = append(errs, fmt.Sprintf("CACHE_WEIGHT (%q) must be one of: entries, records", c.Cache.Weight))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, "CACHE_TTL must be non-negative")
	}
	if c.Cache.PruneSchedule != "" {
		if _, err := cron.ParseStandard(c.Cache.PruneSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("CACHE_PRUNE_SCHEDULE (%q) is not a valid cron expression: %v", c.Cache.PruneSchedule, err))
		}
	}

	if c.Sources.LoadTimeout < 0 {
		errs = append(errs, "LOAD_TIMEOUT must be non-negative")
	}
	if c.Sources.HTTPTimeout < 0 {
		errs = append(errs, "HTTP_TIMEOUT must be non-negative")
	}
	if c.Sources.DataDir == "" {
		errs = append(errs, "DATA_DIR must not be empty")
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true, "mongodb": true}
	if !validDrivers[strings.ToLower(c.Store.Driver)] {
		errs = append(errs, fmt.Sprintf("STORE_DRIVER (%q) must be one of: sqlite, postgres, mysql, mongodb", c.Store.Driver))
	}
	if c.Store.DSN == "" {
		errs = append(errs, "STORE_DSN must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a representation safe for logging; the store DSN is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Cache: {MaxSize: %d, Weight: %q, TTL: %s, PruneSchedule: %q}, ",
		c.Cache.MaxSize, c.Cache.Weight, c.Cache.TTL, c.Cache.PruneSchedule)
	fmt.Fprintf(&b, "Sources: {LoadTimeout: %s, DataDir: %q, Watch: %v}, ",
		c.Sources.LoadTimeout, c.Sources.DataDir, c.Sources.Watch)
	fmt.Fprintf(&b, "Store: {Driver: %q, DSN: [MASKED]}, ", c.Store.Driver)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
