// Package config provides configuration management for Hookline.
package config

import (
	"time"
)

// Config is the root configuration structure for Hookline.
type Config struct {
	Hooks    HooksConfig    `mapstructure:"hooks"`
	Executor ExecutorConfig `mapstructure:"executor"`
	History  HistoryConfig  `mapstructure:"history"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// HooksConfig locates the hook definitions.
type HooksConfig struct {
	// File is the path to the hookfile (YAML).
	File string `mapstructure:"file"`
}

// ExecutorConfig holds subprocess execution settings.
type ExecutorConfig struct {
	// Shell used to interpret hook commands.
	Shell string `mapstructure:"shell"`

	// DefaultTimeout applies to hooks that do not set their own.
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`

	// TailLimit bounds captured stdout/stderr, in bytes.
	TailLimit int `mapstructure:"tail_limit"`
}

// HistoryConfig controls the dispatch audit store.
type HistoryConfig struct {
	// Enable persisting dispatch outcomes
	Enabled bool `mapstructure:"enabled"`

	// Path to the SQLite history file
	Path string `mapstructure:"path"`

	// Retention window; older dispatches are pruned on startup
	Retention time.Duration `mapstructure:"retention"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enable the metrics listener
	Enabled bool `mapstructure:"enabled"`

	// Addr to serve /metrics on
	Addr string `mapstructure:"addr"`
}

// WatchConfig controls hookfile reloading.
type WatchConfig struct {
	// Debounce window for coalescing file events
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`

	// Format: console or json
	Format string `mapstructure:"format"`

	// Include caller information
	Caller bool `mapstructure:"caller"`

	// Include timestamps
	Timestamp bool `mapstructure:"timestamp"`
}
