package config

import "time"

// Default configuration values.
const (
	// Hooks defaults.
	DefaultHookFile = "hooks.yaml"

	// Executor defaults.
	DefaultShell       = "/bin/sh"
	DefaultHookTimeout = 30 * time.Second
	DefaultTailLimit   = 64 * 1024

	// History defaults.
	DefaultHistoryPath      = "hookline-history.db"
	DefaultHistoryRetention = 30 * 24 * time.Hour

	// Metrics defaults.
	DefaultMetricsAddr = "localhost:9184"

	// Watch defaults.
	DefaultWatchDebounce = 300 * time.Millisecond

	// Logging defaults.
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Hooks: HooksConfig{
			File: DefaultHookFile,
		},
		Executor: ExecutorConfig{
			Shell:          DefaultShell,
			DefaultTimeout: DefaultHookTimeout,
			TailLimit:      DefaultTailLimit,
		},
		History: HistoryConfig{
			Enabled:   false,
			Path:      DefaultHistoryPath,
			Retention: DefaultHistoryRetention,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
		},
		Watch: WatchConfig{
			Debounce: DefaultWatchDebounce,
		},
		Logging: LoggingConfig{
			Level:     DefaultLogLevel,
			Format:    DefaultLogFormat,
			Caller:    false,
			Timestamp: true,
		},
	}
}
