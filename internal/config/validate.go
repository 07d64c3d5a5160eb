package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateHooks(&cfg.Hooks)...)
	errs = append(errs, validateExecutor(&cfg.Executor)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validateWatch(&cfg.Watch)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHooks(cfg *HooksConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.File == "" {
		errs = append(errs, ValidationError{
			Field:   "hooks.file",
			Message: "must not be empty",
		})
	}

	return errs
}

func validateExecutor(cfg *ExecutorConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Shell == "" {
		errs = append(errs, ValidationError{
			Field:   "executor.shell",
			Message: "must not be empty",
		})
	}

	if cfg.DefaultTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "executor.default_timeout",
			Message: "must be positive",
		})
	}

	if cfg.TailLimit <= 0 {
		errs = append(errs, ValidationError{
			Field:   "executor.tail_limit",
			Message: "must be positive",
		})
	}

	return errs
}

func validateHistory(cfg *HistoryConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Enabled && cfg.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "history.path",
			Message: "must not be empty when history is enabled",
		})
	}

	if cfg.Retention < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.retention",
			Message: "must be non-negative",
		})
	}

	return errs
}

func validateMetrics(cfg *MetricsConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Enabled && cfg.Addr == "" {
		errs = append(errs, ValidationError{
			Field:   "metrics.addr",
			Message: "must not be empty when metrics are enabled",
		})
	}

	return errs
}

func validateWatch(cfg *WatchConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Debounce < 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.debounce",
			Message: "must be non-negative",
		})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch cfg.Level {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level %q", cfg.Level),
		})
	}

	switch cfg.Format {
	case "console", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format %q (must be console or json)", cfg.Format),
		})
	}

	return errs
}
