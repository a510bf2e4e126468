package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// LogLevel wraps slog.Level so it can be parsed from the environment.
type LogLevel slog.Level

// UnmarshalText implements encoding.TextUnmarshaler for LogLevel.
func (l *LogLevel) UnmarshalText(text []byte) error {
	switch v := strings.ToLower(strings.TrimSpace(string(text))); v {
	case "debug":
		*l = LogLevel(slog.LevelDebug)
	case "", "info":
		*l = LogLevel(slog.LevelInfo)
	case "warn", "warning":
		*l = LogLevel(slog.LevelWarn)
	case "error":
		*l = LogLevel(slog.LevelError)
	default:
		return fmt.Errorf("invalid LogLevel: %q (valid options: debug, info, warn, error)", v)
	}
	return nil
}

// Level returns the slog level.
func (l LogLevel) Level() slog.Level { return slog.Level(l) }

// ObservabilityConfig controls log output and StatsD metrics.
type ObservabilityConfig struct {
	LogLevel LogLevel `env:"LOG_LEVEL"  envDefault:"info"`
	// LogPretty switches from JSON to human-readable text output.
	LogPretty bool `env:"LOG_PRETTY" envDefault:"false"`

	MetricsEnabled bool   `env:"OBSERVABILITY_METRICS_ENABLED" envDefault:"false"`
	StatsdAddress  string `env:"OBSERVABILITY_STATSD_ADDRESS"  envDefault:"127.0.0.1:8125"`
	MetricsPrefix  string `env:"OBSERVABILITY_METRICS_PREFIX"  envDefault:"multiauth"`
}

// Sanitize trims the metrics settings.
func (c *ObservabilityConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	c.MetricsPrefix = strings.Trim(strings.TrimSpace(c.MetricsPrefix), ".")
}

// Validate requires an agent address when metrics are on.
func (c *ObservabilityConfig) Validate() error {
	if c.MetricsEnabled && c.StatsdAddress == "" {
		return errors.New("OBSERVABILITY_STATSD_ADDRESS is required when metrics are enabled")
	}
	return nil
}
