package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/multiauth/config"
	"github.com/target/multiauth/internal/observability/statsd"
)

// BuildMetrics dials the StatsD agent. It returns nil when metrics are off.
func BuildMetrics(ctx context.Context, cfg config.ObservabilityConfig, logger *slog.Logger) (*statsd.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.MetricsEnabled {
		logger.InfoContext(ctx, "metrics disabled")
		return nil, nil
	}
	client, err := statsd.NewClient(ctx, statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.MetricsPrefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build metrics: %w", err)
	}
	logger.InfoContext(ctx, "metrics enabled", "statsd_address", cfg.StatsdAddress, "prefix", cfg.MetricsPrefix)
	return client, nil
}
