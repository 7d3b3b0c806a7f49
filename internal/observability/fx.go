package observability

import (
	"github.com/roomloghq/roomlog/internal/config"
	"github.com/roomloghq/roomlog/internal/observability/metrics"
	"go.uber.org/fx"
)

// Module wires the otel metrics provider and domain instruments.
var Module = fx.Module("observability",
	fx.Provide(
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
	),
)

func provideMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.AppName,
		Environment:      cfg.Environment,
	}
}
