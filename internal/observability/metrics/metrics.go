package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments for the ingestion pipeline.
type Metrics struct {
	eventsProcessed    metric.Int64Counter
	eventsDeduplicated metric.Int64Counter
	eventsFailed       metric.Int64Counter
	eventsDropped      metric.Int64Counter
	eventsQueued       metric.Int64Counter
	eventsReplayed     metric.Int64Counter
	sweepRuns          metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "roomlog"
	}
	meter := provider.Meter(name)

	eventsProcessed, err := meter.Int64Counter("roomlog_events_processed_total")
	if err != nil {
		return nil, err
	}
	eventsDeduplicated, err := meter.Int64Counter("roomlog_events_deduplicated_total")
	if err != nil {
		return nil, err
	}
	eventsFailed, err := meter.Int64Counter("roomlog_events_failed_total")
	if err != nil {
		return nil, err
	}
	eventsDropped, err := meter.Int64Counter("roomlog_events_dropped_total")
	if err != nil {
		return nil, err
	}
	eventsQueued, err := meter.Int64Counter("roomlog_events_queued_total")
	if err != nil {
		return nil, err
	}
	eventsReplayed, err := meter.Int64Counter("roomlog_events_replayed_total")
	if err != nil {
		return nil, err
	}
	sweepRuns, err := meter.Int64Counter("roomlog_sweep_runs_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		eventsProcessed:    eventsProcessed,
		eventsDeduplicated: eventsDeduplicated,
		eventsFailed:       eventsFailed,
		eventsDropped:      eventsDropped,
		eventsQueued:       eventsQueued,
		eventsReplayed:     eventsReplayed,
		sweepRuns:          sweepRuns,
	}, nil
}

func (m *Metrics) IncProcessed(family string) {
	if m == nil {
		return
	}
	m.eventsProcessed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("family", family)))
}

func (m *Metrics) IncDeduplicated() {
	if m == nil {
		return
	}
	m.eventsDeduplicated.Add(context.Background(), 1)
}

func (m *Metrics) IncFailed(family string) {
	if m == nil {
		return
	}
	m.eventsFailed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("family", family)))
}

func (m *Metrics) IncDropped(family string) {
	if m == nil {
		return
	}
	m.eventsDropped.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("family", family)))
}

func (m *Metrics) IncQueued() {
	if m == nil {
		return
	}
	m.eventsQueued.Add(context.Background(), 1)
}

func (m *Metrics) IncReplayed(outcome string) {
	if m == nil {
		return
	}
	m.eventsReplayed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) IncSweepRun(job string) {
	if m == nil {
		return
	}
	m.sweepRuns.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("job", job)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch protocol {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter protocol %q", protocol)
	}
}
