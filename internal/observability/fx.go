package observability

import (
	"github.com/smallbiznis/mealplan/internal/observability/logger"
	"github.com/smallbiznis/mealplan/internal/observability/metrics"
	"github.com/smallbiznis/mealplan/internal/observability/tracing"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		func(cfg Config) logger.Config {
			return logger.Config{
				ServiceName: cfg.ServiceName,
				Environment: cfg.Environment,
				Version:     cfg.Version,
				Level:       cfg.Log.Level,
				Format:      cfg.Log.Format,
				Debug:       cfg.Debug(),
			}
		},
		func(cfg Config) tracing.Config {
			return tracing.Config{
				Enabled:          cfg.OTLP.Enabled,
				ServiceName:      cfg.ServiceName,
				ServiceVersion:   cfg.Version,
				Environment:      cfg.Environment,
				ExporterEndpoint: cfg.OTLP.Endpoint,
				ExporterProtocol: cfg.OTLP.Protocol,
				SamplingRatio:    cfg.OTLP.SamplingRatio,
			}
		},
		func(cfg Config) metrics.Config {
			return metrics.Config{
				Enabled:          cfg.OTLP.Enabled,
				ExporterEndpoint: cfg.OTLP.Endpoint,
				ExporterProtocol: cfg.OTLP.Protocol,
				ServiceName:      cfg.ServiceName,
				Environment:      cfg.Environment,
			}
		},
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// Tracing is installed globally as a side effect; nothing else asks for it.
	fx.Invoke(func(trace.TracerProvider) {}),
)
