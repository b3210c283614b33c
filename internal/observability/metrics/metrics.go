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

const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionClear  = "clear"

	ReasonLegacyMeal  = "legacy_meal"
	ReasonMealMissing = "meal_missing"
	ReasonStoreError  = "store_error"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	mealsCreated     metric.Int64Counter
	consumption      metric.Int64Counter
	servingsConsumed metric.Float64Counter
	restoreSkipped   metric.Int64Counter
	mealLogEntries   metric.Int64Counter
	insufficient     metric.Int64Counter
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

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "mealplan"
	}
	meter := provider.Meter(name)

	mealsCreated, err := meter.Int64Counter("mealplan_meals_created_total")
	if err != nil {
		return nil, err
	}
	consumption, err := meter.Int64Counter("mealplan_consumption_entries_total")
	if err != nil {
		return nil, err
	}
	servingsConsumed, err := meter.Float64Counter("mealplan_servings_consumed_total")
	if err != nil {
		return nil, err
	}
	restoreSkipped, err := meter.Int64Counter("mealplan_servings_restore_skipped_total")
	if err != nil {
		return nil, err
	}
	mealLogEntries, err := meter.Int64Counter("mealplan_meal_log_entries_total")
	if err != nil {
		return nil, err
	}
	insufficient, err := meter.Int64Counter("mealplan_insufficient_servings_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		mealsCreated:     mealsCreated,
		consumption:      consumption,
		servingsConsumed: servingsConsumed,
		restoreSkipped:   restoreSkipped,
		mealLogEntries:   mealLogEntries,
		insufficient:     insufficient,
	}, nil
}

// NewNop returns instruments backed by the noop provider.
func NewNop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordMealCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.mealsCreated.Add(ctx, 1)
}

// RecordConsumption counts ledger mutations by action (add, remove, clear).
func (m *Metrics) RecordConsumption(ctx context.Context, action string, entries int) {
	if m == nil || entries <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.consumption.Add(ctx, int64(entries), metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordServingsConsumed(ctx context.Context, servings float64) {
	if m == nil || servings <= 0 {
		return
	}
	m.servingsConsumed.Add(ctx, servings)
}

// RecordRestoreSkipped counts remaining-servings adjustments that did not
// apply after the ledger write had already committed.
func (m *Metrics) RecordRestoreSkipped(ctx context.Context, action, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("action", strings.TrimSpace(action)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.restoreSkipped.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordInsufficientServings(ctx context.Context) {
	if m == nil {
		return
	}
	m.insufficient.Add(ctx, 1)
}

func (m *Metrics) RecordMealLogged(ctx context.Context, mealTime string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("meal_time", mealTimeLabel(mealTime)))
	m.mealLogEntries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// mealTimeLabel folds free-text meal times into a fixed label set.
func mealTimeLabel(mealTime string) string {
	switch v := strings.ToLower(strings.TrimSpace(mealTime)); v {
	case "breakfast", "lunch", "dinner", "snack":
		return v
	default:
		return "other"
	}
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"action":      {},
	"reason":      {},
	"meal_time":   {},
	"route":       {},
	"method":      {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
