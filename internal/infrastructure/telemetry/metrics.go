package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atency/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MeterProvider owns the SDK meter provider and its periodic exporter.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider exports metrics over OTLP gRPC every cfg.MetricsInterval
// (60s when unset).
func NewMeterProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled || !cfg.MetricsEnabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// Meter returns a named meter, falling back to the global provider
func (mp *MeterProvider) Meter(name string) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name)
	}
	return mp.provider.Meter(name)
}

// Shutdown flushes and stops the exporter
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := mp.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Attribute keys used on attendance instruments
var (
	AttrOperation = attribute.Key("operation")
	AttrOutcome   = attribute.Key("outcome")
)

// Outcome values
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// BackfillDurationBuckets covers a quick no-op up to a slow full scan.
var BackfillDurationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}

// AttendanceMetrics holds the business instruments of the attendance service.
type AttendanceMetrics struct {
	operations       metric.Int64Counter
	absencesMarked   metric.Int64Counter
	backfillDuration metric.Float64Histogram
}

// NewAttendanceMetrics registers the instruments on meter
func NewAttendanceMetrics(meter metric.Meter) (*AttendanceMetrics, error) {
	operations, err1 := meter.Int64Counter("attendance.operations",
		metric.WithDescription("Check-in and check-out attempts by outcome"),
		metric.WithUnit("{operation}"))
	absences, err2 := meter.Int64Counter("attendance.absences_marked",
		metric.WithDescription("ABSENT records created by the backfill"),
		metric.WithUnit("{record}"))
	duration, err3 := meter.Float64Histogram("attendance.backfill.duration",
		metric.WithDescription("Duration of absence backfill runs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(BackfillDurationBuckets...))
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, fmt.Errorf("failed to create attendance metrics: %w", err)
	}

	return &AttendanceMetrics{
		operations:       operations,
		absencesMarked:   absences,
		backfillDuration: duration,
	}, nil
}

// RecordOperation counts one check-in or check-out attempt
func (m *AttendanceMetrics) RecordOperation(ctx context.Context, operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(operation), AttrOutcome.String(outcome)))
}

// RecordBackfill records one backfill run
func (m *AttendanceMetrics) RecordBackfill(ctx context.Context, created int, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if failed {
		outcome = OutcomeError
	}
	m.absencesMarked.Add(ctx, int64(created))
	m.backfillDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrOutcome.String(outcome)))
}
