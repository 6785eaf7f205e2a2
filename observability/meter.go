package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	apperrors "github.com/kbukum/lesstokens/errors"
	"github.com/kbukum/lesstokens/logger"
)

// InitMeter initializes the OpenTelemetry meter provider.
// The returned provider should be shut down on application exit.
func InitMeter(ctx context.Context, cfg Config, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.OrNop(log).Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))

	return mp, nil
}

// Metrics holds the SDK's metric instruments.
type Metrics struct {
	requests    metric.Int64Counter
	errors      metric.Int64Counter
	tokensSaved metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requests, err := meter.Int64Counter("lesstokens.requests",
		metric.WithDescription("Total number of SDK operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lesstokens.requests counter: %w", err)
	}

	errorsTotal, err := meter.Int64Counter("lesstokens.errors",
		metric.WithDescription("Failed SDK operations by error kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lesstokens.errors counter: %w", err)
	}

	tokensSaved, err := meter.Int64Counter("lesstokens.tokens.saved",
		metric.WithDescription("Tokens removed by compression"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lesstokens.tokens.saved counter: %w", err)
	}

	duration, err := meter.Float64Histogram("lesstokens.operation.duration",
		metric.WithDescription("Duration of SDK operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lesstokens.operation.duration histogram: %w", err)
	}

	return &Metrics{
		requests:    requests,
		errors:      errorsTotal,
		tokensSaved: tokensSaved,
		duration:    duration,
	}, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns instruments bound to the global meter provider.
// It returns nil if instrument creation fails; all Metrics methods accept a
// nil receiver.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.Meter(instrumentationName))
		if err == nil {
			defaultMetrics = m
		}
	})
	return defaultMetrics
}

// RecordOperation records one finished operation with its outcome.
func (m *Metrics) RecordOperation(ctx context.Context, operation, provider string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
	if err != nil {
		kind := string(apperrors.CodeOf(err))
		if kind == "" {
			kind = "UNKNOWN"
		}
		m.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("kind", kind),
		))
	}
}

// RecordTokensSaved adds the tokens removed by one compression.
func (m *Metrics) RecordTokensSaved(ctx context.Context, provider string, saved int) {
	if m == nil || saved <= 0 {
		return
	}
	m.tokensSaved.Add(ctx, int64(saved), metric.WithAttributes(
		attribute.String("provider", provider),
	))
}
