package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/guardkit/logger"
	"github.com/kbukum/guardkit/resilience"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// GuardMetrics holds OpenTelemetry instruments for guard activity. It
// implements resilience.GuardObserver, so a pointer to it plugs straight
// into GuardConfig.Observer.
type GuardMetrics struct {
	callTotal    metric.Int64Counter
	callDuration metric.Float64Histogram
	rejections   metric.Int64Counter
	transitions  metric.Int64Counter
	hedgeWins    metric.Int64Counter
}

// NewGuardMetrics creates guard instruments on the given meter.
func NewGuardMetrics(meter metric.Meter) (*GuardMetrics, error) {
	callTotal, err := meter.Int64Counter("guard.calls.total",
		metric.WithDescription("Total guarded calls by guard and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating guard.calls.total counter: %w", err)
	}

	callDuration, err := meter.Float64Histogram("guard.call.duration",
		metric.WithDescription("Duration of guarded calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating guard.call.duration histogram: %w", err)
	}

	rejections, err := meter.Int64Counter("guard.rejections.total",
		metric.WithDescription("Calls rejected before reaching the operation, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating guard.rejections.total counter: %w", err)
	}

	transitions, err := meter.Int64Counter("guard.breaker.transitions.total",
		metric.WithDescription("Circuit breaker state transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating guard.breaker.transitions.total counter: %w", err)
	}

	hedgeWins, err := meter.Int64Counter("guard.hedge.wins.total",
		metric.WithDescription("Hedged calls by winning invocation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating guard.hedge.wins.total counter: %w", err)
	}

	return &GuardMetrics{
		callTotal:    callTotal,
		callDuration: callDuration,
		rejections:   rejections,
		transitions:  transitions,
		hedgeWins:    hedgeWins,
	}, nil
}

// RecordCall records one guarded call. status is "success", "failure", or
// a rejection reason ("circuit_open", "bulkhead_full", "throttled",
// "deadline_exceeded").
func (m *GuardMetrics) RecordCall(ctx context.Context, guard, status string, duration time.Duration) {
	m.callTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("guard", guard),
		attribute.String("status", status),
	))
	m.callDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("guard", guard),
	))

	switch status {
	case "circuit_open", "bulkhead_full", "throttled", "deadline_exceeded":
		m.rejections.Add(ctx, 1, metric.WithAttributes(
			attribute.String("guard", guard),
			attribute.String("reason", status),
		))
	}
}

// RecordTransition records a circuit breaker state change.
func (m *GuardMetrics) RecordTransition(ctx context.Context, guard string, from, to resilience.State) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("guard", guard),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
}

// RecordHedgeWin records which invocation won a hedged call. Index 0 is
// the original, higher indexes are hedges.
func (m *GuardMetrics) RecordHedgeWin(ctx context.Context, guard string, winnerIndex int) {
	m.hedgeWins.Add(ctx, 1, metric.WithAttributes(
		attribute.String("guard", guard),
		attribute.Int("winner_index", winnerIndex),
	))
}

// BreakerStateHook returns an OnStateChange callback for
// resilience.CircuitBreakerConfig that records transitions.
func (m *GuardMetrics) BreakerStateHook() func(name string, from, to resilience.State) {
	return func(name string, from, to resilience.State) {
		m.RecordTransition(context.Background(), name, from, to)
	}
}
