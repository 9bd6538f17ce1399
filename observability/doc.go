// Package observability provides OpenTelemetry tracing and metrics for
// guard activity.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanGuardedCall)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewGuardMetrics(observability.Meter("my-service"))
//
// GuardMetrics implements resilience.GuardObserver, so it plugs directly
// into a guard:
//
//	guard := resilience.BuildGuard(resilience.GuardConfig{
//	    Name:     "payments",
//	    Observer: metrics,
//	    ...
//	})
//
// Health checks expose breaker state:
//
//	health := observability.NewServiceHealth("my-service", "1.0.0")
//	health.AddComponent(observability.NewBreakerHealth("payments", guard.Breaker()).CheckHealth(ctx))
package observability
