// Package resilience provides composable guards for calls to unreliable
// dependencies.
//
// This package includes:
//   - CircuitBreaker: fails fast while a dependency is unhealthy
//   - Retry: retries failed operations with pluggable backoff and jitter
//   - ConcurrencyLimiter / QueueLimiter / Bulkhead: bound concurrent and queued callers
//   - TokenBucket / ThrottlePolicy: steady-state rate limiting
//   - HedgePolicy: races delayed duplicates to bound tail latency
//   - FallbackPolicy / CachedFallbackPolicy: substitute values on failure
//   - Deadline / DeadlineAware / TimeoutPolicy: absolute time budgets
//
// Every primitive accepts a zero-argument operation closure (or one taking
// a context when it must be cancelable), so guards nest in any order:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("http"))
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 10, MaxQueue: 5})
//
//	err := cb.Execute(func() error {
//	    return bh.Execute(ctx, func() error {
//	        return httpClient.Do(req)
//	    })
//	})
//
// Shared instances (breakers, buckets, limiters) are safe for concurrent
// use; the wrapped operation always runs outside their internal locks.
package resilience
