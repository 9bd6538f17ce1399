package resilience

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/kbukum/guardkit/errors"
)

// GuardObserver receives execution outcomes from a Guard. Implementations
// must be safe for concurrent use. The observability package provides an
// OpenTelemetry-backed implementation.
type GuardObserver interface {
	// RecordCall records a completed execution and its status
	// ("success", "failure", or a rejection reason).
	RecordCall(ctx context.Context, guard, status string, duration time.Duration)
}

// GuardConfig bundles optional resilience policies for one protected
// dependency. Nil fields are skipped; the zero config is pure passthrough.
type GuardConfig struct {
	// Name identifies the protected dependency.
	Name string
	// Throttle enforces a steady-state rate limit.
	Throttle *ThrottleConfig
	// Bulkhead bounds concurrent and queued callers.
	Bulkhead *BulkheadConfig
	// CircuitBreaker fails fast while the dependency is unhealthy.
	CircuitBreaker *CircuitBreakerConfig
	// Retry re-invokes failed calls with backoff.
	Retry *RetryPolicy
	// Timeout bounds each guarded execution. Zero means no bound.
	Timeout time.Duration
	// Observer receives execution outcomes.
	Observer GuardObserver
}

// IsEmpty returns true if no resilience policies are configured.
func (c GuardConfig) IsEmpty() bool {
	return c.Throttle == nil && c.Bulkhead == nil && c.CircuitBreaker == nil &&
		c.Retry == nil && c.Timeout <= 0
}

// Guard holds initialized resilience primitives built from a GuardConfig.
// Construct one per protected dependency and share it across callers.
type Guard struct {
	name     string
	throttle *ThrottlePolicy
	bulkhead *Bulkhead
	breaker  *CircuitBreaker
	retry    *RetryPolicy
	timeout  time.Duration
	observer GuardObserver
}

// BuildGuard creates initialized resilience primitives from config.
// Returns nil for an empty config.
func BuildGuard(cfg GuardConfig) *Guard {
	if cfg.IsEmpty() {
		return nil
	}
	g := &Guard{
		name:     cfg.Name,
		retry:    cfg.Retry,
		timeout:  cfg.Timeout,
		observer: cfg.Observer,
	}
	if cfg.Throttle != nil {
		g.throttle = NewThrottlePolicy(*cfg.Throttle)
	}
	if cfg.Bulkhead != nil {
		g.bulkhead = NewBulkhead(*cfg.Bulkhead)
	}
	if cfg.CircuitBreaker != nil {
		g.breaker = NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return g
}

// Breaker returns the guard's circuit breaker, or nil.
func (g *Guard) Breaker() *CircuitBreaker { return g.breaker }

// ExecuteGuarded runs fn through the guard chain:
// Throttle → Bulkhead → CircuitBreaker → Retry → fn, each layer wrapping
// the next as a zero-argument callable. Guard rejections are converted to
// errors.AppError; the operation's own failures pass through unchanged.
func ExecuteGuarded[T any](ctx context.Context, g *Guard, fn func() (T, error)) (T, error) {
	if g == nil {
		return fn()
	}

	started := time.Now()

	call := fn
	if g.timeout > 0 {
		timedCall := call
		call = func() (T, error) {
			return ExecuteWithTimeout(ctx, g.timeout, func(context.Context) (T, error) {
				return timedCall()
			})
		}
	}

	if g.retry != nil {
		retryCall := call
		call = func() (T, error) {
			return Retry(ctx, *g.retry, retryCall)
		}
	}

	if g.breaker != nil {
		cbCall := call
		call = func() (T, error) {
			return ExecuteBreaker(g.breaker, cbCall)
		}
	}

	if g.bulkhead != nil {
		bhCall := call
		call = func() (T, error) {
			return ExecuteWithResult(g.bulkhead, ctx, bhCall)
		}
	}

	if g.throttle != nil {
		thCall := call
		call = func() (T, error) {
			return ExecuteThrottled(g.throttle, thCall)
		}
	}

	result, err := call()
	if g.observer != nil {
		g.observer.RecordCall(ctx, g.name, statusOf(err), time.Since(started))
	}
	if err != nil {
		return result, WrapGuardError(g.name, err)
	}
	return result, nil
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrBulkheadFull):
		return "bulkhead_full"
	case errors.Is(err, ErrThrottled):
		return "throttled"
	case errors.Is(err, ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	default:
		return "failure"
	}
}

// WrapGuardError converts resilience sentinel errors to errors.AppError
// for consistent handling across the stack. Other errors pass through.
func WrapGuardError(name string, err error) error {
	if err == nil {
		return nil
	}

	// Already an AppError, keep it.
	if _, ok := goerrors.AsAppError(err); ok {
		return err
	}

	var throttled *ThrottledError
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return goerrors.CircuitOpen(name).WithCause(err)
	case errors.Is(err, ErrBulkheadFull):
		return goerrors.BulkheadFull(name).WithCause(err)
	case errors.As(err, &throttled):
		retryAfter := throttled.RetryAfter
		if throttled.Never {
			retryAfter = -1
		}
		return goerrors.Throttled(retryAfter).WithCause(err)
	case errors.Is(err, ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return goerrors.DeadlineExceeded(name).WithCause(err)
	default:
		return err
	}
}
