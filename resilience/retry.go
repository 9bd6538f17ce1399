package resilience

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/kbukum/guardkit/errors"
	"github.com/kbukum/guardkit/logger"
)

// RetryPolicy configures retry behavior.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// Backoff computes the base delay after a failed attempt.
	Backoff BackoffStrategy
	// Jitter perturbs the computed delay.
	Jitter JitterStrategy
	// RetryableCodes is the allow-list of failure kinds that trigger a
	// retry. Failures with any other kind propagate immediately.
	RetryableCodes []goerrors.ErrorCode
	// RetryIf overrides RetryableCodes with an arbitrary predicate.
	RetryIf func(error) bool
	// OnRetry is called before each retry wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy returns sensible defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff{Base: 100 * time.Millisecond, Max: 10 * time.Second},
		Jitter:      FullJitter{},
	}
}

// DefaultRetryIf retries all errors except context cancellation, expired
// deadlines, and guard rejections. Retrying into an open breaker or a
// full bulkhead would defeat their purpose.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, ErrDeadlineExceeded) &&
		!errors.Is(err, ErrCircuitOpen) &&
		!errors.Is(err, ErrBulkheadFull)
}

func (p RetryPolicy) shouldRetry(err error) bool {
	if p.RetryIf != nil {
		return p.RetryIf(err)
	}
	if len(p.RetryableCodes) > 0 {
		return goerrors.HasCode(err, p.RetryableCodes...)
	}
	return DefaultRetryIf(err)
}

// Retry executes fn up to MaxAttempts times. After a retryable failure it
// waits Jitter(Backoff(attempt)), never past the active deadline: when
// the wait would cross it, ErrDeadlineExceeded propagates instead of the
// original failure. A non-retryable failure propagates immediately; when
// all attempts are exhausted, the last failure is returned.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Backoff == nil {
		p.Backoff = ExponentialBackoff{Base: 100 * time.Millisecond, Max: 10 * time.Second}
	}
	if p.Jitter == nil {
		p.Jitter = FullJitter{}
	}

	deadline, hasDeadline := DeadlineFrom(ctx)

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}
		if hasDeadline && deadline.Expired() {
			return zero, ErrDeadlineExceeded
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !p.shouldRetry(err) {
			return zero, err
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Jitter.Apply(p.Backoff.Compute(attempt))
		if hasDeadline && delay >= deadline.Remaining() {
			// Waiting would outlive the budget; stop retrying.
			return zero, ErrDeadlineExceeded
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		logger.Debug("retrying operation", logger.Fields(
			logger.FieldAttempt, attempt,
			logger.FieldDelay, delay.Milliseconds(),
			logger.FieldError, err.Error(),
		))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, p RetryPolicy, fn func() error) error {
	_, err := Retry(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
