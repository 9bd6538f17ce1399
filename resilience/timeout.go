package resilience

import (
	"context"
	"time"
)

// TimeoutPolicy enforces a relative per-call time budget. It is a thin
// layer over ExecuteWithDeadline for call sites that think in timeouts
// rather than absolute deadlines.
type TimeoutPolicy struct {
	// Timeout is the maximum duration a single execution may take.
	Timeout time.Duration
}

// Execute runs fn, failing with ErrDeadlineExceeded once the timeout
// elapses. The context passed to fn is canceled on timeout.
func (p TimeoutPolicy) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := ExecuteWithDeadline(ctx, DeadlineAfter(p.Timeout), func(cctx context.Context) (struct{}, error) {
		return struct{}{}, fn(cctx)
	})
	return err
}

// ExecuteWithTimeout runs a value-returning fn under a relative timeout.
func ExecuteWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	return ExecuteWithDeadline(ctx, DeadlineAfter(timeout), fn)
}
