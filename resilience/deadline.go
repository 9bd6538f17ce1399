package resilience

import (
	"context"
	"time"
)

// Deadline is an immutable absolute expiry instant. A new Deadline
// replaces rather than mutates an existing one.
type Deadline struct {
	expiresAt time.Time
}

// DeadlineAfter creates a deadline expiring after the given duration.
func DeadlineAfter(d time.Duration) Deadline {
	return Deadline{expiresAt: time.Now().Add(d)}
}

// DeadlineAt creates a deadline expiring at the given instant.
func DeadlineAt(t time.Time) Deadline {
	return Deadline{expiresAt: t}
}

// ExpiresAt returns the absolute expiry instant.
func (d Deadline) ExpiresAt() time.Time { return d.expiresAt }

// Remaining returns the time left until expiry, clamped to zero.
func (d Deadline) Remaining() time.Duration {
	if r := time.Until(d.expiresAt); r > 0 {
		return r
	}
	return 0
}

// Expired reports whether the deadline has passed.
func (d Deadline) Expired() bool {
	return !time.Now().Before(d.expiresAt)
}

// IsZero reports whether the deadline is unset.
func (d Deadline) IsZero() bool { return d.expiresAt.IsZero() }

// deadlineKey is an unexported type for context keys to avoid collisions.
type deadlineKey struct{}

// WithDeadline stores a deadline in the context. Nested operations
// spawned with the returned context observe it through DeadlineFrom;
// concurrently running tasks with their own contexts are unaffected.
func WithDeadline(ctx context.Context, d Deadline) context.Context {
	return context.WithValue(ctx, deadlineKey{}, d)
}

// DeadlineFrom retrieves the ambient deadline from the context. It falls
// back to the context's own deadline when no ambient one is set.
func DeadlineFrom(ctx context.Context) (Deadline, bool) {
	if d, ok := ctx.Value(deadlineKey{}).(Deadline); ok {
		return d, true
	}
	if t, ok := ctx.Deadline(); ok {
		return DeadlineAt(t), true
	}
	return Deadline{}, false
}

// DeadlineAware runs fn under the ambient deadline carried by ctx. When
// no deadline is active, fn runs directly. See ExecuteWithDeadline.
func DeadlineAware[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	d, ok := DeadlineFrom(ctx)
	if !ok {
		return fn(ctx)
	}
	return ExecuteWithDeadline(ctx, d, fn)
}

// ExecuteWithDeadline runs fn, failing with ErrDeadlineExceeded if the
// deadline elapses before fn completes. An already-expired deadline means
// fn is never started. On timeout the context passed to fn is canceled so
// the in-flight operation can stop promptly.
func ExecuteWithDeadline[T any](ctx context.Context, d Deadline, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if d.Expired() {
		return zero, ErrDeadlineExceeded
	}

	cctx, cancel := context.WithDeadline(WithDeadline(ctx, d), d.ExpiresAt())
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	// Buffered so the operation goroutine never blocks after a timeout.
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(cctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-cctx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrDeadlineExceeded
	}
}
