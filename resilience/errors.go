package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by the guards. Callers match them with errors.Is.
var (
	// ErrCircuitOpen is returned when a circuit breaker fast-fails a call.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrBulkheadFull is returned when bulkhead admission is denied.
	ErrBulkheadFull = errors.New("bulkhead is full")
	// ErrThrottled is returned when the rate limit is exceeded. The
	// concrete error is a *ThrottledError carrying the retry-after hint.
	ErrThrottled = errors.New("rate limit exceeded")
	// ErrDeadlineExceeded is returned when an operation's time budget ran
	// out before it completed.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
)

// ThrottledError reports a denied acquisition together with how long the
// caller should wait before enough tokens accumulate.
type ThrottledError struct {
	// RetryAfter is the wait until the acquisition could succeed.
	RetryAfter time.Duration
	// Never is true when the bucket never refills (zero refill rate).
	Never bool
}

// Error returns the string representation of the error.
func (e *ThrottledError) Error() string {
	if e.Never {
		return "rate limit exceeded: tokens never refill"
	}
	return fmt.Sprintf("rate limit exceeded: retry after %s", e.RetryAfter)
}

// Is makes errors.Is(err, ErrThrottled) match.
func (e *ThrottledError) Is(target error) bool { return target == ErrThrottled }
