package resilience

import (
	"math"
	"time"
)

// BackoffStrategy computes the wait duration after the attempt-th failed
// attempt (attempts start at 1). Implementations are pure and stateless.
type BackoffStrategy interface {
	Compute(attempt int) time.Duration
}

// ConstantBackoff waits a fixed delay between attempts.
type ConstantBackoff struct {
	Delay time.Duration
}

// Compute returns the configured delay regardless of attempt.
func (b ConstantBackoff) Compute(int) time.Duration { return b.Delay }

// LinearBackoff grows the delay linearly: min(base*attempt, max).
type LinearBackoff struct {
	Base time.Duration
	Max  time.Duration
}

// Compute returns the delay for the given attempt.
func (b LinearBackoff) Compute(attempt int) time.Duration {
	d := time.Duration(attempt) * b.Base
	if d > b.Max || d < 0 {
		return b.Max
	}
	return d
}

// ExponentialBackoff grows the delay exponentially: min(base*2^attempt, max).
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

// Compute returns the delay for the given attempt.
func (b ExponentialBackoff) Compute(attempt int) time.Duration {
	f := float64(b.Base) * math.Pow(2, float64(attempt))
	if f > float64(b.Max) || f < 0 {
		return b.Max
	}
	return time.Duration(f)
}
