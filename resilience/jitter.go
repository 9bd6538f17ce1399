package resilience

import (
	"math/rand"
	"time"
)

// JitterStrategy perturbs a computed backoff delay to spread synchronized
// retries ("thundering herd"). Jitter always post-processes the backoff's
// output, never the reverse.
type JitterStrategy interface {
	Apply(delay time.Duration) time.Duration
}

// NoJitter returns the delay unchanged.
type NoJitter struct{}

// Apply is the identity.
func (NoJitter) Apply(delay time.Duration) time.Duration { return delay }

// FullJitter draws uniformly in [0, delay].
type FullJitter struct{}

// Apply returns a uniform random duration in [0, delay].
func (FullJitter) Apply(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(delay) + 1))
}

// EqualJitter draws uniformly in [delay/2, delay].
type EqualJitter struct{}

// Apply returns a uniform random duration in [delay/2, delay].
func (EqualJitter) Apply(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(delay-half)+1))
}
