package resilience

import (
	"sync"
	"time"

	"github.com/kbukum/guardkit/logger"
)

// TokenBucket is a steady-state rate limiter. Tokens accumulate at
// refillRate per second up to capacity; refill happens lazily at each
// acquisition attempt, so accuracy depends on call frequency rather than
// a background timer. Strictly per-process and in-memory.
type TokenBucket struct {
	capacity   float64
	refillRate float64

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(capacity, refillRate float64) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     capacity,
		lastRefill: time.Now(),
	}
}

// Acquire debits tokens if available and reports whether the caller was
// admitted. A denied acquisition debits nothing. Never blocks.
func (b *TokenBucket) Acquire(tokens float64) bool {
	if tokens <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= tokens {
		b.tokens -= tokens
		return true
	}
	return false
}

// Allow is shorthand for Acquire(1).
func (b *TokenBucket) Allow() bool { return b.Acquire(1) }

// RetryAfter returns how long until tokens could be acquired. ok is false
// when the bucket never refills (zero refill rate).
func (b *TokenBucket) RetryAfter(tokens float64) (wait time.Duration, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	needed := tokens - b.tokens
	if needed <= 0 {
		return 0, true
	}
	if b.refillRate <= 0 {
		return 0, false
	}
	return time.Duration(needed / b.refillRate * float64(time.Second)), true
}

// Tokens returns the current token count after a refill.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// Capacity returns the bucket capacity.
func (b *TokenBucket) Capacity() float64 { return b.capacity }

// RefillRate returns the refill rate in tokens per second.
func (b *TokenBucket) RefillRate() float64 { return b.refillRate }

// refill adds tokens for the elapsed time. Callers hold b.mu.
func (b *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now

	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// ThrottleConfig configures a throttle policy.
type ThrottleConfig struct {
	// Name identifies this throttle for metrics/logging.
	Name string
	// Capacity is the maximum number of stored tokens.
	Capacity float64
	// RefillRate is the number of tokens added per second.
	RefillRate float64
	// Tokens is the cost debited per execution. Defaults to 1.
	Tokens float64
	// OnThrottle is called when an execution is denied.
	OnThrottle func(name string)
}

// DefaultThrottleConfig returns sensible defaults.
func DefaultThrottleConfig(name string) ThrottleConfig {
	return ThrottleConfig{
		Name:       name,
		Capacity:   20,
		RefillRate: 10,
		Tokens:     1,
	}
}

// ThrottlePolicy executes operations only when its token bucket has
// capacity, failing fast with a *ThrottledError otherwise.
type ThrottlePolicy struct {
	config ThrottleConfig
	bucket *TokenBucket
}

// NewThrottlePolicy creates a throttle policy with its own bucket.
func NewThrottlePolicy(config ThrottleConfig) *ThrottlePolicy {
	if config.Tokens <= 0 {
		config.Tokens = 1
	}
	return &ThrottlePolicy{
		config: config,
		bucket: NewTokenBucket(config.Capacity, config.RefillRate),
	}
}

// Bucket returns the underlying token bucket.
func (p *ThrottlePolicy) Bucket() *TokenBucket { return p.bucket }

// Execute runs fn if the bucket admits the configured token cost. On
// denial it returns a *ThrottledError carrying the retry-after hint
// without invoking fn.
func (p *ThrottlePolicy) Execute(fn func() error) error {
	if !p.bucket.Acquire(p.config.Tokens) {
		if p.config.OnThrottle != nil {
			p.config.OnThrottle(p.config.Name)
		}
		wait, ok := p.bucket.RetryAfter(p.config.Tokens)
		logger.WithGuard(p.config.Name).Debug("throttled", logger.Fields(
			logger.FieldRetryAfter, wait.Milliseconds(),
		))
		return &ThrottledError{RetryAfter: wait, Never: !ok}
	}
	return fn()
}

// ExecuteThrottled runs a value-returning fn through the throttle.
func ExecuteThrottled[T any](p *ThrottlePolicy, fn func() (T, error)) (T, error) {
	var result T
	err := p.Execute(func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
