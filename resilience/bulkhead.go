package resilience

import (
	"context"
)

// ConcurrencyLimiter bounds how many callers may run a protected section
// at once. Admission is non-blocking: Enter fails with ErrBulkheadFull
// when no permit is free.
type ConcurrencyLimiter struct {
	sem           chan struct{}
	maxConcurrent int
}

// NewConcurrencyLimiter creates a limiter with maxConcurrent permits.
func NewConcurrencyLimiter(maxConcurrent int) *ConcurrencyLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &ConcurrencyLimiter{
		sem:           make(chan struct{}, maxConcurrent),
		maxConcurrent: maxConcurrent,
	}
}

// Enter acquires a permit, or fails immediately with ErrBulkheadFull.
func (l *ConcurrencyLimiter) Enter() error {
	select {
	case l.sem <- struct{}{}:
		return nil
	default:
		return ErrBulkheadFull
	}
}

// Exit releases a permit acquired by Enter.
func (l *ConcurrencyLimiter) Exit() {
	<-l.sem
}

// InUse returns the number of permits currently held.
func (l *ConcurrencyLimiter) InUse() int { return len(l.sem) }

// Available returns the number of free permits.
func (l *ConcurrencyLimiter) Available() int { return l.maxConcurrent - len(l.sem) }

// MaxConcurrent returns the permit pool size.
func (l *ConcurrencyLimiter) MaxConcurrent() int { return l.maxConcurrent }

// QueueLimiter bounds both running and queued callers: at most
// maxConcurrent execute the protected body simultaneously, and at most
// maxQueue additional callers wait for a running slot. Everyone else is
// rejected immediately.
type QueueLimiter struct {
	// outer tracks queued-or-running callers, inner tracks running ones.
	outer         chan struct{}
	inner         chan struct{}
	maxConcurrent int
	maxQueue      int
}

// NewQueueLimiter creates a limiter admitting maxConcurrent runners plus
// maxQueue waiters.
func NewQueueLimiter(maxConcurrent, maxQueue int) *QueueLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	if maxQueue < 0 {
		maxQueue = 0
	}
	return &QueueLimiter{
		outer:         make(chan struct{}, maxConcurrent+maxQueue),
		inner:         make(chan struct{}, maxConcurrent),
		maxConcurrent: maxConcurrent,
		maxQueue:      maxQueue,
	}
}

// Enter admits the caller or fails with ErrBulkheadFull when both the
// running and queue capacity are exhausted. The outer acquisition is a
// single compare-and-admit step, so concurrent entries cannot oversubscribe
// the queue. Waiting for a running slot is bounded by ctx.
func (q *QueueLimiter) Enter(ctx context.Context) error {
	select {
	case q.outer <- struct{}{}:
	default:
		return ErrBulkheadFull
	}

	// Queued: wait for a running slot.
	select {
	case q.inner <- struct{}{}:
		return nil
	case <-ctx.Done():
		<-q.outer
		return ctx.Err()
	}
}

// Exit releases the slots acquired by Enter.
func (q *QueueLimiter) Exit() {
	<-q.inner
	<-q.outer
}

// Running returns the number of callers executing the protected body.
func (q *QueueLimiter) Running() int { return len(q.inner) }

// Queued returns the number of callers waiting for a running slot.
func (q *QueueLimiter) Queued() int {
	n := len(q.outer) - len(q.inner)
	if n < 0 {
		return 0
	}
	return n
}

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead for metrics/logging.
	Name string
	// MaxConcurrent is the maximum number of concurrent calls.
	MaxConcurrent int
	// MaxQueue is the maximum number of callers waiting for a slot.
	MaxQueue int
	// OnReject is called when a request is rejected.
	OnReject func(name string)
}

// DefaultBulkheadConfig returns sensible defaults.
func DefaultBulkheadConfig(name string) BulkheadConfig {
	return BulkheadConfig{
		Name:          name,
		MaxConcurrent: 10,
		MaxQueue:      5,
	}
}

// Bulkhead is the composite guard combining concurrency and queue
// limiting behind an Execute entry point.
type Bulkhead struct {
	config  BulkheadConfig
	limiter *QueueLimiter
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{
		config:  config,
		limiter: NewQueueLimiter(config.MaxConcurrent, config.MaxQueue),
	}
}

// Execute runs fn within the bulkhead. Returns ErrBulkheadFull without
// invoking fn when admission is denied.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.limiter.Enter(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name)
		}
		return err
	}
	defer b.limiter.Exit()

	return fn()
}

// ExecuteWithResult runs a value-returning fn within the bulkhead.
func ExecuteWithResult[T any](b *Bulkhead, ctx context.Context, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// Running returns the number of callers executing the protected body.
func (b *Bulkhead) Running() int { return b.limiter.Running() }

// Queued returns the number of callers waiting for a slot.
func (b *Bulkhead) Queued() int { return b.limiter.Queued() }
