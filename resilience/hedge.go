package resilience

import (
	"context"
	"time"
)

// HedgePolicy races a delayed duplicate invocation against the original
// to bound tail latency. Hedge k launches after Delay*k. The first
// invocation to succeed wins and the rest are canceled through their
// context. Only safe for idempotent operations; that is the caller's
// responsibility.
type HedgePolicy struct {
	// Delay is the base wait before launching a hedge.
	Delay time.Duration
	// MaxHedges is the number of duplicates raced against the original.
	// Zero means the operation runs exactly once.
	MaxHedges int
}

// HedgeResult carries the winning invocation's value, which invocation
// won (0 = original, >=1 = hedge index), and the total latency.
type HedgeResult[T any] struct {
	Value       T
	WinnerIndex int
	Latency     time.Duration
}

// Hedge executes fn under the policy. The first success wins; losing
// invocations are canceled rather than abandoned. If every invocation
// fails, the first recorded failure is returned.
func Hedge[T any](ctx context.Context, p HedgePolicy, fn func(context.Context) (T, error)) (HedgeResult[T], error) {
	started := time.Now()
	total := 1 + p.MaxHedges
	if total < 1 {
		total = 1
	}

	hctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		index int
		value T
		err   error
	}
	// Buffered so losers finishing after the winner never block.
	results := make(chan outcome, total)

	launch := func(index int) {
		if index > 0 {
			timer := time.NewTimer(p.Delay * time.Duration(index))
			select {
			case <-timer.C:
			case <-hctx.Done():
				timer.Stop()
				var zero T
				results <- outcome{index: index, value: zero, err: hctx.Err()}
				return
			}
		}
		value, err := fn(hctx)
		results <- outcome{index: index, value: value, err: err}
	}

	for i := 0; i < total; i++ {
		go launch(i)
	}

	var firstErr error
	for received := 0; received < total; received++ {
		out := <-results
		if out.err == nil {
			cancel()
			return HedgeResult[T]{
				Value:       out.value,
				WinnerIndex: out.index,
				Latency:     time.Since(started),
			}, nil
		}
		if firstErr == nil {
			firstErr = out.err
		}
	}

	var zero HedgeResult[T]
	return zero, firstErr
}
