package resilience

import (
	"sync"

	goerrors "github.com/kbukum/guardkit/errors"
)

// FallbackPolicy substitutes a default value when the wrapped operation
// fails with a matching kind. Non-matching failures propagate unchanged.
type FallbackPolicy[T any] struct {
	// Value is the static fallback returned on a matching failure.
	Value T
	// Producer, when set, is invoked instead of returning Value.
	Producer func() (T, error)
	// Codes restricts which failure kinds trigger the fallback. Empty
	// means every failure matches.
	Codes []goerrors.ErrorCode
	// MatchIf supplements Codes with an arbitrary predicate.
	MatchIf func(error) bool
}

// NewFallback creates a policy substituting a static value for failures
// of the given kinds.
func NewFallback[T any](value T, codes ...goerrors.ErrorCode) *FallbackPolicy[T] {
	return &FallbackPolicy[T]{Value: value, Codes: codes}
}

// NewFallbackProducer creates a policy invoking producer on matching
// failures.
func NewFallbackProducer[T any](producer func() (T, error), codes ...goerrors.ErrorCode) *FallbackPolicy[T] {
	return &FallbackPolicy[T]{Producer: producer, Codes: codes}
}

func (p *FallbackPolicy[T]) matches(err error) bool {
	if p.MatchIf != nil && p.MatchIf(err) {
		return true
	}
	if len(p.Codes) > 0 {
		return goerrors.HasCode(err, p.Codes...)
	}
	return p.MatchIf == nil
}

func (p *FallbackPolicy[T]) fallback() (T, error) {
	if p.Producer != nil {
		return p.Producer()
	}
	return p.Value, nil
}

// Execute runs fn, substituting the fallback on a matching failure.
func (p *FallbackPolicy[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil {
		return result, nil
	}
	if !p.matches(err) {
		var zero T
		return zero, err
	}
	return p.fallback()
}

// CachedFallbackPolicy remembers the last successful result and prefers
// it over the configured fallback: on a matching failure the cached value
// is returned if one exists, and the fallback only serves callers before
// the first success.
type CachedFallbackPolicy[T any] struct {
	FallbackPolicy[T]

	mu        sync.Mutex
	cached    T
	hasCached bool
}

// NewCachedFallback creates a caching policy over a static fallback.
func NewCachedFallback[T any](value T, codes ...goerrors.ErrorCode) *CachedFallbackPolicy[T] {
	return &CachedFallbackPolicy[T]{
		FallbackPolicy: FallbackPolicy[T]{Value: value, Codes: codes},
	}
}

// Execute runs fn, caching successes and serving the last-known-good
// value on matching failures.
func (p *CachedFallbackPolicy[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil {
		p.mu.Lock()
		p.cached = result
		p.hasCached = true
		p.mu.Unlock()
		return result, nil
	}
	if !p.matches(err) {
		var zero T
		return zero, err
	}

	p.mu.Lock()
	cached, ok := p.cached, p.hasCached
	p.mu.Unlock()
	if ok {
		return cached, nil
	}
	return p.fallback()
}

// Cached returns the last successful result, if any.
func (p *CachedFallbackPolicy[T]) Cached() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cached, p.hasCached
}
