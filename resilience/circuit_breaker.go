package resilience

import (
	"sync"
	"time"

	goerrors "github.com/kbukum/guardkit/errors"
	"github.com/kbukum/guardkit/logger"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen fails all requests fast.
	StateOpen
	// StateHalfOpen allows probe requests to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker for metrics/logging.
	Name string
	// FailureThreshold is the number of failures within Window before
	// opening the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the circuit again.
	SuccessThreshold int
	// Timeout is how long to wait in open state before admitting a probe.
	Timeout time.Duration
	// Window is the rolling window failures are counted in.
	Window time.Duration
	// ExcludedCodes lists failure kinds that never count toward the
	// thresholds (they still propagate to the caller).
	ExcludedCodes []goerrors.ErrorCode
	// ExcludeIf supplements ExcludedCodes with an arbitrary predicate.
	ExcludeIf func(error) bool
	// OnStateChange is called when state changes.
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		Window:           60 * time.Second,
	}
}

// CircuitBreaker fails fast while a dependency is deemed unhealthy.
//
// States:
//   - Closed: normal operation; failures are counted in a rolling window
//   - Open: requests fail immediately with ErrCircuitOpen
//   - HalfOpen: probes are admitted one at a time to test recovery
//
// One instance is constructed per protected dependency and shared by all
// its callers. State transitions run under a mutex sized to the check
// itself; the wrapped operation executes outside it.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu            sync.Mutex
	state         State
	failures      []time.Time
	successes     int
	openedAt      time.Time
	probeInFlight bool
}

// NewCircuitBreaker creates a new circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Window <= 0 {
		config.Window = 60 * time.Second
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Execute runs fn through the circuit breaker. Returns ErrCircuitOpen
// without invoking fn when the circuit rejects the call.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	admitted, probe := cb.admit()
	if !admitted {
		return ErrCircuitOpen
	}

	err := fn()
	cb.record(err, probe)
	return err
}

// ExecuteBreaker runs a value-returning fn through the breaker.
func ExecuteBreaker[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	var result T
	err := cb.Execute(func() error {
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

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset resets the circuit breaker to the closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toState(StateClosed)
	cb.failures = nil
	cb.successes = 0
	cb.probeInFlight = false
}

// Failures returns the number of failures recorded in the current window.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.prune(time.Now())
	return len(cb.failures)
}

// admit decides whether a call may proceed. The second result marks the
// call as the half-open probe; exactly one probe is admitted per
// open-to-half-open transition, the rest are rejected as if still open
// until the probe resolves.
func (cb *CircuitBreaker) admit() (admitted, probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true, false
	case StateOpen:
		if time.Since(cb.openedAt) < cb.config.Timeout {
			return false, false
		}
		cb.toState(StateHalfOpen)
		cb.probeInFlight = true
		return true, true
	case StateHalfOpen:
		if cb.probeInFlight {
			return false, false
		}
		cb.probeInFlight = true
		return true, true
	default:
		return false, false
	}
}

// record registers the outcome of an admitted call.
func (cb *CircuitBreaker) record(err error, probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if probe {
		cb.probeInFlight = false
	}

	if err == nil {
		cb.onSuccess()
		return
	}
	if cb.isExcluded(err) {
		return
	}
	cb.onFailure()
}

func (cb *CircuitBreaker) isExcluded(err error) bool {
	if len(cb.config.ExcludedCodes) > 0 && goerrors.HasCode(err, cb.config.ExcludedCodes...) {
		return true
	}
	return cb.config.ExcludeIf != nil && cb.config.ExcludeIf(err)
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateClosed:
		cb.failures = nil
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.toState(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) onFailure() {
	switch cb.state {
	case StateClosed:
		now := time.Now()
		cb.prune(now)
		cb.failures = append(cb.failures, now)
		if len(cb.failures) >= cb.config.FailureThreshold {
			cb.toState(StateOpen)
		}
	case StateHalfOpen:
		cb.toState(StateOpen)
	}
}

// prune drops failure timestamps that fell out of the rolling window.
// Callers hold cb.mu.
func (cb *CircuitBreaker) prune(now time.Time) {
	cutoff := now.Add(-cb.config.Window)
	kept := cb.failures[:0]
	for _, t := range cb.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	cb.failures = kept
}

// toState transitions to a new state. Callers hold cb.mu.
func (cb *CircuitBreaker) toState(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to

	switch to {
	case StateClosed:
		cb.failures = nil
		cb.successes = 0
	case StateHalfOpen:
		cb.successes = 0
	case StateOpen:
		cb.openedAt = time.Now()
		cb.failures = nil
		cb.successes = 0
	}

	log := logger.WithGuard(cb.config.Name)
	switch to {
	case StateOpen:
		log.Warn("circuit breaker opened", logger.Fields(logger.FieldState, to.String()))
	default:
		log.Info("circuit breaker state changed", logger.Fields(logger.FieldState, to.String()))
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
