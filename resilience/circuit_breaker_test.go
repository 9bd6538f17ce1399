package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	goerrors "github.com/kbukum/guardkit/errors"
)

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))
	if cb.State() != StateClosed {
		t.Errorf("expected closed state, got %v", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		Timeout:          time.Minute,
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errors.New("fail") })
	}

	if cb.State() != StateOpen {
		t.Errorf("expected open state after 3 failures, got %v", cb.State())
	}

	callCount := 0
	err := cb.Execute(func() error {
		callCount++
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if callCount != 0 {
		t.Errorf("operation must not run while open, ran %d times", callCount)
	}
}

func TestCircuitBreaker_SuccessClearsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
	})

	_ = cb.Execute(func() error { return errors.New("fail") })
	_ = cb.Execute(func() error { return errors.New("fail") })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errors.New("fail") })
	_ = cb.Execute(func() error { return errors.New("fail") })

	if cb.State() != StateClosed {
		t.Errorf("expected closed state, got %v", cb.State())
	}
	if cb.Failures() != 2 {
		t.Errorf("expected 2 failures in window, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_WindowExpiresOldFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		Window:           50 * time.Millisecond,
	})

	_ = cb.Execute(func() error { return errors.New("fail") })
	_ = cb.Execute(func() error { return errors.New("fail") })

	time.Sleep(80 * time.Millisecond)

	_ = cb.Execute(func() error { return errors.New("fail") })

	if cb.State() != StateClosed {
		t.Errorf("expected closed state, stale failures should not count, got %v", cb.State())
	}
	if cb.Failures() != 1 {
		t.Errorf("expected 1 failure in window, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_FailuresAccessorDoesNotCorruptWindow(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		Window:           100 * time.Millisecond,
	})

	// Two failures spaced so that only the first expires before the
	// accessor prunes the window.
	_ = cb.Execute(func() error { return errors.New("fail") })
	time.Sleep(70 * time.Millisecond)
	_ = cb.Execute(func() error { return errors.New("fail") })
	time.Sleep(60 * time.Millisecond)

	if got := cb.Failures(); got != 1 {
		t.Fatalf("expected 1 failure in window, got %d", got)
	}

	// One live failure plus one new one is still below the threshold;
	// reading Failures() must not have duplicated the live entry.
	_ = cb.Execute(func() error { return errors.New("fail") })

	if cb.State() != StateClosed {
		t.Errorf("expected closed state after 2 in-window failures, got %v", cb.State())
	}
	if got := cb.Failures(); got != 2 {
		t.Errorf("expected 2 failures in window, got %d", got)
	}
}

func TestCircuitBreaker_ProbeAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          50 * time.Millisecond,
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errors.New("fail") })
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %v", cb.State())
	}

	time.Sleep(80 * time.Millisecond)

	callCount := 0
	err := cb.Execute(func() error {
		callCount++
		return nil
	})
	if err != nil {
		t.Errorf("expected probe to succeed, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected probe to run once, ran %d times", callCount)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed state after successful probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		Timeout:          30 * time.Millisecond,
	})

	_ = cb.Execute(func() error { return errors.New("fail") })
	_ = cb.Execute(func() error { return errors.New("fail") })

	time.Sleep(50 * time.Millisecond)

	_ = cb.Execute(func() error { return errors.New("still failing") })
	if cb.State() != StateOpen {
		t.Errorf("expected open state after failed probe, got %v", cb.State())
	}

	err := cb.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen right after reopening, got %v", err)
	}
}

func TestCircuitBreaker_SuccessThresholdClosesGradually(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          20 * time.Millisecond,
	})

	_ = cb.Execute(func() error { return errors.New("fail") })
	time.Sleep(40 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("first probe: %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("expected half-open after 1 of 2 successes, got %v", cb.State())
	}

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after 2 successes, got %v", cb.State())
	}
}

func TestCircuitBreaker_ExactlyOneProbe(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          10 * time.Millisecond,
	})

	_ = cb.Execute(func() error { return errors.New("fail") })
	time.Sleep(30 * time.Millisecond)

	release := make(chan struct{})
	started := make(chan struct{})

	var mu sync.Mutex
	admitted := 0
	rejected := 0

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := cb.Execute(func() error {
			close(started)
			<-release
			return nil
		})
		if err != nil {
			t.Errorf("probe caller: %v", err)
		}
	}()

	<-started

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := cb.Execute(func() error {
				mu.Lock()
				admitted++
				mu.Unlock()
				return nil
			})
			if errors.Is(err, ErrCircuitOpen) {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if admitted != 0 {
		t.Errorf("expected 0 additional admissions while probe in flight, got %d", admitted)
	}
	if rejected != 5 {
		t.Errorf("expected 5 rejections, got %d", rejected)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_ExcludedCodesDoNotCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		ExcludedCodes:    []goerrors.ErrorCode{goerrors.ErrCodeInvalidInput},
	})

	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return goerrors.InvalidInput("bad request") })
	}

	if cb.State() != StateClosed {
		t.Errorf("excluded failures must not open the circuit, got %v", cb.State())
	}
	if cb.Failures() != 0 {
		t.Errorf("expected 0 counted failures, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_ExcludeIfPredicate(t *testing.T) {
	benign := errors.New("benign")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		ExcludeIf:        func(err error) bool { return errors.Is(err, benign) },
	})

	_ = cb.Execute(func() error { return benign })
	_ = cb.Execute(func() error { return benign })
	if cb.State() != StateClosed {
		t.Fatalf("expected closed, got %v", cb.State())
	}

	_ = cb.Execute(func() error { return errors.New("real") })
	_ = cb.Execute(func() error { return errors.New("real") })
	if cb.State() != StateOpen {
		t.Errorf("expected open after 2 counted failures, got %v", cb.State())
	}
}

func TestCircuitBreaker_ErrorsStillPropagateWhenExcluded(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		ExcludedCodes:    []goerrors.ErrorCode{goerrors.ErrCodeInvalidInput},
	})

	err := cb.Execute(func() error { return goerrors.InvalidInput("bad") })
	if !goerrors.HasCode(err, goerrors.ErrCodeInvalidInput) {
		t.Errorf("excluded error must still reach the caller, got %v", err)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	type transition struct{ from, to State }
	var transitions []transition
	var mu sync.Mutex

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          20 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			transitions = append(transitions, transition{from, to})
			mu.Unlock()
		},
	})

	_ = cb.Execute(func() error { return errors.New("fail") })
	time.Sleep(40 * time.Millisecond)
	_ = cb.Execute(func() error { return nil })

	want := []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != len(want) {
		t.Fatalf("expected %d transitions, got %d: %v", len(want), len(transitions), transitions)
	}
	for i, tr := range want {
		if transitions[i] != tr {
			t.Errorf("transition %d: expected %v->%v, got %v->%v",
				i, tr.from, tr.to, transitions[i].from, transitions[i].to)
		}
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
	})

	_ = cb.Execute(func() error { return errors.New("fail") })
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %v", cb.State())
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("expected closed after reset, got %v", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("expected call to pass after reset, got %v", err)
	}
}

func TestExecuteBreaker(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))

	result, err := ExecuteBreaker(cb, func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
}

func TestStateString(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.state.String(); got != c.want {
			t.Errorf("State(%d).String() = %q, want %q", c.state, got, c.want)
		}
	}
}
