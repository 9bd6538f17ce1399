package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad request")
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, err.Code)
	}
	if err.Message != "bad request" {
		t.Errorf("expected message 'bad request', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("INVALID_INPUT should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_CircuitOpen(t *testing.T) {
	err := CircuitOpen("payments")
	if err.Code != ErrCodeCircuitOpen {
		t.Errorf("expected CIRCUIT_OPEN, got %s", err.Code)
	}
	if err.Details["circuit"] != "payments" {
		t.Errorf("expected circuit=payments, got %v", err.Details["circuit"])
	}
	if err.Retryable {
		t.Error("CircuitOpen should not be retryable")
	}
}

func TestAppError_BulkheadFull(t *testing.T) {
	err := BulkheadFull("search")
	if err.Code != ErrCodeBulkheadFull {
		t.Errorf("expected BULKHEAD_FULL, got %s", err.Code)
	}
	if err.Details["bulkhead"] != "search" {
		t.Errorf("expected bulkhead=search, got %v", err.Details["bulkhead"])
	}
}

func TestAppError_Throttled(t *testing.T) {
	err := Throttled(250 * time.Millisecond)
	if err.Code != ErrCodeThrottled {
		t.Errorf("expected THROTTLED, got %s", err.Code)
	}
	if err.Details["retry_after_ms"] != int64(250) {
		t.Errorf("expected retry_after_ms=250, got %v", err.Details["retry_after_ms"])
	}
	if !err.Retryable {
		t.Error("Throttled should be retryable")
	}
}

func TestAppError_Throttled_NeverRefills(t *testing.T) {
	err := Throttled(-1)
	if _, ok := err.Details["retry_after_ms"]; ok {
		t.Error("expected no retry_after_ms detail when tokens never refill")
	}
}

func TestAppError_DeadlineExceeded(t *testing.T) {
	err := DeadlineExceeded("fetch")
	if err.Code != ErrCodeDeadlineExceeded {
		t.Errorf("expected DEADLINE_EXCEEDED, got %s", err.Code)
	}
	if err.Retryable {
		t.Error("DeadlineExceeded should not be retryable")
	}
}

func TestAppError_Internal_Success(t *testing.T) {
	cause := fmt.Errorf("db connection lost")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
	if err.Retryable {
		t.Error("Internal should NOT be retryable by default")
	}
}

func TestAppError_Error_WithCause(t *testing.T) {
	err := ServiceUnavailable("catalog").WithCause(fmt.Errorf("connection refused"))
	msg := err.Error()
	if !strings.Contains(msg, "SERVICE_UNAVAILABLE") {
		t.Errorf("expected code in message, got %q", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("expected cause in message, got %q", msg)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := ExternalServiceError("broker", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause through Unwrap")
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := Timeout("query").WithDetail("attempt", 3)
	if err.Details["attempt"] != 3 {
		t.Errorf("expected attempt=3, got %v", err.Details["attempt"])
	}
}

func TestAppError_WithDetails_Merges(t *testing.T) {
	err := Timeout("query").WithDetails(map[string]any{"a": 1}).WithDetails(map[string]any{"b": 2})
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := ConnectionFailed("cache")
	wrapped := fmt.Errorf("calling cache: %w", appErr)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to unwrap the AppError")
	}
	if got.Code != ErrCodeConnectionFailed {
		t.Errorf("expected CONNECTION_FAILED, got %s", got.Code)
	}

	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("expected plain error to not be an AppError")
	}
}

func TestCodeOf(t *testing.T) {
	if code := CodeOf(Throttled(0)); code != ErrCodeThrottled {
		t.Errorf("expected THROTTLED, got %s", code)
	}
	if code := CodeOf(stderrors.New("plain")); code != "" {
		t.Errorf("expected empty code for plain error, got %s", code)
	}
}

func TestHasCode(t *testing.T) {
	err := Timeout("op")
	if !HasCode(err, ErrCodeConnectionFailed, ErrCodeTimeout) {
		t.Error("expected HasCode to match TIMEOUT")
	}
	if HasCode(err, ErrCodeCircuitOpen) {
		t.Error("expected HasCode to reject non-matching code")
	}
	if HasCode(stderrors.New("plain"), ErrCodeTimeout) {
		t.Error("expected HasCode to reject plain errors")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ServiceUnavailable("svc")) {
		t.Error("expected SERVICE_UNAVAILABLE to be retryable")
	}
	if IsRetryable(InvalidInput("bad")) {
		t.Error("expected INVALID_INPUT to not be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Error("expected plain error to not be retryable")
	}
}
