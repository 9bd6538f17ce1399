// Package errors provides unified error handling for guardkit.
// It implements structured error types with machine-readable failure
// kinds (codes) and retryable detection, so resilience policies can
// match failures against configured code sets.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable failure kind.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Guard rejection constructors ---

// CircuitOpen creates a new AppError for a circuit breaker that fast-failed a call.
func CircuitOpen(circuit string) *AppError {
	return &AppError{
		Code: ErrCodeCircuitOpen, Message: fmt.Sprintf("Circuit breaker '%s' is open.", circuit),
		Retryable: false,
		Details:   map[string]any{"circuit": circuit},
	}
}

// BulkheadFull creates a new AppError for a bulkhead that denied admission.
func BulkheadFull(bulkhead string) *AppError {
	return &AppError{
		Code: ErrCodeBulkheadFull, Message: fmt.Sprintf("Bulkhead '%s' is at capacity.", bulkhead),
		Retryable: false,
		Details:   map[string]any{"bulkhead": bulkhead},
	}
}

// Throttled creates a new AppError for a call denied by the rate limiter.
// A negative retryAfter means tokens never refill.
func Throttled(retryAfter time.Duration) *AppError {
	e := &AppError{
		Code: ErrCodeThrottled, Message: "Rate limit exceeded.",
		Retryable: true,
	}
	if retryAfter >= 0 {
		e.Details = map[string]any{"retry_after_ms": retryAfter.Milliseconds()}
	}
	return e
}

// DeadlineExceeded creates a new AppError for an exhausted time budget.
func DeadlineExceeded(operation string) *AppError {
	return &AppError{
		Code: ErrCodeDeadlineExceeded, Message: "The operation's deadline was exceeded.",
		Retryable: false,
		Details:   map[string]any{"operation": operation},
	}
}

// --- Dependency failure constructors ---

// ServiceUnavailable creates a new AppError for a dependency that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// ConnectionFailed creates a new AppError for a failed connection to a dependency.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for a single call that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// ExternalServiceError creates a new AppError for an error returned by a dependency.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error.", service),
		Retryable: true,
		Details:   map[string]any{"service": service}, Cause: cause,
	}
}

// --- Caller-side constructors ---

// InvalidInput creates a new AppError for a caller-side validation failure.
func InvalidInput(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Retryable: false,
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Retryable: false, Cause: cause,
	}
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the failure kind of err, or the empty code if err is not
// an AppError.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries one of the given failure kinds.
func HasCode(err error, codes ...ErrorCode) bool {
	code := CodeOf(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err is marked retryable. Errors that are
// not AppErrors are treated as non-retryable.
func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return false
}
