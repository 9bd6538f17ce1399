package errors

// ErrorCode is a machine-readable failure kind. Resilience policies match
// failures against configured sets of codes rather than concrete types.
type ErrorCode string

// Guard rejections (produced by the resilience primitives themselves)
const (
	// ErrCodeCircuitOpen indicates a circuit breaker fast-failed the call.
	ErrCodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"
	// ErrCodeBulkheadFull indicates bulkhead admission was denied.
	ErrCodeBulkheadFull ErrorCode = "BULKHEAD_FULL"
	// ErrCodeThrottled indicates the steady-state rate limit was exceeded.
	ErrCodeThrottled ErrorCode = "THROTTLED"
	// ErrCodeDeadlineExceeded indicates the call's time budget ran out.
	ErrCodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
)

// Dependency failures (kinds the wrapped operation fails with)
const (
	// ErrCodeServiceUnavailable indicates the dependency is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to the dependency.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates a single call to the dependency timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeExternalService indicates the dependency returned an error.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Caller-side errors
const (
	// ErrCodeInvalidInput indicates a caller-side validation failure.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeThrottled:          true,
	ErrCodeExternalService:    true,
	ErrCodeInvalidInput:       false,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable failure.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
