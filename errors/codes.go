package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: connector timeouts, temporary service unavailability.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: unknown framework, missing template, invalid task payload.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates resource exhaustion or quota issues.
	// Examples: connector rate limiting, storage quota exceeded.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates unexpected errors, bugs, or system failures.
	// Examples: corrupted store records, assertion failures.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for common failure scenarios.
const (
	// Transient errors
	ErrCodeTimeout     ErrorCode = "TIMEOUT"     // Operation timed out
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE" // External service temporarily unavailable
	ErrCodeNetworkErr  ErrorCode = "NETWORK_ERR" // Network connectivity issue

	// Permanent errors
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"     // Resource does not exist
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT" // Malformed or invalid input
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"  // Authentication with a connector failed
	ErrCodeCanceled     ErrorCode = "CANCELED"      // Operation was canceled

	// Resource errors
	ErrCodeRateLimit ErrorCode = "RATE_LIMITED" // Connector rate limit exceeded

	// Internal errors
	ErrCodeInternal   ErrorCode = "INTERNAL"   // Unexpected internal error
	ErrCodeCorruption ErrorCode = "CORRUPTION" // Stored record could not be decoded

	// Scaffolding errors
	ErrCodeTemplateNotFound     ErrorCode = "TEMPLATE_NOT_FOUND"    // No template for the framework
	ErrCodeUnsupportedFramework ErrorCode = "UNSUPPORTED_FRAMEWORK" // Framework outside the supported set
	ErrCodeTaskFailed           ErrorCode = "TASK_FAILED"           // Agent task execution failed
	ErrCodeStorage              ErrorCode = "STORAGE"               // Project store read/write failed
	ErrCodeConnector            ErrorCode = "CONNECTOR"             // External service call failed
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	// Transient
	case ErrCodeTimeout, ErrCodeUnavailable, ErrCodeNetworkErr:
		return CategoryTransient

	// Permanent
	case ErrCodeNotFound, ErrCodeInvalidInput, ErrCodeUnauthorized, ErrCodeCanceled,
		ErrCodeTemplateNotFound, ErrCodeUnsupportedFramework, ErrCodeTaskFailed:
		return CategoryPermanent

	// Resource
	case ErrCodeRateLimit:
		return CategoryResource

	// Internal
	case ErrCodeInternal, ErrCodeCorruption, ErrCodeStorage:
		return CategoryInternal

	// Connector failures are usually worth one more attempt.
	case ErrCodeConnector:
		return CategoryTransient

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}
