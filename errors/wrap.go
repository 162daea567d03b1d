package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// If err is already a structured Error, its code, category and metadata
// are preserved. Otherwise a new Internal error wraps the original.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var berr *Error
	if errors.As(err, &berr) {
		wrapped := &Error{
			code:      berr.code,
			category:  berr.category,
			message:   message,
			cause:     err,
			metadata:  berr.Metadata(),
			retryable: berr.retryable,
			agentID:   berr.agentID,
			taskID:    berr.taskID,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	// Context errors carry their own codes.
	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsBoulevardError attempts to extract a structured error from an error chain.
// Returns nil if none is found.
func AsBoulevardError(err error) BoulevardError {
	var berr *Error
	if errors.As(err, &berr) {
		return berr
	}
	return nil
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var berr *Error
	if errors.As(err, &berr) {
		return berr.code == code
	}
	return false
}

// IsRetryable reports whether the error chain is marked retryable.
// Unstructured errors are not retryable.
func IsRetryable(err error) bool {
	var berr *Error
	if errors.As(err, &berr) {
		return berr.Retryable()
	}
	return false
}
