// Package offlineerrors defines the shared error taxonomy used across the
// network detector, circuit breaker, replay queue, cache manager, conflict
// engine, and overlay controller. It is a leaf package: no internal
// dependencies, so every other package can import it without risk of cycles.
package offlineerrors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure so callers can branch on recoverability
// without inspecting error strings or concrete types.
type ErrorCode int

const (
	// CodeUnknown is the zero value; never constructed deliberately.
	CodeUnknown ErrorCode = iota

	// CodeTransientNetwork indicates a connection-level failure (DNS,
	// dial, reset) that the replay queue should retry with backoff.
	CodeTransientNetwork

	// CodeTimeout indicates the operation exceeded its deadline.
	CodeTimeout

	// CodeServerRetryable indicates a 5xx or 429 response that counts
	// against the circuit breaker and is safe to retry.
	CodeServerRetryable

	// CodeVersionConflict indicates a 409/412 response requiring conflict
	// resolution rather than a bare retry.
	CodeVersionConflict

	// CodeClientFatal indicates a non-retryable 4xx response (400, 401,
	// 403, 404, 422) that should be surfaced to the user, not replayed.
	CodeClientFatal

	// CodeStorageError indicates the local durable store (badger) failed
	// to persist or read an entry.
	CodeStorageError

	// CodeCapabilityAbsent indicates the caller invoked an overlay
	// adapter capability the current adapter does not support.
	CodeCapabilityAbsent
)

// String returns the human-readable name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case CodeTransientNetwork:
		return "transient_network"
	case CodeTimeout:
		return "timeout"
	case CodeServerRetryable:
		return "server_retryable"
	case CodeVersionConflict:
		return "version_conflict"
	case CodeClientFatal:
		return "client_fatal"
	case CodeStorageError:
		return "storage_error"
	case CodeCapabilityAbsent:
		return "capability_absent"
	default:
		return "unknown"
	}
}

// Retryable reports whether an error of this class is worth retrying
// through the write replay queue's backoff schedule.
func (c ErrorCode) Retryable() bool {
	switch c {
	case CodeTransientNetwork, CodeTimeout, CodeServerRetryable:
		return true
	default:
		return false
	}
}

// Error is the concrete error type components return for classified
// failures. Some paths return the underlying error unwrapped, for example
// transport.HTTPSender.Send on a failed HTTP request.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an *Error with no wrapped cause.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs an *Error carrying cause as its underlying error.
// Returns nil if cause is nil.
func Wrap(code ErrorCode, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the ErrorCode from err if it is (or wraps) an *Error,
// returning CodeUnknown otherwise.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
