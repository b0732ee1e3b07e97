package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "LS-SYNC-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Synchronization Errors (SYNC)
// ============================================================================

var (
	// ErrUnregisteredSystem indicates a propagation named a subsystem
	// that was never registered. Raised before any state is touched.
	ErrUnregisteredSystem = NewDomainError("LS-SYNC-4040", "unregistered subsystem")

	// ErrValidationFailed indicates a target's validation hook rejected
	// the propagated payload. Targets processed earlier stay mutated.
	ErrValidationFailed = NewDomainError("LS-SYNC-4220", "validation failed")
)

// UnregisteredSystem builds ErrUnregisteredSystem naming the given ids.
func UnregisteredSystem(ids ...string) *DomainError {
	return ErrUnregisteredSystem.WithDetails(strings.Join(ids, ", "))
}

// ValidationFailed builds ErrValidationFailed naming the rejecting target.
func ValidationFailed(target string) *DomainError {
	return ErrValidationFailed.WithDetails(target)
}

// ============================================================================
// Hook Errors (HOOK)
// Hook errors never reach callers of the coordinator; they are logged.
// ============================================================================

var (
	// ErrHookFailure wraps an error returned by a caller-supplied hook.
	ErrHookFailure = NewDomainError("LS-HOOK-5000", "hook failed")

	// ErrHookPanic indicates a hook panicked.
	ErrHookPanic = NewDomainError("LS-HOOK-5001", "hook panicked")
)

// ============================================================================
// Data and Operation Errors (DATA, OPER)
// ============================================================================

var (
	// ErrPayloadEncoding indicates a payload holds values with no canonical encoding.
	ErrPayloadEncoding = NewDomainError("LS-DATA-4000", "payload cannot be canonicalized")

	// ErrInvalidTransition indicates an operation status change the state machine forbids.
	ErrInvalidTransition = NewDomainError("LS-OPER-4090", "invalid operation status transition")

	// ErrOperationNotFound indicates no operation record has the given id.
	ErrOperationNotFound = NewDomainError("LS-OPER-4040", "operation not found")

	// ErrOperationConflict indicates a caller-supplied operation id is already in use.
	ErrOperationConflict = NewDomainError("LS-OPER-4091", "operation id conflict")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("LS-ARG-1001", "invalid argument")
)
