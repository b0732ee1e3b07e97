package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("LS-TEST-1000", "test message"),
			expected: "[LS-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("LS-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[LS-TEST-1001] test message: extra info",
		},
		{
			name:     "unregistered systems listed in order",
			err:      UnregisteredSystem("ghost", "phantom"),
			expected: "[LS-SYNC-4040] unregistered subsystem: ghost, phantom",
		},
		{
			name:     "validation failure names the target",
			err:      ValidationFailed("tension"),
			expected: "[LS-SYNC-4220] validation failed: tension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	if !errors.Is(UnregisteredSystem("ghost"), ErrUnregisteredSystem) {
		t.Error("errors.Is should match on code regardless of details")
	}
	if errors.Is(ValidationFailed("combat"), ErrUnregisteredSystem) {
		t.Error("errors.Is should return false for a different code")
	}
	if errors.Is(ErrValidationFailed, fmt.Errorf("validation failed")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_WithCause(t *testing.T) {
	cause := fmt.Errorf("root cause")
	wrapped := ErrHookFailure.WithCause(cause)

	if ErrHookFailure.Cause != nil {
		t.Error("WithCause should not modify the original error")
	}
	if errors.Unwrap(wrapped) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(wrapped), cause)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestIsDomainError(t *testing.T) {
	wrapped := fmt.Errorf("propagate: %w", ValidationFailed("combat"))

	if !IsDomainError(wrapped, "LS-SYNC-4220") {
		t.Error("IsDomainError should work with wrapped errors")
	}
	if !IsDomainError(wrapped, "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}
	if IsDomainError(wrapped, "LS-SYNC-4040") {
		t.Error("IsDomainError should return false for non-matching code")
	}
	if IsDomainError(fmt.Errorf("regular error"), "") {
		t.Error("IsDomainError should return false for non-DomainError")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrOperationConflict, "LS-OPER-4091"},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", ErrPayloadEncoding), "LS-DATA-4000"},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}
