package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodePending      ErrorCode = "PENDING_APPROVAL"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError reports per-field problems with a request payload.
func NewValidationError(fields map[string]string) *Error {
	return &Error{
		Code:    ErrCodeInvalid,
		Message: "invalid payload",
		Fields:  fields,
	}
}

// Common domain errors.
var (
	ErrAccountNotFound    = NewError(ErrCodeNotFound, "account not found")
	ErrEditorNotFound     = NewError(ErrCodeNotFound, "Editor-in-Chief not found")
	ErrEditorMissing      = NewError(ErrCodeNotFound, "No active Editor-in-Chief account found")
	ErrSessionNotFound    = NewError(ErrCodeNotFound, "session not found")
	ErrMissingCredentials = NewError(ErrCodeInvalid, "Both email and password are required")
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "Invalid email or password")
	ErrNoEditorAccount    = NewError(ErrCodeUnauthorized, "No active Editor-in-Chief account found")
	ErrPendingApproval    = NewError(ErrCodePending, "Account pending approval")
	ErrDuplicateEmail     = NewError(ErrCodeConflict, "A user with this email already exists.")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrSessionRevoked     = NewError(ErrCodeUnauthorized, "session revoked")
	ErrForbidden          = NewError(ErrCodeForbidden, "You do not have permission to perform this action.")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// AsDomainError returns the domain error in err's chain, if any.
func AsDomainError(err error) (*Error, bool) {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr, true
	}
	return nil, false
}
