// Package shared holds types used across the money-movement core:
// the error taxonomy surfaced to callers and minor-unit money helpers.
package shared

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure for the caller, who uses it to decide
// whether a retry is safe.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	CodeRateLimited       ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeDuplicateRequest  ErrorCode = "DUPLICATE_REQUEST"
	CodeProviderDeclined  ErrorCode = "PROVIDER_DECLINED"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// Error is the typed error carried across the core's boundaries.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on the error code, so callers can test for a whole class
// of failures with errors.Is(err, &Error{Code: CodeConflict}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

func NewValidation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewConflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func NewInsufficientFunds(format string, args ...any) *Error {
	return &Error{Code: CodeInsufficientFunds, Message: fmt.Sprintf(format, args...)}
}

func NewRateLimited(format string, args ...any) *Error {
	return &Error{Code: CodeRateLimited, Message: fmt.Sprintf(format, args...)}
}

func NewDuplicateRequest(format string, args ...any) *Error {
	return &Error{Code: CodeDuplicateRequest, Message: fmt.Sprintf(format, args...)}
}

func NewProviderDeclined(format string, args ...any) *Error {
	return &Error{Code: CodeProviderDeclined, Message: fmt.Sprintf(format, args...)}
}

func NewInternal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}

// CodeOf extracts the taxonomy code from any error, defaulting to
// CodeInternal for untyped failures.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
