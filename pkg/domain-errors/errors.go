// Package dErrors provides coded domain errors that services return and the
// HTTP layer translates into status codes. Infrastructure facts (row missing,
// duplicate key) live in pkg/platform/sentinel; this package is for the
// domain's own vocabulary.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and branching.
type Code string

const (
	// CodeBadRequest covers malformed requests: bad JSON, missing body fields.
	CodeBadRequest Code = "bad_request"
	// CodeValidation covers schema/range constraint violations. The error may
	// carry the full list of violations (see Violations).
	CodeValidation Code = "validation_error"
	// CodeInvalidInput covers malformed identifiers and primitive values.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound means the referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict means a uniqueness constraint was violated.
	CodeConflict Code = "conflict"
	// CodeUnauthorized means the caller presented no valid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the caller is authenticated but not allowed.
	CodeForbidden Code = "forbidden"
	// CodeLocked means the record is time-locked and rejects mutation.
	CodeLocked Code = "locked_record"
	// CodeInvariantViolation means a business-rule state transition was
	// attempted from the wrong state.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInsufficientBalance means a balance deduction would go negative.
	CodeInsufficientBalance Code = "insufficient_balance"
	// CodeInternal is the unclassified failure bucket.
	CodeInternal Code = "internal_error"
)

// Error is the concrete domain error. Wrapping preserves the cause chain so
// errors.Is/As keep working through service layers.
type Error struct {
	Code    Code
	Message string
	// Violations carries every violated rule for validation errors so
	// callers can report all of them, not just the first.
	Violations []string
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// NewValidation creates a validation error carrying the complete list of
// violated rules.
func NewValidation(message string, violations []string) error {
	return &Error{Code: CodeValidation, Message: message, Violations: violations}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is is shorthand for HasCode; it reads better at call sites that branch on
// a single code.
func Is(err error, code Code) bool { return HasCode(err, code) }

// ViolationsOf extracts the violation list from a validation error, or nil.
func ViolationsOf(err error) []string {
	var de *Error
	if errors.As(err, &de) {
		return de.Violations
	}
	return nil
}

// ToHTTPStatus maps a code to its HTTP status. Locked records and invalid
// state transitions are business-rule failures and map to 400 rather than
// 409 or 423, matching the API's error taxonomy.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeLocked,
		CodeInvariantViolation, CodeInsufficientBalance:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the code carried by err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
