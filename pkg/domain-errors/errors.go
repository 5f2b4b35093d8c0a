// Package domainerrors defines coded errors shared by services and transports.
//
// Services return *Error values carrying a stable Code. Transports map the code
// to a status (see pkg/platform/httputil) without inspecting messages.
//
//	err := dErrors.New(dErrors.CodeValidation, "end date precedes start date")
//	if dErrors.HasCode(err, dErrors.CodeValidation) { ... }
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	// Authorization outcomes.
	CodeUnknownPermission      Code = "unknown_permission"
	CodeInsufficientPermission Code = "insufficient_permission"
	CodeOrgBoundaryViolation   Code = "org_boundary_violation"

	// Integrity guard outcomes.
	CodeCycleDetected     Code = "cycle_detected"
	CodeInvalidTransition Code = "invalid_transition"

	// Input and state.
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"

	// Identity.
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"

	// Infrastructure.
	CodeUnavailable Code = "unavailable"
	CodeTimeout     Code = "timeout"
	CodeInternal    Code = "internal_error"
)

// Error is a coded domain error. Err, when set, is the underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost *Error in the chain, or CodeInternal
// when err is not a domain error. It returns "" for a nil error.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is reports whether err matches target; re-exported so callers need one import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Message returns the client-safe message of a domain error, or a generic text.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// IsAuthorization reports whether code is an authorization denial.
func IsAuthorization(code Code) bool {
	switch code {
	case CodeUnknownPermission, CodeInsufficientPermission, CodeOrgBoundaryViolation, CodeForbidden:
		return true
	}
	return false
}
