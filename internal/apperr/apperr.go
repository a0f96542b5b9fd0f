package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure. Codes are stable and exposed at the HTTP boundary.
type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"              // 404
	CodeValidation          Code = "VALIDATION_ERROR"       // 400
	CodeExtractionFailed    Code = "EXTRACTION_FAILED"      // 422
	CodeTransport           Code = "TRANSPORT_ERROR"        // 502
	CodeAmbiguousOrNotFound Code = "AMBIGUOUS_OR_NOT_FOUND" // 409
	CodeOutOfOrderSignal    Code = "OUT_OF_ORDER_SIGNAL"    // 409, non-fatal
	CodePermissionDenied    Code = "PERMISSION_DENIED"      // 403
	CodeInternal            Code = "INTERNAL"               // 500
)

// Error is a structured error with code, HTTP status, and optional details.
type Error struct {
	Code    Code
	Status  int
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing entity, e.g. NotFound("candidate", id).
func NotFound(kind, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// Validation reports bad input: an unknown placeholder, an invalid status value, a missing field.
func Validation(msg string) *Error {
	return &Error{
		Code:    CodeValidation,
		Status:  400,
		Message: msg,
	}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// ExtractionFailed reports that a document could not be turned into a candidate profile.
func ExtractionFailed(reason string, err error) *Error {
	msg := reason
	if err != nil {
		msg = fmt.Sprintf("%s: %v", reason, err)
	}
	return &Error{
		Code:    CodeExtractionFailed,
		Status:  422,
		Message: msg,
		Details: map[string]any{"reason": reason},
		Err:     err,
	}
}

// Transport reports an outbound email delivery failure.
func Transport(err error) *Error {
	msg := "email transport failed"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &Error{
		Code:    CodeTransport,
		Status:  502,
		Message: msg,
		Err:     err,
	}
}

// AmbiguousOrNotFound reports that a reply sender matched zero or several candidates.
func AmbiguousOrNotFound(email string, matches int) *Error {
	return &Error{
		Code:    CodeAmbiguousOrNotFound,
		Status:  409,
		Message: fmt.Sprintf("reply sender %q matched %d candidates", email, matches),
		Details: map[string]any{"email": email, "matches": matches},
	}
}

// OutOfOrderSignal reports a signal that arrived before the state it depends on.
// It is never fatal: callers log it and continue.
func OutOfOrderSignal(candidateID, current, signal string) *Error {
	return &Error{
		Code:    CodeOutOfOrderSignal,
		Status:  409,
		Message: fmt.Sprintf("signal %s ignored for candidate %s in status %s", signal, candidateID, current),
		Details: map[string]any{"candidate_id": candidateID, "status": current, "signal": signal},
	}
}

// PermissionDenied reports a remote resource the service account cannot read.
func PermissionDenied(resource string, err error) *Error {
	return &Error{
		Code:    CodePermissionDenied,
		Status:  403,
		Message: fmt.Sprintf("permission denied: %s", resource),
		Err:     err,
	}
}

// Internal wraps an unexpected error.
func Internal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    CodeInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is reports whether err (or anything it wraps) is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// StatusOf returns the HTTP status for err, 500 for anything uncoded.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return 500
}

// CodeOf returns the code of err, INTERNAL for anything uncoded.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
