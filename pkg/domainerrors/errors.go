// Package domainerrors defines the error taxonomy returned by services. Every
// error carries a stable machine-readable code so callers and handlers can
// branch on kind instead of message text.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeNotFound                 Code = "not_found"
	CodeInvalidTransition        Code = "invalid_transition"
	CodeUnauthorized             Code = "unauthorized"
	CodeConsentNotVerified       Code = "consent_not_verified"
	CodeOrganNotAvailable        Code = "organ_not_available"
	CodeRequesterLocationMissing Code = "requester_location_missing"
	CodeLocationNotFound         Code = "location_not_found"
	CodePartialUpdate            Code = "partial_update"
	CodeBadRequest               Code = "bad_request"
	CodeConflict                 Code = "conflict"
	CodeInternal                 Code = "internal_error"
)

// Error is the domain error type. Message is safe to show to API callers for
// every code except CodeInternal.
type Error struct {
	Code    Code
	Message string

	// Entity names the sub-entity that failed for CodePartialUpdate so
	// operators can reconcile; empty otherwise.
	Entity string

	err error
}

func (e *Error) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.Entity)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// New builds a domain error with the given code and caller-facing message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches an underlying cause while keeping the caller-facing message.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, err: err}
}

// Partial reports a cross-entity write that failed after another entity was
// already persisted. The named entity is the one left un-updated.
func Partial(entity string, err error) *Error {
	return &Error{
		Code:    CodePartialUpdate,
		Message: fmt.Sprintf("update of %s failed after a sibling entity was persisted; manual reconciliation required", entity),
		Entity:  entity,
		err:     err,
	}
}

// Is reports whether err is a domain error with the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error code to its HTTP response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeConsentNotVerified, CodeOrganNotAvailable:
		return http.StatusPreconditionFailed
	case CodeRequesterLocationMissing, CodeLocationNotFound, CodeBadRequest:
		return http.StatusBadRequest
	case CodePartialUpdate:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
