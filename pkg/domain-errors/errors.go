// Package domainerrors defines the coded error type every registry operation
// returns. Services attach a Code; the HTTP layer translates codes into
// statuses. Callers branch on codes with HasCode rather than string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure class in the registry error taxonomy.
type Code string

const (
	// Registry taxonomy.
	CodeAlreadyRegistered Code = "already_registered"
	CodeUnauthorized      Code = "unauthorized"
	CodeInvalidID         Code = "invalid_id"
	CodeInvalidParam      Code = "invalid_param"
	CodeNotFound          Code = "not_found"
	CodePaused            Code = "paused"
	CodeInvalidHash       Code = "invalid_hash"
	CodeMaxTagsExceeded   Code = "max_tags_exceeded"
	CodeInvalidStatus     Code = "invalid_status"

	// Transport-level codes.
	CodeBadRequest Code = "bad_request"
	CodeInternal   Code = "internal"
)

// Error is the coded error carried across service boundaries.
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

// New builds a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in this package.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto the HTTP status the transport layer responds
// with. Paused maps to 423 Locked: the resource exists but is write-blocked.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeAlreadyRegistered:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodePaused:
		return http.StatusLocked
	case CodeInvalidID, CodeInvalidParam, CodeInvalidHash,
		CodeMaxTagsExceeded, CodeInvalidStatus, CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
