// Package domainerrors provides coded errors for the biovault module.
//
// Stores and infrastructure return sentinel errors (pkg/platform/sentinel);
// this package carries the caller-facing taxonomy. Every error produced at
// the secure-store boundary records the originating platform status code so
// diagnostics survive the mapping.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies an error category in the store/facade taxonomy.
type Code string

const (
	// Store taxonomy. CodeNotFound is only surfaced by operations that have
	// no "absent" result channel (e.g. update of a missing entry); reads map
	// not-found to an absent result instead.
	CodeNotFound      Code = "not_found"
	CodeDuplicateItem Code = "duplicate_item"
	CodeAuthFailed    Code = "authentication_failed"
	CodeInvalidParams Code = "invalid_parameters"
	CodeAccessControl Code = "access_control_failed"
	CodeUnavailable   Code = "unavailable"
	CodeInternal      Code = "internal_error"

	// Transport-layer codes.
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeConflict     Code = "conflict"
)

// Error is a coded error, optionally wrapping a cause and carrying the raw
// platform status code that produced it.
type Error struct {
	Code    Code
	Message string

	// PlatformCode holds the credential-store status that originated this
	// error. Zero means "not set" (platform success never produces errors).
	PlatformCode int

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithPlatformCode records the originating platform status code.
func (e *Error) WithPlatformCode(code int) *Error {
	e.PlatformCode = code
	return e
}

// New creates a coded error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error. The cause remains
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	for errors.As(err, &coded) {
		if coded.Code == code {
			return true
		}
		err = coded.cause
		coded = nil
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries no code.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// PlatformCodeOf returns the originating platform status code recorded
// anywhere in the chain, and whether one was found.
func PlatformCodeOf(err error) (int, bool) {
	var coded *Error
	for errors.As(err, &coded) {
		if coded.PlatformCode != 0 {
			return coded.PlatformCode, true
		}
		err = coded.cause
		coded = nil
	}
	return 0, false
}
