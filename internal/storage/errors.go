package storage

import (
	"errors"
	"fmt"
)

// Code classifies storage failures so callers can decide retry vs abort.
type Code string

const (
	// CodeNotFound means the object or bucket does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeCredential covers authentication and permission failures.
	CodeCredential Code = "CREDENTIAL"
	// CodeChecksumMismatch means the uploaded object does not match the
	// local artifact. Never retryable.
	CodeChecksumMismatch Code = "CHECKSUM_MISMATCH"
	// CodeTransient covers timeouts and connectivity failures that may
	// succeed on retry.
	CodeTransient Code = "TRANSIENT_NETWORK"
	// CodeInternal is everything else.
	CodeInternal Code = "INTERNAL"
)

// Error is a tagged storage error.
type Error struct {
	Code      Code
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrapError tags an underlying error with a code and retryability.
func wrapError(code Code, retryable bool, err error) *Error {
	return &Error{Code: code, Retryable: retryable, Err: err}
}

// CodeOf extracts the storage code from err, or CodeInternal.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

// IsNotFound reports whether err is a tagged not-found error.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsRetryable reports whether err is tagged as worth retrying.
func IsRetryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}
