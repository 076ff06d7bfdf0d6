// Package common defines shared constants and sentinel errors used across
// the store, transport and account layers of bonuskeeper. Callers should use
// errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Remote blob errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("version conflict")
	ErrAuth          = errors.New("credentials rejected by remote")
	ErrTransport     = errors.New("transport error")

	// Payload errors. Both are fatal and never retried.
	ErrDecryption      = errors.New("decryption failed")
	ErrCorruptDocument = errors.New("corrupt document")

	// Domain errors, safe to show to the end user.
	ErrValidation    = errors.New("validation error")
	ErrUsernameTaken = errors.New("username taken")
	ErrAuthFailure   = errors.New("invalid username or password")
)

// RemoteError is returned for any non-success response of the remote API
// that does not map onto one of the sentinels above.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("remote error: HTTP %d: %s", e.Status, e.Message)
}

// ValidationError carries a user-facing reason and matches ErrValidation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return ErrValidation.Error() + ": " + e.Reason }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation returns a *ValidationError with the given reason.
func Validation(reason string) error {
	return &ValidationError{Reason: reason}
}

// Transport wraps ErrTransport around a lower level network error.
func Transport(err error) error {
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// IsRetryableWrite reports whether err is an optimistic concurrency
// rejection that a fresh read-modify-write cycle may resolve.
func IsRetryableWrite(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists)
}
