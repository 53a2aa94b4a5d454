// Package errors provides error handling for the Luma language server.
//
// It re-exports github.com/cockroachdb/errors so call sites get stack
// traces, wrapping, and Is/As inspection without importing two error
// packages side by side.
//
// Usage:
//
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	WithHint     = crdb.WithHint
)

// Error inspection
var (
	Is     = crdb.Is
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Sentinel errors shared across the server. Wrap these to add context while
// preserving the type for errors.Is checks.
var (
	// ErrNotFound indicates the requested document or resource is not open
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates a malformed or out-of-protocol request
	ErrInvalidRequest = New("invalid request")

	// ErrLimitExceeded indicates a resource bound was hit, such as the
	// open-document cap
	ErrLimitExceeded = New("limit exceeded")
)

// IsNotFound checks whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsLimitExceeded checks whether err is or wraps ErrLimitExceeded.
func IsLimitExceeded(err error) bool {
	return err != nil && Is(err, ErrLimitExceeded)
}
