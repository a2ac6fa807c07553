// Package errors defines the error taxonomy for the beacon collector.
//
// Every failure in the collector falls into one of four buckets:
//   - transport closed (peer gone, terminates the session)
//   - protocol decode (malformed frame, terminates the session)
//   - store (engine failure, absorbed for ingest, fatal for statistics)
//   - invalid argument (caller bug, synchronous, never retried)
//
// All failures stay local to one session; nothing here escalates to the
// process except the listener failing to bind at startup.
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// ErrInvalidArgument is returned for caller errors on typed store calls:
	// empty table name, zero values, or a value kind outside the closed
	// {Text, Integer, Real} union.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStore wraps engine-level failures (malformed schema, constraint
	// violation, I/O). Callers treat it as retryable by the caller; nothing
	// retries automatically.
	ErrStore = errors.New("store error")

	// ErrClosed is returned when an operation hits a store or session that
	// has already been shut down.
	ErrClosed = errors.New("closed")

	// ErrDecode marks a malformed wire frame. Fatal to the session that
	// read it.
	ErrDecode = errors.New("decode error")

	// ErrMessageTooLarge is returned when a frame exceeds the configured
	// maximum message size.
	ErrMessageTooLarge = errors.New("message too large")
)

// Is is a convenience wrapper for errors.Is.
var Is = errors.Is

// As is a convenience wrapper for errors.As.
var As = errors.As

// ============================================================================
// Wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewStore wraps an engine-level failure into a store error carrying the
// underlying message.
func NewStore(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrStore)
}

// NewInvalidArgument creates an invalid-argument error with context.
func NewInvalidArgument(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidArgument)
}

// IsStore returns true if err is a store-level failure.
func IsStore(err error) bool {
	return errors.Is(err, ErrStore)
}

// IsInvalidArgument returns true if err is a caller error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
