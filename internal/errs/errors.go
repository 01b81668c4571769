// Package errs defines the sentinel errors shared across the service and
// storage layers. Callers classify failures with errors.Is; wrapping with
// %w keeps the sentinel reachable through added context.
package errs

import "errors"

var (
	// ErrNotFound marks lookups of rows that do not exist.
	ErrNotFound = errors.New("not_found")
	// ErrInvalid marks input rejected by validation before any store call.
	ErrInvalid = errors.New("invalid")
	// ErrConflict marks uniqueness violations surfaced by the store.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks store connectivity failures; these are the only
	// errors the service layer retries.
	ErrUnavailable = errors.New("store_unavailable")
)
