package types

import "errors"

// Sentinel errors for the dispatch library.
//
// These errors provide type-safe error checking using errors.Is() and
// errors.As(). All components should use these sentinel errors for known
// error conditions and wrap external errors with context using
// fmt.Errorf("%s: %w", msg, err).
//
// The taxonomy mirrors the caller-visible contract:
//   - Input errors: rejected synchronously, no partial mutation
//   - Conflict errors: operation valid in general but not in the current state
//   - Not-found errors: unknown operator/channel/request/lead reference

// Input errors.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidWeight is returned when a weight entry is not a positive integer.
	ErrInvalidWeight = errors.New("weight must be a positive integer")

	// ErrDuplicateWeightEntry is returned when the same operator appears twice
	// in a weight-replacement batch.
	ErrDuplicateWeightEntry = errors.New("duplicate operator in weight batch")

	// ErrEmptyExternalID is returned when a registration carries no lead
	// external identifier.
	ErrEmptyExternalID = errors.New("lead external id is required")

	// ErrInvalidMaxLoad is returned when an operator's load ceiling is not a
	// positive integer.
	ErrInvalidMaxLoad = errors.New("max load must be a positive integer")
)

// Conflict errors.
var (
	// ErrRequestAlreadyClosed is returned when closing a request that has
	// already been closed. Double-close is a caller error, not an idempotent
	// no-op, because absorbing it silently would hide a double-decrement bug.
	ErrRequestAlreadyClosed = errors.New("request already closed")

	// ErrReleaseUnderflow is returned when releasing load for an operator
	// whose open count is already zero. This indicates a bookkeeping bug in
	// the caller and is never absorbed into a negative count.
	ErrReleaseUnderflow = errors.New("load release below zero")
)

// Not-found errors.
var (
	// ErrOperatorNotFound is returned for an unknown operator id.
	ErrOperatorNotFound = errors.New("operator not found")

	// ErrChannelNotFound is returned for an unknown channel id.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrRequestNotFound is returned for an unknown request id.
	ErrRequestNotFound = errors.New("request not found")

	// ErrLeadNotFound is returned for an unknown lead id.
	ErrLeadNotFound = errors.New("lead not found")
)

// IsNotFound reports whether err is one of the not-found sentinels.
//
// Transport layers use this to map engine errors to a 404 response without
// enumerating every sentinel at each call site.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOperatorNotFound) ||
		errors.Is(err, ErrChannelNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrLeadNotFound)
}

// IsConflict reports whether err is a conflict sentinel.
func IsConflict(err error) bool {
	return errors.Is(err, ErrRequestAlreadyClosed)
}

// IsInput reports whether err is an input-validation sentinel.
func IsInput(err error) bool {
	return errors.Is(err, ErrInvalidWeight) ||
		errors.Is(err, ErrDuplicateWeightEntry) ||
		errors.Is(err, ErrEmptyExternalID) ||
		errors.Is(err, ErrInvalidMaxLoad) ||
		errors.Is(err, ErrInvalidConfig)
}
