package dispatch

import "github.com/leadwise/dispatch/types"

// Sentinel errors re-exported from the types subpackage. These are the same
// values, so errors.Is matches regardless of which package a caller imports.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrInvalidWeight is returned for a non-positive weight entry.
	ErrInvalidWeight = types.ErrInvalidWeight

	// ErrDuplicateWeightEntry is returned when the same operator appears
	// twice in a weight batch.
	ErrDuplicateWeightEntry = types.ErrDuplicateWeightEntry

	// ErrEmptyExternalID is returned when a registration carries no lead
	// external id.
	ErrEmptyExternalID = types.ErrEmptyExternalID

	// ErrRequestAlreadyClosed is returned when closing a request that has
	// already been closed.
	ErrRequestAlreadyClosed = types.ErrRequestAlreadyClosed

	// ErrOperatorNotFound is returned when an operator id is unknown.
	ErrOperatorNotFound = types.ErrOperatorNotFound

	// ErrChannelNotFound is returned when a channel id is unknown.
	ErrChannelNotFound = types.ErrChannelNotFound

	// ErrRequestNotFound is returned when a request id is unknown.
	ErrRequestNotFound = types.ErrRequestNotFound
)
