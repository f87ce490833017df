package types

import "context"

// LeadResolver resolves the originating customer of a registration.
//
// Implementations must be idempotent by external id: two concurrent
// resolutions with the same external id yield the same lead.
type LeadResolver interface {
	// ResolveLead returns the lead with the given external id, creating it
	// from the profile when it does not exist yet.
	ResolveLead(ctx context.Context, externalID string, profile LeadProfile) (*Lead, error)
}

// OperatorDirectory provides the engine's read-only view of operators and
// channels. Implementations must return a consistent snapshot per call.
type OperatorDirectory interface {
	// OperatorInfo returns the active flag and load ceiling for an operator.
	//
	// Returns ErrOperatorNotFound for an unknown id.
	OperatorInfo(ctx context.Context, operatorID int64) (OperatorInfo, error)

	// ChannelExists reports whether the channel is known.
	ChannelExists(ctx context.Context, channelID int64) bool
}

// RequestStore persists requests and owns the single open→closed transition.
type RequestStore interface {
	// CreateRequest persists a new request in the open state with the given
	// assignment decision (operatorID nil means unassigned).
	CreateRequest(ctx context.Context, leadID string, channelID int64, operatorID *int64, message string) (*Request, error)

	// CloseRequest transitions the request from open to closed exactly once
	// and returns the closed request.
	//
	// Returns ErrRequestNotFound for an unknown id and
	// ErrRequestAlreadyClosed when the transition already happened. The
	// store, not the caller, is responsible for making the transition
	// race-free so that two concurrent closers cannot both succeed.
	CloseRequest(ctx context.Context, requestID string) (*Request, error)

	// GetRequest returns a request by id, or ErrRequestNotFound.
	GetRequest(ctx context.Context, requestID string) (*Request, error)
}
