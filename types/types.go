package types

import "time"

// RequestStatus is the lifecycle state of a Request.
type RequestStatus string

const (
	// RequestOpen is the initial state of every request. The assignment
	// decision is fixed at creation time and never changes afterwards.
	RequestOpen RequestStatus = "open"

	// RequestClosed is the terminal state. A closed request never reopens
	// and is never reassigned.
	RequestClosed RequestStatus = "closed"
)

// Operator is a human operator that requests can be assigned to.
//
// The engine only reads Active and MaxLoad; everything else is owned by the
// administrative layer.
type Operator struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	MaxLoad   int       `json:"max_load"`
	CreatedAt time.Time `json:"created_at"`
}

// OperatorInfo is the minimal operator view the engine needs for an
// assignment decision.
type OperatorInfo struct {
	Active  bool
	MaxLoad int
}

// Channel is an inbound contact route (e.g. a specific bot or hotline) with
// its own operator weighting. The engine treats it as an opaque key into the
// weight table.
type Channel struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Lead is the end customer, deduplicated by an external identifier.
type Lead struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LeadProfile carries the optional contact details supplied with a
// registration. It is only used when the lead does not exist yet.
type LeadProfile struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// WeightEntry maps an operator to its positive integer weight for one
// channel. At most one entry per (operator, channel) pair.
type WeightEntry struct {
	OperatorID int64 `json:"operator_id"`
	Weight     int   `json:"weight"`
}

// Candidate is an eligible operator for a registration: active, weighted for
// the channel, and under its load ceiling at eligibility-computation time.
type Candidate struct {
	OperatorID int64
	Weight     int
	MaxLoad    int
}

// Registration is the input of Engine.RegisterRequest.
type Registration struct {
	ChannelID      int64       `json:"channel_id"`
	LeadExternalID string      `json:"lead_external_id"`
	Profile        LeadProfile `json:"profile"`
	Message        string      `json:"message,omitempty"`
}

// Request is one contact event from a lead via a channel.
//
// OperatorID is nil when no operator was eligible at registration time; an
// unassigned request is a valid outcome, not an error.
type Request struct {
	ID         string        `json:"id"`
	LeadID     string        `json:"lead_id"`
	ChannelID  int64         `json:"channel_id"`
	OperatorID *int64        `json:"operator_id,omitempty"`
	Status     RequestStatus `json:"status"`
	Message    string        `json:"message,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	ClosedAt   *time.Time    `json:"closed_at,omitempty"`
}

// Assigned reports whether the request carries an operator assignment.
func (r *Request) Assigned() bool {
	return r.OperatorID != nil
}

// Selector draws one candidate from a non-empty, deterministically ordered
// set of eligible operators.
//
// Implementations must be safe for concurrent use. The probability contract
// is implementation-specific: WeightedRandom draws proportionally to weight,
// SmoothWeighted cycles deterministically.
type Selector interface {
	// Pick returns one candidate from the given set.
	//
	// Returns an error for an empty set or a non-positive weight; the engine
	// guarantees neither occurs on the eligible-set path.
	Pick(candidates []Candidate) (Candidate, error)
}
