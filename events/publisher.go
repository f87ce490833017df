package events

import (
	"context"
	"time"
)

// EventType identifies a request lifecycle event.
type EventType string

const (
	// EventAssigned is emitted when a request is created with an operator.
	EventAssigned EventType = "assigned"

	// EventUnassigned is emitted when a request is created with no eligible
	// operator.
	EventUnassigned EventType = "unassigned"

	// EventClosed is emitted when a request transitions to closed.
	EventClosed EventType = "closed"
)

// Event is one request lifecycle notification.
type Event struct {
	Type       EventType `json:"type"`
	RequestID  string    `json:"request_id"`
	ChannelID  int64     `json:"channel_id"`
	OperatorID *int64    `json:"operator_id,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher emits request lifecycle events.
//
// Implementations must be safe for concurrent use and should be fast: the
// engine publishes on the registration path.
type Publisher interface {
	// Publish emits one event. Errors are reported to the caller for
	// logging but must not leave the publisher in a broken state.
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards all events. It is the default when no publisher is
// configured.
type NopPublisher struct{}

var _ Publisher = (*NopPublisher)(nil)

// NewNop creates a publisher that discards all events.
func NewNop() *NopPublisher {
	return &NopPublisher{}
}

// Publish discards the event.
func (n *NopPublisher) Publish(_ context.Context, _ Event) error {
	return nil
}
