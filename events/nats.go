package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// defaultSubjectPrefix namespaces the lifecycle subjects when no prefix is
// configured.
const defaultSubjectPrefix = "dispatch"

// NATSPublisher publishes events as JSON messages on NATS subjects.
//
// Subject layout: <prefix>.request.<type>, e.g. dispatch.request.assigned.
// Plain core publishing is used; subscribers that need replay should bind a
// JetStream stream to the subject space on their side.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

var _ Publisher = (*NATSPublisher)(nil)

// NATSPublisherOption configures a NATSPublisher.
type NATSPublisherOption func(*NATSPublisher)

// WithSubjectPrefix overrides the default "dispatch" subject prefix.
func WithSubjectPrefix(prefix string) NATSPublisherOption {
	return func(p *NATSPublisher) {
		p.prefix = prefix
	}
}

// NewNATSPublisher creates a publisher on an existing NATS connection.
//
// The connection is borrowed, not owned: closing it remains the caller's
// responsibility.
//
// Parameters:
//   - conn: Connected NATS client
//   - opts: Optional configuration (WithSubjectPrefix)
//
// Returns:
//   - *NATSPublisher: Publisher emitting on <prefix>.request.<type>
//
// Example:
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//	pub := events.NewNATSPublisher(nc)
//	engine, err := dispatch.NewEngine(&cfg, store, dispatch.WithEventPublisher(pub))
func NewNATSPublisher(conn *nats.Conn, opts ...NATSPublisherOption) *NATSPublisher {
	p := &NATSPublisher{
		conn:   conn,
		prefix: defaultSubjectPrefix,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Publish marshals the event to JSON and publishes it.
func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.request.%s", p.prefix, event.Type)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	return nil
}
