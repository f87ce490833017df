package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/leadwise/dispatch/types"
)

// Handler processes one decoded lifecycle event. A handler must be safe for
// concurrent calls; NATS delivers events from its own goroutine.
type Handler func(event Event)

// Subscriber consumes request lifecycle events published by a NATSPublisher
// with the same subject prefix.
type Subscriber struct {
	conn   *nats.Conn
	prefix string
	logger types.Logger

	sub *nats.Subscription
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithSubscriberPrefix sets the subject prefix to consume. Must match the
// publisher's prefix. Default "dispatch".
func WithSubscriberPrefix(prefix string) SubscriberOption {
	return func(s *Subscriber) {
		s.prefix = prefix
	}
}

// WithSubscriberLogger sets a logger for decode failures.
func WithSubscriberLogger(l types.Logger) SubscriberOption {
	return func(s *Subscriber) {
		s.logger = l
	}
}

// NewSubscriber creates a Subscriber on the given connection.
//
// Parameters:
//   - conn: NATS connection
//   - opts: Optional functional options
//
// Returns:
//   - *Subscriber: Subscriber ready for Start
//
// Example:
//
//	sub := events.NewSubscriber(nc, events.WithSubscriberPrefix("crm"))
//	err := sub.Start(func(ev events.Event) {
//	    log.Printf("request %s: %s", ev.RequestID, ev.Type)
//	})
func NewSubscriber(conn *nats.Conn, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		conn:   conn,
		prefix: defaultSubjectPrefix,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start subscribes to all request lifecycle subjects under the prefix and
// invokes handler for every decoded event. Undecodable payloads are dropped.
//
// Parameters:
//   - handler: Callback invoked per event
//
// Returns:
//   - error: Subscription failure
func (s *Subscriber) Start(handler Handler) error {
	if s.sub != nil {
		return fmt.Errorf("subscriber already started")
	}

	sub, err := s.conn.Subscribe(s.prefix+".request.>", func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			if s.logger != nil {
				s.logger.Warn("dropping undecodable event", "subject", msg.Subject, "error", err)
			}

			return
		}

		handler(event)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s.request.>: %w", s.prefix, err)
	}
	s.sub = sub

	return nil
}

// Stop drains the subscription. Pending events are delivered before the
// handler stops being called.
func (s *Subscriber) Stop() error {
	if s.sub == nil {
		return nil
	}

	err := s.sub.Drain()
	s.sub = nil

	return err
}
