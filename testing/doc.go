// Package testing provides helpers for testing dispatch-based code:
// a logger that writes through testing.T and an embedded NATS server for
// exercising the event publisher without external dependencies.
package testing
