// Package dispatch provides a Go library for routing incoming contact
// requests to operators according to per-channel weights and per-operator
// load ceilings.
//
// Each acquisition channel carries a weight table mapping operator ids to
// positive integer weights. When a request arrives, the engine resolves the
// lead (idempotently, by external id), computes the set of eligible
// operators (weighted on the channel, active, under their load ceiling),
// picks one with the configured strategy, and reserves a slot atomically so
// an operator is never assigned past its ceiling, no matter how many
// registrations race. When no operator can take the request it is recorded
// unassigned, which is a valid outcome rather than an error.
//
// # Quick Start
//
// Basic usage with the in-memory store:
//
//	import (
//	    "github.com/leadwise/dispatch"
//	    "github.com/leadwise/dispatch/store"
//	)
//
//	mem := store.NewMemory()
//	cfg := dispatch.DefaultConfig()
//
//	eng, err := dispatch.NewEngine(&cfg, dispatch.Dependencies{
//	    Leads:     mem,
//	    Operators: mem,
//	    Requests:  mem,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = eng.SetWeights(ctx, channelID, []types.WeightEntry{
//	    {OperatorID: alice.ID, Weight: 1},
//	    {OperatorID: bob.ID, Weight: 4},
//	})
//
//	req, err := eng.RegisterRequest(ctx, types.Registration{
//	    ChannelID:      channelID,
//	    LeadExternalID: "tg-1001",
//	    Message:        "hi, I'd like a quote",
//	})
//
// # Key Guarantees
//
//   - Capacity: an operator's open-request count never exceeds its ceiling
//   - Weighted distribution: assignment probability is proportional to weight
//     among eligible operators (or exactly proportional with the smooth strategy)
//   - Atomic weight replacement: registrations see either the old or the new
//     weight set of a channel, never a mix
//   - Idempotent leads: concurrent registrations for one external id resolve
//     to a single lead
//   - Single close: exactly one concurrent close of a request wins; the rest
//     get a conflict error and the operator's slot is freed once
//
// # Architecture
//
// The engine owns only assignment state. Leads, operators and requests live
// behind the narrow interfaces in the types package; store.Memory is the
// in-process reference implementation. Optional collaborators are injected
// with functional options: a metrics collector (Prometheus implementation in
// internal/metrics), a lifecycle event publisher (NATS implementation in
// events), and an assignment stats recorder (memory and Redis implementations
// in stats).
//
// See the server and cmd/dispatchd packages for the HTTP API and daemon, and
// the examples/ directory for complete working examples.
package dispatch
