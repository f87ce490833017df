// Package server exposes the assignment engine and the admin CRUD surface
// over a JSON HTTP API.
//
// Routes mirror the engine's operations: operators and channels are managed
// with plain CRUD, channel weights are replaced wholesale with PUT, requests
// are registered with POST /requests and closed with POST
// /requests/{id}/close. Engine errors map onto status codes by taxonomy:
// not-found 404, conflict 409, invalid input 400.
//
// The server carries an optional per-client rate limit (golang.org/x/time)
// and serves Prometheus metrics on /metrics.
package server
