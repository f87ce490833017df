// Package store provides the in-memory reference implementation of the
// engine's collaborator interfaces plus the administrative CRUD surface
// (operators, channels, leads, requests).
//
// The engine itself only depends on the narrow interfaces in types; any
// persistence layer that satisfies them can replace this package.
package store
