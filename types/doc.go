// Package types defines the shared data model and interfaces for the
// dispatch library.
//
// It contains the domain entities (Operator, Channel, Lead, Request,
// WeightEntry), the collaborator interfaces the Engine consumes
// (LeadResolver, OperatorDirectory, RequestStore), the Selector interface
// for pluggable operator selection, and the Logger and MetricsCollector
// interfaces for observability.
//
// Keeping these in a leaf package avoids import cycles between the root
// engine package and its supporting packages.
package types
