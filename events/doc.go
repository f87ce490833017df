// Package events publishes request lifecycle events for downstream
// consumers (notification bots, CRM sync, audit trails).
//
// Publishing is best-effort and strictly after the fact: the engine has
// already committed the decision before an event goes out, and a publish
// failure never fails the operation that produced it.
package events
