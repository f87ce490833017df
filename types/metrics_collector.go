package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods may be called concurrently and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	EngineMetrics
	LoadMetrics
}

// EngineMetrics defines metrics for registration and closure operations.
type EngineMetrics interface {
	// RecordRegistration records one registration decision.
	//
	// Parameters:
	//   - channelID: The channel the registration arrived on
	//   - assigned: true when an operator was assigned, false for the
	//     "no operator" outcome
	RecordRegistration(channelID int64, assigned bool)

	// RecordRegistrationDuration records end-to-end registration latency.
	//
	// Parameters:
	//   - seconds: Time taken in seconds
	RecordRegistrationDuration(seconds float64)

	// RecordReservationRetry records one reservation race: a selected
	// operator lost its last slot between eligibility computation and
	// TryReserve, forcing reselection over the remaining candidates.
	RecordReservationRetry()

	// RecordClosure records a request closure attempt.
	//
	// Parameters:
	//   - conflict: true when the request was already closed
	RecordClosure(conflict bool)

	// RecordWeightReplacement records an atomic weight-table replacement.
	//
	// Parameters:
	//   - channelID: The channel whose weights were replaced
	//   - entries: Number of entries in the new configuration
	RecordWeightReplacement(channelID int64, entries int)
}

// LoadMetrics defines metrics for the per-operator capacity tracker.
type LoadMetrics interface {
	// SetOperatorLoad sets the current open-request count for an operator (gauge).
	SetOperatorLoad(operatorID int64, load int)

	// RecordReleaseUnderflow records a release attempted on an operator with
	// zero open requests. Always a caller bug; counted so it surfaces.
	RecordReleaseUnderflow(operatorID int64)
}
