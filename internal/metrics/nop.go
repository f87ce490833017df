// Package metrics provides MetricsCollector implementations for the
// dispatch library.
package metrics

import "github.com/leadwise/dispatch/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// EngineMetrics implementation

// RecordRegistration discards the registration metric.
func (n *NopMetrics) RecordRegistration(_ /* channelID */ int64, _ /* assigned */ bool) {
	// No-op
}

// RecordRegistrationDuration discards the registration latency metric.
func (n *NopMetrics) RecordRegistrationDuration(_ /* seconds */ float64) {
	// No-op
}

// RecordReservationRetry discards the reservation retry counter.
func (n *NopMetrics) RecordReservationRetry() {
	// No-op
}

// RecordClosure discards the closure metric.
func (n *NopMetrics) RecordClosure(_ /* conflict */ bool) {
	// No-op
}

// RecordWeightReplacement discards the weight replacement metric.
func (n *NopMetrics) RecordWeightReplacement(_ /* channelID */ int64, _ /* entries */ int) {
	// No-op
}

// LoadMetrics implementation

// SetOperatorLoad discards the operator load gauge.
func (n *NopMetrics) SetOperatorLoad(_ /* operatorID */ int64, _ /* load */ int) {
	// No-op
}

// RecordReleaseUnderflow discards the underflow counter.
func (n *NopMetrics) RecordReleaseUnderflow(_ /* operatorID */ int64) {
	// No-op
}
