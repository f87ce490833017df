package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leadwise/dispatch/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metric registration is deferred until first use so that constructing a
// collector never panics on duplicate registration in tests.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	registrations      *prometheus.CounterVec
	registrationTime   prometheus.Histogram
	reservationRetries prometheus.Counter
	closures           *prometheus.CounterVec
	weightReplacements *prometheus.CounterVec
	operatorLoad       *prometheus.GaugeVec
	releaseUnderflows  *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "dispatch" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "dispatch"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "engine",
			Name:      "registrations_total",
			Help:      "Total registration decisions by channel and outcome (assigned|unassigned).",
		}, []string{"channel", "outcome"})

		p.registrationTime = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "engine",
			Name:      "registration_duration_seconds",
			Help:      "End-to-end registration latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs .. ~0.4s
		})

		p.reservationRetries = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "engine",
			Name:      "reservation_retries_total",
			Help:      "Selections retried because a concurrent registration consumed the last slot.",
		})

		p.closures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "engine",
			Name:      "closures_total",
			Help:      "Total closure attempts by result (closed|conflict).",
		}, []string{"result"})

		p.weightReplacements = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "engine",
			Name:      "weight_replacements_total",
			Help:      "Total atomic weight-table replacements by channel.",
		}, []string{"channel"})

		p.operatorLoad = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "load",
			Name:      "operator_open_requests",
			Help:      "Current number of open requests attributed to each operator.",
		}, []string{"operator"})

		p.releaseUnderflows = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "load",
			Name:      "release_underflows_total",
			Help:      "Release attempts on operators with zero open requests.",
		}, []string{"operator"})

		p.reg.MustRegister(p.registrations)
		p.reg.MustRegister(p.registrationTime)
		p.reg.MustRegister(p.reservationRetries)
		p.reg.MustRegister(p.closures)
		p.reg.MustRegister(p.weightReplacements)
		p.reg.MustRegister(p.operatorLoad)
		p.reg.MustRegister(p.releaseUnderflows)
	})
}

// EngineMetrics implementation

// RecordRegistration counts one registration decision.
func (p *PrometheusCollector) RecordRegistration(channelID int64, assigned bool) {
	p.ensureRegistered()
	outcome := "unassigned"
	if assigned {
		outcome = "assigned"
	}
	p.registrations.WithLabelValues(formatID(channelID), outcome).Inc()
}

// RecordRegistrationDuration observes registration latency.
func (p *PrometheusCollector) RecordRegistrationDuration(seconds float64) {
	p.ensureRegistered()
	p.registrationTime.Observe(seconds)
}

// RecordReservationRetry counts a reservation race retry.
func (p *PrometheusCollector) RecordReservationRetry() {
	p.ensureRegistered()
	p.reservationRetries.Inc()
}

// RecordClosure counts a closure attempt by result.
func (p *PrometheusCollector) RecordClosure(conflict bool) {
	p.ensureRegistered()
	result := "closed"
	if conflict {
		result = "conflict"
	}
	p.closures.WithLabelValues(result).Inc()
}

// RecordWeightReplacement counts a weight-table replacement.
func (p *PrometheusCollector) RecordWeightReplacement(channelID int64, _ /* entries */ int) {
	p.ensureRegistered()
	p.weightReplacements.WithLabelValues(formatID(channelID)).Inc()
}

// LoadMetrics implementation

// SetOperatorLoad sets the per-operator open-request gauge.
func (p *PrometheusCollector) SetOperatorLoad(operatorID int64, load int) {
	p.ensureRegistered()
	p.operatorLoad.WithLabelValues(formatID(operatorID)).Set(float64(load))
}

// RecordReleaseUnderflow counts a release underflow.
func (p *PrometheusCollector) RecordReleaseUnderflow(operatorID int64) {
	p.ensureRegistered()
	p.releaseUnderflows.WithLabelValues(formatID(operatorID)).Inc()
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
