package dispatch

import (
	"github.com/leadwise/dispatch/events"
	"github.com/leadwise/dispatch/stats"
	"github.com/leadwise/dispatch/types"
)

// Option configures an Engine with optional dependencies.
type Option func(*engineOptions)

// engineOptions holds optional Engine configuration.
type engineOptions struct {
	logger    types.Logger
	metrics   types.MetricsCollector
	selector  types.Selector
	publisher events.Publisher
	stats     stats.Recorder
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewEngine
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	eng, err := dispatch.NewEngine(&cfg, deps, dispatch.WithLogger(logger))
func WithLogger(logger types.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewEngine
//
// Example:
//
//	collector := myPrometheusCollector
//	eng, err := dispatch.NewEngine(&cfg, deps, dispatch.WithMetrics(collector))
func WithMetrics(metrics types.MetricsCollector) Option {
	return func(o *engineOptions) {
		o.metrics = metrics
	}
}

// WithSelector sets a custom operator selection strategy, overriding the one
// named by Config.SelectorStrategy.
//
// Parameters:
//   - sel: Selector implementation
//
// Returns:
//   - Option: Functional option for NewEngine
//
// Example:
//
//	sel := selector.NewWeightedRandom(selector.WithSeed(42))
//	eng, err := dispatch.NewEngine(&cfg, deps, dispatch.WithSelector(sel))
func WithSelector(sel types.Selector) Option {
	return func(o *engineOptions) {
		o.selector = sel
	}
}

// WithEventPublisher sets a lifecycle event publisher. Events are emitted
// after a request is assigned, registered without an operator, or closed.
// Publishing is best-effort; failures are logged and never fail the
// originating operation.
//
// Parameters:
//   - pub: Publisher implementation
//
// Returns:
//   - Option: Functional option for NewEngine
//
// Example:
//
//	pub := events.NewNATSPublisher(nc)
//	eng, err := dispatch.NewEngine(&cfg, deps, dispatch.WithEventPublisher(pub))
func WithEventPublisher(pub events.Publisher) Option {
	return func(o *engineOptions) {
		o.publisher = pub
	}
}

// WithStatsRecorder sets the recorder backing DistributionStats. Recording is
// best-effort; a recorder failure is logged and never fails a registration.
//
// Parameters:
//   - rec: Recorder implementation
//
// Returns:
//   - Option: Functional option for NewEngine
//
// Example:
//
//	rec := stats.NewRedisRecorder(rdb)
//	eng, err := dispatch.NewEngine(&cfg, deps, dispatch.WithStatsRecorder(rec))
func WithStatsRecorder(rec stats.Recorder) Option {
	return func(o *engineOptions) {
		o.stats = rec
	}
}
