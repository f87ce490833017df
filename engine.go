package dispatch

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/leadwise/dispatch/events"
	"github.com/leadwise/dispatch/internal/load"
	"github.com/leadwise/dispatch/internal/logger"
	"github.com/leadwise/dispatch/internal/metrics"
	"github.com/leadwise/dispatch/internal/weights"
	"github.com/leadwise/dispatch/stats"
	"github.com/leadwise/dispatch/types"
)

// Dependencies carries the collaborators the Engine routes through. All three
// fields are required; store.Memory satisfies them all for single-process use.
type Dependencies struct {
	// Leads resolves external lead identifiers to lead records.
	Leads types.LeadResolver

	// Operators answers operator existence, activity and ceiling lookups.
	Operators types.OperatorDirectory

	// Requests persists contact requests and owns the open-to-closed transition.
	Requests types.RequestStore
}

func (d Dependencies) validate() error {
	if d.Leads == nil {
		return fmt.Errorf("%w: lead resolver is required", types.ErrInvalidConfig)
	}
	if d.Operators == nil {
		return fmt.Errorf("%w: operator directory is required", types.ErrInvalidConfig)
	}
	if d.Requests == nil {
		return fmt.Errorf("%w: request store is required", types.ErrInvalidConfig)
	}

	return nil
}

// Engine routes incoming contact requests to operators according to
// per-channel weights and per-operator load ceilings.
//
// The engine keeps assignment state (open-request counters, weight tables) in
// memory and treats the injected stores as the system of record for leads,
// operators and requests. All methods are safe for concurrent use.
type Engine struct {
	cfg      Config
	deps     Dependencies
	loads    *load.Tracker
	weights  *weights.Table
	selector types.Selector

	logger    types.Logger
	metrics   types.MetricsCollector
	publisher events.Publisher
	stats     stats.Recorder
}

// NewEngine creates an Engine with the given configuration and collaborators.
//
// Parameters:
//   - cfg: Engine configuration (nil uses DefaultConfig)
//   - deps: Required collaborators (lead resolver, operator directory, request store)
//   - opts: Optional functional options (logger, metrics, selector, events, stats)
//
// Returns:
//   - *Engine: Configured engine
//   - error: Validation error for invalid configuration or missing collaborators
//
// Example:
//
//	mem := store.NewMemory()
//	cfg := dispatch.DefaultConfig()
//	eng, err := dispatch.NewEngine(&cfg, dispatch.Dependencies{
//	    Leads:     mem,
//	    Operators: mem,
//	    Requests:  mem,
//	}, dispatch.WithLogger(log))
func NewEngine(cfg *Config, deps Dependencies, opts ...Option) (*Engine, error) {
	var config Config
	if cfg != nil {
		config = *cfg
	}
	SetDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.logger == nil {
		options.logger = logger.NewNop()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}
	if options.selector == nil {
		options.selector = newSelector(config)
	}
	if options.publisher == nil {
		options.publisher = events.NewNop()
	}
	if options.stats == nil {
		options.stats = stats.NewMemoryRecorder()
	}

	return &Engine{
		cfg:       config,
		deps:      deps,
		loads:     load.NewTracker(options.logger, options.metrics),
		weights:   weights.NewTable(),
		selector:  options.selector,
		logger:    options.logger,
		metrics:   options.metrics,
		publisher: options.publisher,
		stats:     options.stats,
	}, nil
}

// RegisterRequest records an incoming contact request and attempts to assign
// it to an operator.
//
// The lead is resolved by external id, creating it on first sight. The
// candidate set is every operator that is weighted on the channel, active,
// and under its load ceiling; one candidate is picked by the configured
// strategy and reserved atomically. If the reservation races with another
// registration and the operator is full by the time we claim it, the pick
// repeats over the remaining candidates. An empty candidate set yields an
// open request with no operator, which is a valid outcome, not an error.
//
// Parameters:
//   - ctx: Context for cancellation
//   - reg: Registration payload (channel, lead external id, optional profile and message)
//
// Returns:
//   - *types.Request: The persisted request, assigned or unassigned
//   - error: ErrEmptyExternalID, ErrChannelNotFound, or a collaborator failure
func (e *Engine) RegisterRequest(ctx context.Context, reg types.Registration) (*types.Request, error) {
	start := time.Now()

	if reg.LeadExternalID == "" {
		return nil, types.ErrEmptyExternalID
	}
	if !e.deps.Operators.ChannelExists(ctx, reg.ChannelID) {
		return nil, fmt.Errorf("channel %d: %w", reg.ChannelID, types.ErrChannelNotFound)
	}

	lead, err := e.deps.Leads.ResolveLead(ctx, reg.LeadExternalID, reg.Profile)
	if err != nil {
		return nil, fmt.Errorf("resolve lead: %w", err)
	}

	operatorID, err := e.assignOperator(ctx, reg.ChannelID)
	if err != nil {
		return nil, err
	}

	req, err := e.deps.Requests.CreateRequest(ctx, lead.ID, reg.ChannelID, operatorID, reg.Message)
	if err != nil {
		// The reservation must not leak when the request never existed.
		if operatorID != nil {
			if relErr := e.loads.Release(*operatorID); relErr != nil {
				e.logger.Error("rollback release failed", "operatorID", *operatorID, "error", relErr)
			}
		}

		return nil, fmt.Errorf("persist request: %w", err)
	}

	e.metrics.RecordRegistration(reg.ChannelID, req.Assigned())
	e.metrics.RecordRegistrationDuration(time.Since(start).Seconds())

	if req.Assigned() {
		if err := e.stats.RecordAssignment(ctx, req.ChannelID, *req.OperatorID); err != nil {
			e.logger.Warn("stats recording failed", "requestID", req.ID, "error", err)
		}
		e.logger.Info("request assigned",
			"requestID", req.ID,
			"channelID", req.ChannelID,
			"operatorID", *req.OperatorID,
			"load", e.loads.CurrentLoad(*req.OperatorID),
		)
	} else {
		e.logger.Info("request registered unassigned", "requestID", req.ID, "channelID", req.ChannelID)
	}

	e.publish(ctx, req, eventTypeFor(req))

	return req, nil
}

// assignOperator picks and reserves an operator for the channel. A nil id
// with nil error means no operator could take the request.
func (e *Engine) assignOperator(ctx context.Context, channelID int64) (*int64, error) {
	candidates, err := filterEligible(ctx, e.weights.WeightsFor(channelID), e.deps.Operators, e.loads.CurrentLoad)
	if err != nil {
		return nil, err
	}

	// Each failed reservation removes its candidate, so the loop runs at
	// most len(candidates) times.
	for len(candidates) > 0 {
		picked, err := e.selector.Pick(candidates)
		if err != nil {
			return nil, fmt.Errorf("pick operator: %w", err)
		}

		if e.loads.TryReserve(picked.OperatorID, picked.MaxLoad) {
			e.metrics.SetOperatorLoad(picked.OperatorID, e.loads.CurrentLoad(picked.OperatorID))

			return &picked.OperatorID, nil
		}

		// Lost the race for the operator's last slot; retry without it.
		e.metrics.RecordReservationRetry()
		e.logger.Debug("reservation raced, excluding operator",
			"channelID", channelID,
			"operatorID", picked.OperatorID,
		)
		candidates = slices.DeleteFunc(candidates, func(c types.Candidate) bool {
			return c.OperatorID == picked.OperatorID
		})
	}

	return nil, nil
}

// CloseRequest transitions a request from open to closed and frees the
// assigned operator's slot, if any. Exactly one caller wins a concurrent
// close; the rest observe ErrRequestAlreadyClosed and no load changes.
//
// Parameters:
//   - ctx: Context for cancellation
//   - requestID: Request identifier
//
// Returns:
//   - *types.Request: The closed request
//   - error: ErrRequestNotFound, ErrRequestAlreadyClosed, or a store failure
func (e *Engine) CloseRequest(ctx context.Context, requestID string) (*types.Request, error) {
	req, err := e.deps.Requests.CloseRequest(ctx, requestID)
	if err != nil {
		if types.IsConflict(err) {
			e.metrics.RecordClosure(true)
		}

		return nil, err
	}

	if req.Assigned() {
		if err := e.loads.Release(*req.OperatorID); err != nil {
			// The request is already closed; surfacing the underflow would
			// leave the caller unable to distinguish it from a failed close.
			e.logger.Error("load release failed", "requestID", req.ID, "operatorID", *req.OperatorID, "error", err)
		} else {
			e.metrics.SetOperatorLoad(*req.OperatorID, e.loads.CurrentLoad(*req.OperatorID))
		}
	}

	e.metrics.RecordClosure(false)
	e.logger.Info("request closed", "requestID", req.ID, "channelID", req.ChannelID)
	e.publish(ctx, req, events.EventClosed)

	return req, nil
}

// SetWeights replaces the full weight configuration of a channel.
//
// The replacement is validated first (existing channel, existing operators,
// positive weights, no duplicate operators) and then swapped in atomically:
// concurrent registrations see either the old set or the new set, never a
// mix. An empty batch clears the channel.
//
// Parameters:
//   - ctx: Context for cancellation
//   - channelID: Channel whose weights are replaced
//   - entries: Complete weight set (NOT a delta)
//
// Returns:
//   - error: ErrChannelNotFound, ErrOperatorNotFound, ErrInvalidWeight,
//     or ErrDuplicateWeightEntry
func (e *Engine) SetWeights(ctx context.Context, channelID int64, entries []types.WeightEntry) error {
	if !e.deps.Operators.ChannelExists(ctx, channelID) {
		return fmt.Errorf("channel %d: %w", channelID, types.ErrChannelNotFound)
	}

	for _, entry := range entries {
		if _, err := e.deps.Operators.OperatorInfo(ctx, entry.OperatorID); err != nil {
			return fmt.Errorf("operator %d: %w", entry.OperatorID, err)
		}
	}

	if err := e.weights.Replace(channelID, entries); err != nil {
		return err
	}

	e.metrics.RecordWeightReplacement(channelID, len(entries))
	e.logger.Info("channel weights replaced", "channelID", channelID, "entries", len(entries))

	return nil
}

// ChannelWeights returns the channel's current weight configuration, sorted
// ascending by operator id. A configured-but-empty or unknown-to-the-table
// channel yields an empty slice.
//
// Parameters:
//   - ctx: Context for cancellation
//   - channelID: Channel to read back
//
// Returns:
//   - []types.WeightEntry: Current weight entries
//   - error: ErrChannelNotFound for an unknown channel
func (e *Engine) ChannelWeights(ctx context.Context, channelID int64) ([]types.WeightEntry, error) {
	if !e.deps.Operators.ChannelExists(ctx, channelID) {
		return nil, fmt.Errorf("channel %d: %w", channelID, types.ErrChannelNotFound)
	}

	snapshot := e.weights.WeightsFor(channelID)
	entries := make([]types.WeightEntry, 0, len(snapshot))
	for operatorID, weight := range snapshot {
		entries = append(entries, types.WeightEntry{OperatorID: operatorID, Weight: weight})
	}
	slices.SortFunc(entries, func(a, b types.WeightEntry) int {
		return cmp.Compare(a.OperatorID, b.OperatorID)
	})

	return entries, nil
}

// RemoveChannelWeights drops the channel's weight configuration. Called by
// the admin surface when a channel is deleted.
func (e *Engine) RemoveChannelWeights(channelID int64) {
	e.weights.Remove(channelID)
}

// OperatorLoad returns the operator's current open-request count as tracked
// by the engine.
func (e *Engine) OperatorLoad(operatorID int64) int {
	return e.loads.CurrentLoad(operatorID)
}

// DistributionStats returns, per operator, how many requests on the channel
// have ever been assigned to them. The counts are observational: they grow
// monotonically and are not consulted by the assignment path.
//
// Parameters:
//   - ctx: Context for cancellation
//   - channelID: Channel to report on
//
// Returns:
//   - map[int64]int64: Assignment totals keyed by operator id
//   - error: ErrChannelNotFound or a recorder failure
func (e *Engine) DistributionStats(ctx context.Context, channelID int64) (map[int64]int64, error) {
	if !e.deps.Operators.ChannelExists(ctx, channelID) {
		return nil, fmt.Errorf("channel %d: %w", channelID, types.ErrChannelNotFound)
	}

	totals, err := e.stats.ChannelTotals(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("channel totals: %w", err)
	}

	return totals, nil
}

func (e *Engine) publish(ctx context.Context, req *types.Request, eventType events.EventType) {
	err := e.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		RequestID:  req.ID,
		ChannelID:  req.ChannelID,
		OperatorID: req.OperatorID,
		At:         time.Now().UTC(),
	})
	if err != nil {
		e.logger.Warn("event publish failed", "requestID", req.ID, "type", string(eventType), "error", err)
	}
}

func eventTypeFor(req *types.Request) events.EventType {
	if req.Assigned() {
		return events.EventAssigned
	}

	return events.EventUnassigned
}
