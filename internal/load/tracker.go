// Package load tracks per-operator open-request counts and enforces load
// ceilings with an atomic check-and-reserve step.
package load

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/leadwise/dispatch/types"
)

// Tracker maintains the number of open requests attributed to each operator.
//
// The count is the only mutable shared state in the engine core. Each
// operator owns an independent counter guarded by its own mutex, so
// registrations for unrelated operators never serialize against each other.
//
// The check-and-increment in TryReserve is a single atomic step under the
// operator's lock. A "read count, decide, then increment" sequence would be
// incorrect under concurrency: two racing registrations could both observe
// the last free slot.
type Tracker struct {
	counters *xsync.Map[int64, *counter]

	logger  types.Logger
	metrics types.LoadMetrics
}

// counter holds one operator's open-request count.
type counter struct {
	mu   sync.Mutex
	open int
}

// NewTracker creates a capacity tracker.
//
// Parameters:
//   - logger: Logger for reporting release underflows
//   - metrics: Load metrics collector
//
// Returns:
//   - *Tracker: Tracker with all counters at zero
func NewTracker(logger types.Logger, metrics types.LoadMetrics) *Tracker {
	return &Tracker{
		counters: xsync.NewMap[int64, *counter](),
		logger:   logger,
		metrics:  metrics,
	}
}

// CurrentLoad returns the number of open requests currently attributed to
// the operator. Operators never seen before report zero.
func (t *Tracker) CurrentLoad(operatorID int64) int {
	c, ok := t.counters.Load(operatorID)
	if !ok {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.open
}

// TryReserve atomically checks currentLoad < ceiling and increments the
// count on success.
//
// Parameters:
//   - operatorID: The operator to reserve a slot for
//   - ceiling: The operator's maximum concurrent load
//
// Returns:
//   - bool: true when a slot was reserved, false when the operator is at or
//     above the ceiling (no side effect)
func (t *Tracker) TryReserve(operatorID int64, ceiling int) bool {
	c := t.counterFor(operatorID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open >= ceiling {
		return false
	}

	c.open++
	t.metrics.SetOperatorLoad(operatorID, c.open)

	return true
}

// Release atomically decrements the operator's open count.
//
// Decrementing an operator with a zero count is a logic error in the caller:
// it is reported as ErrReleaseUnderflow and the count stays at zero, never
// negative.
func (t *Tracker) Release(operatorID int64) error {
	c := t.counterFor(operatorID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open == 0 {
		t.logger.Error("load release below zero", "operator_id", operatorID)
		t.metrics.RecordReleaseUnderflow(operatorID)

		return types.ErrReleaseUnderflow
	}

	c.open--
	t.metrics.SetOperatorLoad(operatorID, c.open)

	return nil
}

// counterFor returns the operator's counter, creating it on first use.
func (t *Tracker) counterFor(operatorID int64) *counter {
	if c, ok := t.counters.Load(operatorID); ok {
		return c
	}

	c, _ := t.counters.LoadOrStore(operatorID, &counter{})

	return c
}
