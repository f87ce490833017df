// Package weights stores per-channel operator weight configurations with
// atomic bulk replacement.
package weights

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/leadwise/dispatch/types"
)

// Table maps each channel to its operator weight configuration.
//
// Replacement is build-new-then-swap: the new mapping is constructed and
// validated fully before it is installed, so a concurrent reader observes
// either the complete old set or the complete new set, never a mix. The
// installed maps are never mutated afterwards.
type Table struct {
	channels *xsync.Map[int64, map[int64]int]
}

// NewTable creates an empty weight table.
func NewTable() *Table {
	return &Table{channels: xsync.NewMap[int64, map[int64]int]()}
}

// WeightsFor returns the weight configuration for a channel, keyed by
// operator id. The result may be empty and must not be mutated by the
// caller; it is the live snapshot shared with concurrent readers.
func (t *Table) WeightsFor(channelID int64) map[int64]int {
	m, ok := t.channels.Load(channelID)
	if !ok {
		return nil
	}

	return m
}

// Replace discards all prior entries for the channel and installs the new
// set as one atomic operation.
//
// The whole batch either fully succeeds or fully fails:
//   - a non-positive weight fails with ErrInvalidWeight
//   - the same operator appearing twice fails with ErrDuplicateWeightEntry
//
// An empty batch is valid and clears the channel's configuration.
//
// Parameters:
//   - channelID: The channel whose configuration is replaced
//   - entries: The full new set of (operator, weight) pairs
//
// Returns:
//   - error: Validation error; the previous configuration stays untouched
func (t *Table) Replace(channelID int64, entries []types.WeightEntry) error {
	next := make(map[int64]int, len(entries))
	for _, e := range entries {
		if e.Weight < 1 {
			return fmt.Errorf("operator %d: weight %d: %w", e.OperatorID, e.Weight, types.ErrInvalidWeight)
		}
		if _, dup := next[e.OperatorID]; dup {
			return fmt.Errorf("operator %d: %w", e.OperatorID, types.ErrDuplicateWeightEntry)
		}
		next[e.OperatorID] = e.Weight
	}

	t.channels.Store(channelID, next)

	return nil
}

// Remove drops the channel's configuration entirely.
func (t *Table) Remove(channelID int64) {
	t.channels.Delete(channelID)
}
