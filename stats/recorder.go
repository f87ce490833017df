package stats

import "context"

// Recorder is the persistence strategy for distribution statistics.
//
// Implementations may store counters in memory, Redis, or elsewhere. Callers
// must treat Record as best-effort: an error is logged, never propagated
// into the registration outcome.
type Recorder interface {
	// RecordAssignment increments the assignment counter for the
	// (channel, operator) pair.
	RecordAssignment(ctx context.Context, channelID, operatorID int64) error

	// ChannelTotals returns the per-operator assignment counts for a channel.
	// Channels with no recorded assignments yield an empty map.
	ChannelTotals(ctx context.Context, channelID int64) (map[int64]int64, error)
}
