package selector

import (
	"fmt"
	"sync"

	"github.com/leadwise/dispatch/types"
)

// SmoothWeighted implements the nginx-style smooth weighted round-robin
// algorithm over a dynamic candidate set.
//
// Each call adds every candidate's weight to its running current weight,
// picks the candidate with the highest current weight, and subtracts the
// total from the winner. Over a full cycle each operator is chosen exactly
// in proportion to its weight, with high-weight operators interleaved
// instead of bursting.
//
// The running state survives eligibility changes: operators that drop out
// (at capacity, deactivated) simply stop accumulating until they return.
type SmoothWeighted struct {
	mu      sync.Mutex
	current map[int64]int
}

var _ types.Selector = (*SmoothWeighted)(nil)

// NewSmoothWeighted creates a new smooth weighted round-robin selector.
//
// Returns:
//   - *SmoothWeighted: Selector with zeroed running state
func NewSmoothWeighted() *SmoothWeighted {
	return &SmoothWeighted{current: make(map[int64]int)}
}

// Pick returns the next candidate in the smooth weighted sequence.
//
// Ties on current weight resolve to the earliest candidate in the input,
// which the engine orders by ascending operator id, so the sequence is fully
// deterministic.
//
// Parameters:
//   - candidates: Non-empty set of candidates with positive weights
//
// Returns:
//   - types.Candidate: The next candidate in the sequence
//   - error: ErrNoCandidates for an empty set, ErrInvalidWeight for a
//     non-positive weight
func (sw *SmoothWeighted) Pick(candidates []types.Candidate) (types.Candidate, error) {
	if len(candidates) == 0 {
		return types.Candidate{}, ErrNoCandidates
	}

	for _, c := range candidates {
		if c.Weight < 1 {
			return types.Candidate{}, fmt.Errorf("operator %d: weight %d: %w", c.OperatorID, c.Weight, ErrInvalidWeight)
		}
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	total := 0
	best := 0
	for i, c := range candidates {
		sw.current[c.OperatorID] += c.Weight
		total += c.Weight

		if sw.current[c.OperatorID] > sw.current[candidates[best].OperatorID] {
			best = i
		}
	}

	winner := candidates[best]
	sw.current[winner.OperatorID] -= total

	return winner, nil
}
