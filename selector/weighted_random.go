package selector

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/leadwise/dispatch/types"
)

// WeightedRandom draws one candidate with probability weight/sum(weights).
//
// Selection is statistically unbiased over many draws. By default it uses
// the process-wide math/rand/v2 generator, which is safe for concurrent use.
// Tests inject a seeded source via WithSeed to make draws deterministic.
type WeightedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var _ types.Selector = (*WeightedRandom)(nil)

// WeightedRandomOption configures a WeightedRandom selector.
type WeightedRandomOption func(*WeightedRandom)

// NewWeightedRandom creates a new weighted random selector.
//
// Parameters:
//   - opts: Optional configuration (WithSeed)
//
// Returns:
//   - *WeightedRandom: Selector ready for concurrent use
//
// Example:
//
//	sel := selector.NewWeightedRandom()
//	engine, err := dispatch.NewEngine(&cfg, store, dispatch.WithSelector(sel))
func NewWeightedRandom(opts ...WeightedRandomOption) *WeightedRandom {
	wr := &WeightedRandom{}
	for _, opt := range opts {
		if opt != nil {
			opt(wr)
		}
	}

	return wr
}

// WithSeed makes the selector deterministic by seeding a private PCG source.
//
// A seeded selector serializes draws behind a mutex; use it in tests, not on
// production hot paths.
func WithSeed(seed uint64) WeightedRandomOption {
	return func(wr *WeightedRandom) {
		wr.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// Pick draws one candidate with probability proportional to its weight.
//
// The degenerate single-candidate case returns that candidate with
// probability 1 without consuming randomness.
//
// Parameters:
//   - candidates: Non-empty set of candidates with positive weights
//
// Returns:
//   - types.Candidate: The drawn candidate
//   - error: ErrNoCandidates for an empty set, ErrInvalidWeight for a
//     non-positive weight
func (wr *WeightedRandom) Pick(candidates []types.Candidate) (types.Candidate, error) {
	if len(candidates) == 0 {
		return types.Candidate{}, ErrNoCandidates
	}

	total := 0
	for _, c := range candidates {
		if c.Weight < 1 {
			return types.Candidate{}, fmt.Errorf("operator %d: weight %d: %w", c.OperatorID, c.Weight, ErrInvalidWeight)
		}
		total += c.Weight
	}

	if len(candidates) == 1 {
		return candidates[0], nil
	}

	r := wr.intN(total)
	for _, c := range candidates {
		r -= c.Weight
		if r < 0 {
			return c, nil
		}
	}

	// Unreachable: r < total and weights sum to total.
	return candidates[len(candidates)-1], nil
}

func (wr *WeightedRandom) intN(n int) int {
	if wr.rng == nil {
		return rand.IntN(n)
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	return wr.rng.IntN(n)
}
