package dispatch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/leadwise/dispatch/types"
)

// filterEligible computes the candidate set for one registration attempt:
// operators that carry a positive weight on the channel, are active, and are
// strictly under their load ceiling at the time of the check.
//
// Operators referenced by the weight table but no longer in the directory are
// skipped, not an error; weights may outlive operator deletion.
//
// The result is sorted ascending by operator id so the same inputs always
// produce the same candidate slice.
func filterEligible(ctx context.Context, channelWeights map[int64]int, dir types.OperatorDirectory, loadOf func(operatorID int64) int) ([]types.Candidate, error) {
	candidates := make([]types.Candidate, 0, len(channelWeights))

	for operatorID, weight := range channelWeights {
		info, err := dir.OperatorInfo(ctx, operatorID)
		if err != nil {
			if errors.Is(err, types.ErrOperatorNotFound) {
				continue
			}

			return nil, fmt.Errorf("lookup operator %d: %w", operatorID, err)
		}

		if !info.Active {
			continue
		}
		if loadOf(operatorID) >= info.MaxLoad {
			continue
		}

		candidates = append(candidates, types.Candidate{
			OperatorID: operatorID,
			Weight:     weight,
			MaxLoad:    info.MaxLoad,
		})
	}

	slices.SortFunc(candidates, func(a, b types.Candidate) int {
		return cmp.Compare(a.OperatorID, b.OperatorID)
	})

	return candidates, nil
}
