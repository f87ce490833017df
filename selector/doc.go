// Package selector provides built-in operator selection implementations.
//
// Selectors determine which eligible operator receives a new request.
// The package includes two built-in selectors:
//
//   - WeightedRandom: Draws an operator with probability proportional to its
//     weight (recommended; matches the statistical distribution contract)
//   - SmoothWeighted: Deterministic nginx-style smooth weighted round-robin
//     that interleaves operators evenly while honoring weight ratios
//
// # Selector Selection Guide
//
// WeightedRandom:
//   - Use when assignment shares only need to hold statistically over many
//     registrations
//   - Pluggable, seedable random source for deterministic tests
//   - Stateless between calls
//
// SmoothWeighted:
//   - Use when short-term interleaving matters (avoids bursts of the same
//     operator that naive weighted draws can produce)
//   - Keeps per-operator running state; sequence is fully deterministic
//
// Custom selectors can be implemented by satisfying the types.Selector interface.
package selector
