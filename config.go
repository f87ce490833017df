package dispatch

import (
	"fmt"

	"github.com/leadwise/dispatch/selector"
	"github.com/leadwise/dispatch/types"
)

// Selection strategy names accepted by Config.SelectorStrategy.
const (
	// SelectorWeightedRandom picks operators with probability proportional to
	// their channel weight. This is the default strategy.
	SelectorWeightedRandom = "weighted_random"

	// SelectorSmooth uses nginx-style smooth weighted round-robin. Picks are
	// deterministic and the realized distribution converges to the configured
	// weights over every window of Σweights consecutive picks.
	SelectorSmooth = "smooth"
)

// Config is the configuration for the Engine.
type Config struct {
	// SelectorStrategy names the operator selection strategy:
	// "weighted_random" (default) or "smooth". Ignored when a custom
	// selector is injected via WithSelector.
	SelectorStrategy string `yaml:"selectorStrategy"`

	// RandomSeed seeds the weighted-random selector for reproducible picks.
	// 0 (the default) uses a non-deterministic source.
	//
	// Only meaningful with SelectorStrategy "weighted_random". Production
	// deployments should leave this at 0; fixed seeds exist for tests and
	// simulations.
	RandomSeed uint64 `yaml:"randomSeed"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		SelectorStrategy: SelectorWeightedRandom,
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.SelectorStrategy == "" {
		cfg.SelectorStrategy = defaults.SelectorStrategy
	}
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Returns:
//   - error: Validation error wrapping types.ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	switch cfg.SelectorStrategy {
	case SelectorWeightedRandom, SelectorSmooth:
	default:
		return fmt.Errorf("%w: unknown selector strategy %q", types.ErrInvalidConfig, cfg.SelectorStrategy)
	}

	if cfg.RandomSeed != 0 && cfg.SelectorStrategy != SelectorWeightedRandom {
		return fmt.Errorf("%w: randomSeed only applies to the %s strategy", types.ErrInvalidConfig, SelectorWeightedRandom)
	}

	return nil
}

// newSelector builds the selector named by the configuration.
// Validate must have accepted cfg first.
func newSelector(cfg Config) types.Selector {
	switch cfg.SelectorStrategy {
	case SelectorSmooth:
		return selector.NewSmoothWeighted()
	default:
		if cfg.RandomSeed != 0 {
			return selector.NewWeightedRandom(selector.WithSeed(cfg.RandomSeed))
		}

		return selector.NewWeightedRandom()
	}
}
