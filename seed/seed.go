// Package seed loads a declarative bootstrap file of operators, channels and
// weights, and applies it to a fresh store and engine.
//
// The in-memory store starts empty on every boot; a seed file lets a
// deployment come up with its routing topology already configured instead of
// replaying admin API calls.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leadwise/dispatch"
	"github.com/leadwise/dispatch/store"
	"github.com/leadwise/dispatch/types"
)

// Operator declares one operator to create at startup.
type Operator struct {
	// Ref is the name other seed entries use to reference this operator.
	// Store ids are assigned at load time and cannot appear in the file.
	Ref     string `yaml:"ref"`
	Name    string `yaml:"name"`
	Active  *bool  `yaml:"active"`
	MaxLoad int    `yaml:"maxLoad"`
}

// Weight declares one operator's weight on the enclosing channel.
type Weight struct {
	Operator string `yaml:"operator"`
	Weight   int    `yaml:"weight"`
}

// Channel declares one channel and its full weight set.
type Channel struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Weights     []Weight `yaml:"weights"`
}

// File is the root of a seed document.
type File struct {
	Operators []Operator `yaml:"operators"`
	Channels  []Channel  `yaml:"channels"`
}

// Load parses a seed file.
//
// Parameters:
//   - path: Path to the YAML seed file
//
// Returns:
//   - *File: Parsed document
//   - error: Read or parse failure
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	return &f, nil
}

// Apply creates the declared operators and channels in the store and installs
// the channel weights through the engine, so the usual validation applies.
//
// Operator refs must be unique and every weight must reference a declared
// operator. Apply is meant for empty stores; it does not reconcile with
// existing data.
//
// Parameters:
//   - ctx: Context for cancellation
//   - mem: Store to populate
//   - eng: Engine whose weight tables are installed
//   - f: Parsed seed document
//
// Returns:
//   - error: First validation or creation failure
func Apply(ctx context.Context, mem *store.Memory, eng *dispatch.Engine, f *File) error {
	operatorIDs := make(map[string]int64, len(f.Operators))

	for _, decl := range f.Operators {
		if decl.Ref == "" {
			return fmt.Errorf("operator %q: ref is required", decl.Name)
		}
		if _, exists := operatorIDs[decl.Ref]; exists {
			return fmt.Errorf("operator ref %q declared twice", decl.Ref)
		}

		active := true
		if decl.Active != nil {
			active = *decl.Active
		}

		op, err := mem.CreateOperator(ctx, decl.Name, active, decl.MaxLoad)
		if err != nil {
			return fmt.Errorf("create operator %q: %w", decl.Ref, err)
		}
		operatorIDs[decl.Ref] = op.ID
	}

	for _, decl := range f.Channels {
		ch, err := mem.CreateChannel(ctx, decl.Name, decl.Description)
		if err != nil {
			return fmt.Errorf("create channel %q: %w", decl.Name, err)
		}

		entries := make([]types.WeightEntry, 0, len(decl.Weights))
		for _, w := range decl.Weights {
			operatorID, ok := operatorIDs[w.Operator]
			if !ok {
				return fmt.Errorf("channel %q: unknown operator ref %q", decl.Name, w.Operator)
			}
			entries = append(entries, types.WeightEntry{OperatorID: operatorID, Weight: w.Weight})
		}

		if err := eng.SetWeights(ctx, ch.ID, entries); err != nil {
			return fmt.Errorf("weights for channel %q: %w", decl.Name, err)
		}
	}

	return nil
}
