// Package compare implements the model comparison and selection engine: it
// enumerates combinations of candidate emulator models and input/output
// transform chains, tunes each combination with cross-validated trials,
// refits the best configuration per combination on the full training split,
// and ranks combinations by held-out score.
package compare

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/LevanBokeria/autoemulate/emulators"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
	"github.com/LevanBokeria/autoemulate/transforms"
)

// Param is one searchable hyperparameter dimension.
type Param interface {
	// Key is the configuration key the sampled value is stored under.
	Key() string

	// Sample draws one value from the dimension's distribution.
	Sample(rng *rand.Rand) interface{}
}

// Range samples a float64 uniformly from [Min, Max].
type Range struct {
	Name     string
	Min, Max float64
}

// Key implements Param.
func (r Range) Key() string { return r.Name }

// Sample implements Param.
func (r Range) Sample(rng *rand.Rand) interface{} {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// LogRange samples a float64 log-uniformly from [Min, Max]. Suited to scale
// parameters like regularization strengths and kernel lengthscales.
type LogRange struct {
	Name     string
	Min, Max float64
}

// Key implements Param.
func (r LogRange) Key() string { return r.Name }

// Sample implements Param.
func (r LogRange) Sample(rng *rand.Rand) interface{} {
	lo, hi := math.Log(r.Min), math.Log(r.Max)
	return math.Exp(lo + rng.Float64()*(hi-lo))
}

// IntRange samples an int uniformly from [Min, Max] inclusive.
type IntRange struct {
	Name     string
	Min, Max int
}

// Key implements Param.
func (r IntRange) Key() string { return r.Name }

// Sample implements Param.
func (r IntRange) Sample(rng *rand.Rand) interface{} {
	return r.Min + rng.IntN(r.Max-r.Min+1)
}

// Choice samples uniformly from a fixed set of values.
type Choice struct {
	Name   string
	Values []interface{}
}

// Key implements Param.
func (c Choice) Key() string { return c.Name }

// Sample implements Param.
func (c Choice) Sample(rng *rand.Rand) interface{} {
	return c.Values[rng.IntN(len(c.Values))]
}

// Space is an ordered set of searchable hyperparameter dimensions for one
// model. Order matters for reproducibility: sampling consumes the rng in
// dimension order.
type Space []Param

// Sample draws one full configuration.
func (s Space) Sample(rng *rand.Rand) emulators.Config {
	config := make(emulators.Config, len(s))
	for _, p := range s {
		config[p.Key()] = p.Sample(rng)
	}
	return config
}

// Validate rejects empty keys and inverted ranges before a search starts.
func (s Space) Validate() error {
	for _, p := range s {
		if p.Key() == "" {
			return errors.NewValidationError("space", "empty parameter key", p)
		}
		switch d := p.(type) {
		case Range:
			if d.Min > d.Max {
				return errors.NewValidationError(d.Name, "min exceeds max", d)
			}
		case LogRange:
			if d.Min <= 0 || d.Min > d.Max {
				return errors.NewValidationError(d.Name, "log range requires 0 < min <= max", d)
			}
		case IntRange:
			if d.Min > d.Max {
				return errors.NewValidationError(d.Name, "min exceeds max", d)
			}
		case Choice:
			if len(d.Values) == 0 {
				return errors.NewValidationError(d.Name, "empty choice set", d)
			}
		}
	}
	return nil
}

// transformSpace returns the tunable dimensions one chain step exposes,
// namespaced by axis and position (e.g. "y1.n_components"). A hyperparameter
// fixed in the spec stays fixed. maxDim bounds dimensionality parameters by
// the width of the axis the chain applies to.
func transformSpace(prefix string, spec transforms.Spec, maxDim int) Space {
	switch spec.Name {
	case "pca":
		if _, fixed := spec.Params["n_components"]; fixed || maxDim < 2 {
			return nil
		}
		return Space{IntRange{Name: prefix + ".n_components", Min: 1, Max: maxDim}}
	}
	return nil
}

// combinationSpace merges a model's search space with the transform
// hyperparameters the combination's chains expose for tuning. Dimension order
// is fixed (model first, then x-chain, then y-chain) so sampling stays
// reproducible.
func combinationSpace(model Space, combo Combination, nFeatures, nTargets int) Space {
	merged := make(Space, 0, len(model))
	merged = append(merged, model...)
	for i, spec := range combo.XSpecs {
		merged = append(merged, transformSpace(fmt.Sprintf("x%d", i), spec, nFeatures)...)
	}
	for i, spec := range combo.YSpecs {
		merged = append(merged, transformSpace(fmt.Sprintf("y%d", i), spec, nTargets)...)
	}
	return merged
}

// DefaultSpace returns the built-in search space for a registered model
// name. Unknown names get an empty space, meaning a single default-config
// trial.
func DefaultSpace(model string) Space {
	switch model {
	case "gaussian_process":
		return Space{
			LogRange{Name: "lengthscale", Min: 0.05, Max: 10},
			LogRange{Name: "variance", Min: 0.1, Max: 10},
			LogRange{Name: "noise", Min: 1e-8, Max: 1e-2},
		}
	case "ridge":
		return Space{
			LogRange{Name: "alpha", Min: 1e-6, Max: 100},
		}
	default:
		return Space{}
	}
}
