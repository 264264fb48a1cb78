// Package transforms provides fitted, invertible (or approximately
// invertible) mappings applied to emulator inputs and outputs, together with
// uncertainty propagation: a predictive distribution can be pushed backwards
// through any transform either analytically (exact for linear transforms,
// local linearization otherwise) or by sampling (ground truth, at higher
// cost).
//
// Transforms are composed into ordered Chains. Forward application of
// [T1, T2, ..., Tn] is Tn(...T2(T1(x))); inversion proceeds in strictly
// reverse order, each step consuming the distribution produced by the
// previous inverse step.
package transforms

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/distribution"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// Mode selects the uncertainty propagation strategy of
// InverseDistribution.
type Mode int

const (
	// ModeAnalytical propagates mean and covariance through the transform's
	// Jacobian: exact for linear transforms, a local linearization at the
	// mean otherwise. This is the default everywhere.
	ModeAnalytical Mode = iota

	// ModeSampling draws from the input distribution, inverts each draw and
	// reconstitutes an empirical mean and covariance. Slower, but unbiased
	// for nonlinear transforms; convergence improves with PropagateConfig.Samples.
	ModeSampling
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	if m == ModeSampling {
		return "sampling"
	}
	return "analytical"
}

// DefaultSampleCount is the number of draws used by ModeSampling when the
// config does not set one.
const DefaultSampleCount = 1000

// PropagateConfig tunes distribution propagation.
type PropagateConfig struct {
	// Samples is the draw count for ModeSampling (default DefaultSampleCount).
	Samples int

	// Seed makes sampling reproducible.
	Seed uint64

	// Repair overrides covariance repair options; nil uses the defaults.
	Repair *distribution.RepairOptions
}

func (c PropagateConfig) sampleCount() int {
	if c.Samples > 0 {
		return c.Samples
	}
	return DefaultSampleCount
}

// Transform is a stateful unit mapping applied to inputs or outputs.
// Lifecycle: construct with hyperparameters, Fit once per training set, then
// Forward/Inverse/InverseDistribution any number of times. A transform is
// immutable after Fit except by refitting explicitly.
type Transform interface {
	// Name identifies the transform kind, e.g. "standardize".
	Name() string

	// Fit learns parameters from reference data (samples × features).
	Fit(x mat.Matrix) error

	// Forward applies the fitted mapping. Returns NotFittedError before Fit.
	Forward(x mat.Matrix) (*mat.Dense, error)

	// Inverse maps transformed data back. For lossy transforms (e.g. PCA)
	// the round trip is approximate, bounded by the variance retained.
	Inverse(x mat.Matrix) (*mat.Dense, error)

	// InverseDistribution maps a predictive distribution back to the
	// pre-transform space, propagating uncertainty per mode.
	InverseDistribution(pred distribution.Prediction, mode Mode, cfg PropagateConfig) (distribution.Prediction, error)

	// GetParams returns the transform's hyperparameters for reporting and
	// reconstruction via New.
	GetParams() map[string]interface{}
}

// ===========================================================================
//
//	Closed transform registry
//
// ===========================================================================

// Factory builds an unfitted transform from hyperparameters.
type Factory func(params map[string]interface{}) (Transform, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a transform factory under name. The built-in transforms
// register themselves at init; external packages may extend the set.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New constructs an unfitted transform by registered name.
func New(name string, params map[string]interface{}) (Transform, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.NewValidationError("transform", "unknown transform name", name)
	}
	return factory(params)
}

// Registered returns the sorted names of all registered transforms.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// paramFloat reads a float64 hyperparameter with a default. YAML and JSON
// decoding may deliver ints where floats are expected, so both are accepted.
func paramFloat(params map[string]interface{}, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		}
	}
	return def
}

// paramInt reads an int hyperparameter with a default.
func paramInt(params map[string]interface{}, key string, def int) int {
	if v, ok := params[key]; ok {
		switch x := v.(type) {
		case int:
			return x
		case float64:
			return int(x)
		}
	}
	return def
}
