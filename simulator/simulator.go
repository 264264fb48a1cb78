// Package simulator defines the contract the comparison engine's callers use
// to generate training data from an expensive forward model, plus cheap
// synthetic simulators for examples and tests.
package simulator

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// Simulator produces (x, y) pairs for emulation. The comparison engine only
// consumes the resulting tensors, never the simulator itself.
type Simulator interface {
	// SampleInputs draws n input points from the simulator's design domain,
	// n × features.
	SampleInputs(n int) *mat.Dense

	// ForwardBatch evaluates the simulator at every row of x, returning
	// samples × targets outputs.
	ForwardBatch(x mat.Matrix) (*mat.Dense, error)
}

// Sine is a synthetic simulator on [0,1]²: y = sin(2π·x₀) + ε with Gaussian
// noise of standard deviation Noise. The second input dimension is inert,
// which makes it a useful probe for whether a model overfits irrelevant
// features.
type Sine struct {
	Noise float64
	Seed  uint64
}

// NewSine creates the sine simulator with the given noise level and seed.
func NewSine(noise float64, seed uint64) *Sine {
	return &Sine{Noise: noise, Seed: seed}
}

// SampleInputs draws n points uniformly from [0,1]².
func (s *Sine) SampleInputs(n int) *mat.Dense {
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
	x := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, rng.Float64())
		x.Set(i, 1, rng.Float64())
	}
	return x
}

// ForwardBatch evaluates y = sin(2π·x₀) + ε row-wise.
func (s *Sine) ForwardBatch(x mat.Matrix) (*mat.Dense, error) {
	n, d := x.Dims()
	if d < 1 {
		return nil, errors.NewDimensionError("Sine.ForwardBatch", 1, d, 1)
	}
	// Offset the seed so outputs are not correlated with the input draw.
	rng := rand.New(rand.NewPCG(s.Seed+1, (s.Seed+1)^0x9e3779b97f4a7c15))
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		v := math.Sin(2 * math.Pi * x.At(i, 0))
		if s.Noise > 0 {
			v += rng.NormFloat64() * s.Noise
		}
		y.Set(i, 0, v)
	}
	return y, nil
}

// ByName returns a named built-in simulator, for run configurations.
func ByName(name string, noise float64, seed uint64) (Simulator, error) {
	switch name {
	case "sine":
		return NewSine(noise, seed), nil
	default:
		return nil, errors.NewValidationError("simulator", "unknown simulator name", name)
	}
}
