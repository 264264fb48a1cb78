package transforms

import (
	"encoding/gob"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/core/model"
	"github.com/LevanBokeria/autoemulate/distribution"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

func init() {
	Register("log", func(params map[string]interface{}) (Transform, error) {
		return NewLog(paramFloat(params, "shift", 0)), nil
	})
	gob.Register(&Log{})
}

// Log applies an elementwise log(x + shift). The inverse exp(z) - shift is
// nonlinear, so ModeAnalytical uses a local linearization at the mean
// (Jacobian exp(μ)); callers needing exact propagation should use
// ModeSampling.
type Log struct {
	model.BaseEstimator

	// Shift is added before taking the log, for data touching zero.
	Shift float64

	// NFeatures is the fitted column count.
	NFeatures int
}

// NewLog creates a Log transform with the given shift.
func NewLog(shift float64) *Log {
	return &Log{Shift: shift}
}

// Name implements Transform.
func (l *Log) Name() string { return "log" }

// Fit validates that the shifted data is strictly positive.
func (l *Log) Fit(x mat.Matrix) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Log.Fit")
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if x.At(i, j)+l.Shift <= 0 {
				return errors.NewValidationError("shift", "data must be positive after shift", x.At(i, j))
			}
		}
	}
	l.NFeatures = c
	l.SetFitted()
	return nil
}

// Forward applies log(x + shift) elementwise.
func (l *Log) Forward(x mat.Matrix) (*mat.Dense, error) {
	if !l.IsFitted() {
		return nil, errors.NewNotFittedError("Log", "Forward")
	}
	r, c := x.Dims()
	if c != l.NFeatures {
		return nil, errors.NewDimensionError("Log.Forward", l.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, math.Log(x.At(i, j)+l.Shift))
		}
	}
	return result, nil
}

// Inverse applies exp(z) - shift elementwise.
func (l *Log) Inverse(x mat.Matrix) (*mat.Dense, error) {
	if !l.IsFitted() {
		return nil, errors.NewNotFittedError("Log", "Inverse")
	}
	r, c := x.Dims()
	if c != l.NFeatures {
		return nil, errors.NewDimensionError("Log.Inverse", l.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, math.Exp(x.At(i, j))-l.Shift)
		}
	}
	return result, nil
}

// InverseDistribution propagates a predictive distribution through the
// exponential inverse. ModeAnalytical linearizes at the mean, which biases
// the result for wide distributions; ModeSampling is the reference.
func (l *Log) InverseDistribution(pred distribution.Prediction, mode Mode, cfg PropagateConfig) (distribution.Prediction, error) {
	if !l.IsFitted() {
		return nil, errors.NewNotFittedError("Log", "InverseDistribution")
	}

	if mode == ModeSampling {
		return inverseBySampling(l.Inverse, pred, elementwiseKind(pred), cfg)
	}

	invMean, err := l.Inverse(pred.Mean())
	if err != nil {
		return nil, err
	}
	g, ok := pred.(*distribution.Gaussian)
	if !ok {
		return distribution.NewPointEstimate(invMean), nil
	}

	// d/dz (exp(z) - shift) evaluated at the mean.
	r, c := invMean.Dims()
	jac := mat.NewDense(r, c, nil)
	mean := pred.Mean()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			jac.Set(i, j, math.Exp(mean.At(i, j)))
		}
	}
	return propagateElementwiseLinear(g, invMean, jac)
}

// GetParams implements model.ParameterGetter.
func (l *Log) GetParams() map[string]interface{} {
	return map[string]interface{}{"shift": l.Shift}
}
