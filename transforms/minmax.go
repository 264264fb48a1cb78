package transforms

import (
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/core/model"
	"github.com/LevanBokeria/autoemulate/distribution"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

func init() {
	Register("minmax", func(params map[string]interface{}) (Transform, error) {
		lo := paramFloat(params, "min", 0)
		hi := paramFloat(params, "max", 1)
		if hi <= lo {
			return nil, errors.NewValidationError("feature_range", "max must exceed min", [2]float64{lo, hi})
		}
		return NewMinMax([2]float64{lo, hi}), nil
	})
	gob.Register(&MinMax{})
}

// MinMax scales each column into a fixed range (default [0, 1]). Like
// Standardize the inverse is affine, so analytical propagation is exact.
type MinMax struct {
	model.BaseEstimator

	// DataMin and DataMax hold each column's observed range.
	DataMin []float64
	DataMax []float64

	// Scale is DataMax - DataMin per column (1 for constant columns).
	Scale []float64

	// NFeatures is the fitted column count.
	NFeatures int

	// FeatureRange is the target range [min, max].
	FeatureRange [2]float64
}

// NewMinMax creates a MinMax transform targeting featureRange.
func NewMinMax(featureRange [2]float64) *MinMax {
	return &MinMax{FeatureRange: featureRange}
}

// NewMinMaxDefault creates a MinMax transform targeting [0, 1].
func NewMinMaxDefault() *MinMax {
	return NewMinMax([2]float64{0, 1})
}

// Name implements Transform.
func (m *MinMax) Name() string { return "minmax" }

// Fit records each column's min and max.
func (m *MinMax) Fit(x mat.Matrix) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "MinMax.Fit")
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		lo, hi := x.At(0, j), x.At(0, j)
		for i := 1; i < r; i++ {
			v := x.At(i, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi

		dataRange := hi - lo
		if math.Abs(dataRange) < 1e-8 {
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}
	}

	m.SetFitted()
	return nil
}

// Forward scales x into the feature range.
func (m *MinMax) Forward(x mat.Matrix) (*mat.Dense, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMax", "Forward")
	}
	r, c := x.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMax.Forward", m.NFeatures, c, 1)
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			scaled := (x.At(i, j)-m.DataMin[j])/m.Scale[j]*span + m.FeatureRange[0]
			result.Set(i, j, scaled)
		}
	}
	return result, nil
}

// Inverse maps scaled data back to the original range.
func (m *MinMax) Inverse(x mat.Matrix) (*mat.Dense, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMax", "Inverse")
	}
	r, c := x.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMax.Inverse", m.NFeatures, c, 1)
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			original := (x.At(i, j)-m.FeatureRange[0])/span*m.Scale[j] + m.DataMin[j]
			result.Set(i, j, original)
		}
	}
	return result, nil
}

// InverseDistribution propagates a predictive distribution back to the
// original range; the affine inverse makes ModeAnalytical exact.
func (m *MinMax) InverseDistribution(pred distribution.Prediction, mode Mode, cfg PropagateConfig) (distribution.Prediction, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMax", "InverseDistribution")
	}

	if mode == ModeSampling {
		return inverseBySampling(m.Inverse, pred, elementwiseKind(pred), cfg)
	}

	invMean, err := m.Inverse(pred.Mean())
	if err != nil {
		return nil, err
	}
	g, ok := pred.(*distribution.Gaussian)
	if !ok {
		return distribution.NewPointEstimate(invMean), nil
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	r, c := invMean.Dims()
	jac := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			jac.Set(i, j, m.Scale[j]/span)
		}
	}
	return propagateElementwiseLinear(g, invMean, jac)
}

// GetParams implements model.ParameterGetter.
func (m *MinMax) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"min": m.FeatureRange[0],
		"max": m.FeatureRange[1],
	}
}

// String returns a printable description.
func (m *MinMax) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMax(range=[%.1f, %.1f])", m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMax(range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}
