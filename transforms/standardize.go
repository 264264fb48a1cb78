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
	Register("standardize", func(params map[string]interface{}) (Transform, error) {
		withMean := true
		withStd := true
		if v, ok := params["with_mean"].(bool); ok {
			withMean = v
		}
		if v, ok := params["with_std"].(bool); ok {
			withStd = v
		}
		return NewStandardize(withMean, withStd), nil
	})
	gob.Register(&Standardize{})
}

// Standardize scales each column to zero mean and unit standard deviation.
// The inverse is affine (x = z·scale + mean), so analytical uncertainty
// propagation is exact.
type Standardize struct {
	model.BaseEstimator

	// Mean holds each column's mean.
	Mean []float64

	// Scale holds each column's standard deviation.
	Scale []float64

	// NFeatures is the fitted column count.
	NFeatures int

	// WithMean controls whether the mean is subtracted (default true).
	WithMean bool

	// WithStd controls whether columns are divided by their standard
	// deviation (default true).
	WithStd bool
}

// NewStandardize creates a Standardize transform.
func NewStandardize(withMean, withStd bool) *Standardize {
	return &Standardize{WithMean: withMean, WithStd: withStd}
}

// Name implements Transform.
func (s *Standardize) Name() string { return "standardize" }

// Fit computes per-column mean and standard deviation.
func (s *Standardize) Fit(x mat.Matrix) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Standardize.Fit")
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		if s.WithMean {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += x.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}

		if s.WithStd {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := x.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			s.Scale[j] = math.Sqrt(sumSquares / float64(r))
			// Constant columns keep scale 1 to avoid division by zero.
			if s.Scale[j] < 1e-8 {
				s.Scale[j] = 1.0
			}
		} else {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Forward standardizes x using the fitted statistics.
func (s *Standardize) Forward(x mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("Standardize", "Forward")
	}
	r, c := x.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("Standardize.Forward", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (x.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return result, nil
}

// Inverse maps standardized data back to the original scale.
func (s *Standardize) Inverse(x mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("Standardize", "Inverse")
	}
	r, c := x.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("Standardize.Inverse", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, x.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return result, nil
}

// InverseDistribution propagates a predictive distribution back to the
// original scale. The inverse is affine, so ModeAnalytical is exact:
// variances scale by Scale² and cross covariances by Scale_a·Scale_b.
func (s *Standardize) InverseDistribution(pred distribution.Prediction, mode Mode, cfg PropagateConfig) (distribution.Prediction, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("Standardize", "InverseDistribution")
	}

	if mode == ModeSampling {
		return inverseBySampling(s.Inverse, pred, elementwiseKind(pred), cfg)
	}

	invMean, err := s.Inverse(pred.Mean())
	if err != nil {
		return nil, err
	}
	g, ok := pred.(*distribution.Gaussian)
	if !ok {
		return distribution.NewPointEstimate(invMean), nil
	}

	r, c := invMean.Dims()
	jac := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			jac.Set(i, j, s.Scale[j])
		}
	}
	return propagateElementwiseLinear(g, invMean, jac)
}

// GetParams implements model.ParameterGetter.
func (s *Standardize) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String returns a printable description.
func (s *Standardize) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("Standardize(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("Standardize(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}
