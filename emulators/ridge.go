package emulators

import (
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/core/model"
	"github.com/LevanBokeria/autoemulate/distribution"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

func init() {
	Register("ridge", func(config Config) (model.Emulator, error) {
		return NewRidge(config.Float("alpha", 1.0))
	})
	gob.Register(&Ridge{})
}

// Ridge is an L2-regularized multi-output linear regressor solved by the
// normal equations. It is the cheap, deterministic baseline among the
// candidate models and returns point estimates without uncertainty.
type Ridge struct {
	model.BaseEstimator

	// Alpha is the L2 regularization strength.
	Alpha float64

	// Weights holds the fitted coefficients, features × targets.
	Weights model.GobDense

	// Intercept holds one offset per target.
	Intercept []float64

	// NFeatures and NTargets record the fitted shape.
	NFeatures int
	NTargets  int
}

// NewRidge creates a Ridge regressor with regularization strength alpha.
func NewRidge(alpha float64) (*Ridge, error) {
	if alpha < 0 {
		return nil, errors.NewValidationError("alpha", "must be non-negative", alpha)
	}
	return &Ridge{Alpha: alpha}, nil
}

// Name implements model.Emulator.
func (r *Ridge) Name() string { return "ridge" }

// Fit solves (XᵀX + αI) W = Xᵀ Y on centered data.
func (r *Ridge) Fit(x, y mat.Matrix) error {
	n, d := x.Dims()
	ny, t := y.Dims()
	if n == 0 || d == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Ridge.Fit")
	}
	if n != ny {
		return errors.NewDimensionError("Ridge.Fit", n, ny, 0)
	}

	// Center inputs and targets so the intercept absorbs the means.
	xMean := make([]float64, d)
	yMean := make([]float64, t)
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			xMean[j] += x.At(i, j)
		}
		xMean[j] /= float64(n)
	}
	for j := 0; j < t; j++ {
		for i := 0; i < n; i++ {
			yMean[j] += y.At(i, j)
		}
		yMean[j] /= float64(n)
	}

	xc := mat.NewDense(n, d, nil)
	yc := mat.NewDense(n, t, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			xc.Set(i, j, x.At(i, j)-xMean[j])
		}
		for j := 0; j < t; j++ {
			yc.Set(i, j, y.At(i, j)-yMean[j])
		}
	}

	var gram mat.Dense
	gram.Mul(xc.T(), xc)
	for j := 0; j < d; j++ {
		gram.Set(j, j, gram.At(j, j)+r.Alpha)
	}

	var xty mat.Dense
	xty.Mul(xc.T(), yc)

	var weights mat.Dense
	if err := weights.Solve(&gram, &xty); err != nil {
		return errors.NewModelFitError("ridge", map[string]interface{}{"alpha": r.Alpha},
			errors.Wrap(err, "normal equations are singular"))
	}
	if err := errors.CheckNumericalStability("Ridge.Fit: weights", weights.RawMatrix().Data); err != nil {
		return errors.NewModelFitError("ridge", map[string]interface{}{"alpha": r.Alpha}, err)
	}

	intercept := make([]float64, t)
	for j := 0; j < t; j++ {
		intercept[j] = yMean[j]
		for k := 0; k < d; k++ {
			intercept[j] -= weights.At(k, j) * xMean[k]
		}
	}

	r.Weights = model.WrapDense(&weights)
	r.Intercept = intercept
	r.NFeatures = d
	r.NTargets = t
	r.SetFitted()
	return nil
}

// Predict returns a point estimate X W + b.
func (r *Ridge) Predict(x mat.Matrix) (distribution.Prediction, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "Predict")
	}
	n, d := x.Dims()
	if d != r.NFeatures {
		return nil, errors.NewDimensionError("Ridge.Predict", r.NFeatures, d, 1)
	}

	out := mat.NewDense(n, r.NTargets, nil)
	out.Mul(x, r.Weights.Dense)
	for i := 0; i < n; i++ {
		for j := 0; j < r.NTargets; j++ {
			out.Set(i, j, out.At(i, j)+r.Intercept[j])
		}
	}
	return distribution.NewPointEstimate(out), nil
}

// GetParams implements model.ParameterGetter.
func (r *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{"alpha": r.Alpha}
}

// String returns a printable description.
func (r *Ridge) String() string {
	if !r.IsFitted() {
		return fmt.Sprintf("Ridge(alpha=%g)", r.Alpha)
	}
	return fmt.Sprintf("Ridge(alpha=%g, n_features=%d, n_targets=%d)", r.Alpha, r.NFeatures, r.NTargets)
}
