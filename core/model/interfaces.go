package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/distribution"
)

// Emulator is the contract every candidate surrogate model satisfies. The
// comparison engine treats all models uniformly through this interface: it
// never inspects the model beyond Fit, Predict and Name.
//
// Predict returns a Prediction in the model's own output space; models
// without uncertainty return a PointEstimate, probabilistic models return a
// Gaussian.
type Emulator interface {
	// Name identifies the model class, e.g. "GaussianProcess".
	Name() string

	// Fit trains the model on x (samples × features) and y (samples ×
	// targets). Fit failures are reported as ModelFitError.
	Fit(x, y mat.Matrix) error

	// Predict returns the model's prediction for x.
	Predict(x mat.Matrix) (distribution.Prediction, error)
}

// ParameterGetter exposes hyperparameters for reporting and persistence.
type ParameterGetter interface {
	// GetParams returns the estimator's hyperparameters.
	GetParams() map[string]interface{}
}
