package emulators

import (
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/core/model"
	"github.com/LevanBokeria/autoemulate/distribution"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
	"github.com/LevanBokeria/autoemulate/pkg/log"
)

func init() {
	Register("gaussian_process", func(config Config) (model.Emulator, error) {
		return NewGaussianProcess(
			config.Float("lengthscale", 1.0),
			config.Float("variance", 1.0),
			config.Float("noise", 1e-6),
		)
	})
	gob.Register(&GaussianProcess{})
}

// GaussianProcess is a GP regressor with an RBF kernel and shared
// hyperparameters across targets. Multi-output data is handled by solving
// one linear system per target against a single kernel matrix, so all
// targets share the same predictive variance profile.
//
// Predict returns a Gaussian with diagonal covariance: the predictive
// variance at each query point, including the observation noise.
type GaussianProcess struct {
	model.BaseEstimator

	// Lengthscale is the RBF kernel lengthscale ℓ.
	Lengthscale float64

	// Variance is the RBF signal variance σ².
	Variance float64

	// Noise is the observation noise variance added to the kernel diagonal.
	Noise float64

	// TrainX keeps the training inputs, needed for prediction.
	TrainX model.GobDense

	// Alpha holds K⁻¹ y per target, train samples × targets.
	Alpha model.GobDense

	// Jitter records the diagonal jitter needed to factorize the kernel
	// matrix during Fit, so the factorization is reproducible after load.
	Jitter float64

	// NFeatures and NTargets record the fitted shape.
	NFeatures int
	NTargets  int

	// Cholesky factor of the regularized kernel matrix; rebuilt on demand
	// after gob decoding.
	chol *mat.Cholesky

	logger log.Logger
}

// NewGaussianProcess creates a GP with the given RBF kernel hyperparameters.
func NewGaussianProcess(lengthscale, variance, noise float64) (*GaussianProcess, error) {
	if lengthscale <= 0 {
		return nil, errors.NewValidationError("lengthscale", "must be positive", lengthscale)
	}
	if variance <= 0 {
		return nil, errors.NewValidationError("variance", "must be positive", variance)
	}
	if noise < 0 {
		return nil, errors.NewValidationError("noise", "must be non-negative", noise)
	}
	return &GaussianProcess{
		Lengthscale: lengthscale,
		Variance:    variance,
		Noise:       noise,
		logger:      log.GetLoggerWithName("emulators"),
	}, nil
}

// Name implements model.Emulator.
func (gp *GaussianProcess) Name() string { return "gaussian_process" }

// kernel evaluates the RBF kernel between two feature rows.
func (gp *GaussianProcess) kernel(a, b []float64) float64 {
	var sq float64
	for i := range a {
		d := a[i] - b[i]
		sq += d * d
	}
	return gp.Variance * math.Exp(-sq/(2*gp.Lengthscale*gp.Lengthscale))
}

// Fit factorizes the regularized kernel matrix and solves for the dual
// weights. A kernel matrix that fails Cholesky gets escalating diagonal
// jitter; if no jitter level within a few orders of magnitude helps, the fit
// is reported as a ModelFitError.
func (gp *GaussianProcess) Fit(x, y mat.Matrix) error {
	n, d := x.Dims()
	ny, t := y.Dims()
	if n == 0 || d == 0 {
		return errors.Wrap(errors.ErrEmptyData, "GaussianProcess.Fit")
	}
	if n != ny {
		return errors.NewDimensionError("GaussianProcess.Fit", n, ny, 0)
	}
	if err := errors.CheckMatrix("GaussianProcess.Fit: x", x, n, d); err != nil {
		return err
	}
	if err := errors.CheckMatrix("GaussianProcess.Fit: y", y, ny, t); err != nil {
		return err
	}

	trainX := mat.DenseCopyOf(x)
	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		xi := trainX.RawRowView(i)
		k.SetSym(i, i, gp.kernel(xi, xi)+gp.Noise)
		for j := i + 1; j < n; j++ {
			k.SetSym(i, j, gp.kernel(xi, trainX.RawRowView(j)))
		}
	}

	chol, jitter, attempts, err := factorizeWithJitter(k)
	if err != nil {
		return errors.NewModelFitError("gaussian_process", gp.GetParams(),
			errors.Wrap(err, "kernel matrix is not positive definite"))
	}
	if attempts > 0 && gp.logger != nil {
		gp.logger.Debug("kernel matrix required jitter",
			log.OperationKey, "fit",
			"jitter", jitter,
			"attempts", attempts,
		)
	}

	yd := mat.DenseCopyOf(y)
	alpha := mat.NewDense(n, t, nil)
	if err := chol.SolveTo(alpha, yd); err != nil {
		return errors.NewModelFitError("gaussian_process", gp.GetParams(),
			errors.Wrap(err, "solving dual weights failed"))
	}

	gp.TrainX = model.WrapDense(trainX)
	gp.Alpha = model.WrapDense(alpha)
	gp.Jitter = jitter
	gp.NFeatures = d
	gp.NTargets = t
	gp.chol = chol
	gp.SetFitted()
	return nil
}

// Predict returns the posterior predictive mean and per-point variance.
func (gp *GaussianProcess) Predict(x mat.Matrix) (distribution.Prediction, error) {
	if !gp.IsFitted() {
		return nil, errors.NewNotFittedError("GaussianProcess", "Predict")
	}
	m, d := x.Dims()
	if d != gp.NFeatures {
		return nil, errors.NewDimensionError("GaussianProcess.Predict", gp.NFeatures, d, 1)
	}
	if err := gp.ensureFactorized(); err != nil {
		return nil, err
	}

	trainX := gp.TrainX.Dense
	n, _ := trainX.Dims()
	xd := denseOf(x)

	kStar := mat.NewDense(m, n, nil)
	for i := 0; i < m; i++ {
		xi := xd.RawRowView(i)
		for j := 0; j < n; j++ {
			kStar.Set(i, j, gp.kernel(xi, trainX.RawRowView(j)))
		}
	}

	var mean mat.Dense
	mean.Mul(kStar, gp.Alpha.Dense)

	// Predictive variance: k(x*,x*) + noise - ‖v‖² with K v = k*.
	v := mat.NewDense(n, m, nil)
	if err := gp.chol.SolveTo(v, kStar.T()); err != nil {
		return nil, errors.Wrap(err, "GaussianProcess.Predict: variance solve failed")
	}

	variances := mat.NewDense(m, gp.NTargets, nil)
	for i := 0; i < m; i++ {
		xi := xd.RawRowView(i)
		prior := gp.kernel(xi, xi) + gp.Noise

		var reduction float64
		for j := 0; j < n; j++ {
			reduction += kStar.At(i, j) * v.At(j, i)
		}
		pv := math.Max(0, prior-reduction)
		for j := 0; j < gp.NTargets; j++ {
			variances.Set(i, j, pv)
		}
	}

	return distribution.NewGaussianDiag(&mean, variances)
}

// ensureFactorized rebuilds the Cholesky factor from the stored training
// inputs after gob decoding, reusing the jitter recorded at fit time.
func (gp *GaussianProcess) ensureFactorized() error {
	if gp.chol != nil {
		return nil
	}
	trainX := gp.TrainX.Dense
	n, _ := trainX.Dims()
	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		xi := trainX.RawRowView(i)
		k.SetSym(i, i, gp.kernel(xi, xi)+gp.Noise+gp.Jitter)
		for j := i + 1; j < n; j++ {
			k.SetSym(i, j, gp.kernel(xi, trainX.RawRowView(j)))
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(k); !ok {
		return errors.Wrap(errors.ErrSingularMatrix, "GaussianProcess: refactorization failed")
	}
	gp.chol = &chol
	return nil
}

// factorizeWithJitter tries Cholesky with escalating diagonal jitter.
// Returns the factorization, the jitter that succeeded (0 when none was
// needed) and the number of escalation attempts.
func factorizeWithJitter(k *mat.SymDense) (*mat.Cholesky, float64, int, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(k); ok {
		return &chol, 0, 0, nil
	}

	n := k.SymmetricDim()
	jitter := 1e-10
	const maxAttempts = 8
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		jittered := mat.NewSymDense(n, nil)
		jittered.CopySym(k)
		for i := 0; i < n; i++ {
			jittered.SetSym(i, i, jittered.At(i, i)+jitter)
		}
		var c mat.Cholesky
		if ok := c.Factorize(jittered); ok {
			return &c, jitter, attempt, nil
		}
		jitter *= 10
	}
	return nil, 0, maxAttempts, errors.Wrapf(errors.ErrSingularMatrix,
		"factorization failed after %d jitter attempts", maxAttempts)
}

// GetParams implements model.ParameterGetter.
func (gp *GaussianProcess) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"lengthscale": gp.Lengthscale,
		"variance":    gp.Variance,
		"noise":       gp.Noise,
	}
}

// String returns a printable description.
func (gp *GaussianProcess) String() string {
	return fmt.Sprintf("GaussianProcess(lengthscale=%g, variance=%g, noise=%g)",
		gp.Lengthscale, gp.Variance, gp.Noise)
}

func denseOf(x mat.Matrix) *mat.Dense {
	if d, ok := x.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(x)
}
