package distribution

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// RepairOptions controls positive-definiteness repair of covariance matrices.
// The zero value is replaced by DefaultRepairOptions.
type RepairOptions struct {
	// InitialJitter is the first diagonal jitter tried. When zero it is set
	// relative to the matrix scale: 1e-10 × mean(diag), floored at 1e-12.
	InitialJitter float64

	// MaxAttempts bounds the ×10 jitter escalation.
	MaxAttempts int

	// Op labels warnings emitted on repair.
	Op string
}

// DefaultRepairOptions are used when nil options are passed.
var DefaultRepairOptions = RepairOptions{
	MaxAttempts: 8,
	Op:          "distribution.Repair",
}

// Symmetrize converts an arbitrary square matrix into its symmetric part
// (A + Aᵀ)/2.
func Symmetrize(a mat.Matrix) (*mat.SymDense, error) {
	r, c := a.Dims()
	if r != c {
		return nil, errors.NewDimensionError("distribution.Symmetrize", r, c, 1)
	}
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return sym, nil
}

// Repair returns a positive-definite version of cov together with its
// Cholesky factorization. If cov already factorizes it is returned as is.
// Otherwise escalating diagonal jitter is added until factorization succeeds;
// the repair is reported as a CovarianceWarning. When MaxAttempts jitter
// levels all fail the matrix is considered unusable and an error is returned.
func Repair(cov *mat.SymDense, opts *RepairOptions) (*mat.SymDense, *mat.Cholesky, error) {
	o := DefaultRepairOptions
	if opts != nil {
		o = *opts
		if o.MaxAttempts <= 0 {
			o.MaxAttempts = DefaultRepairOptions.MaxAttempts
		}
		if o.Op == "" {
			o.Op = DefaultRepairOptions.Op
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); ok {
		return cov, &chol, nil
	}

	n := cov.SymmetricDim()
	jitter := o.InitialJitter
	if jitter <= 0 {
		var trace float64
		for i := 0; i < n; i++ {
			trace += math.Abs(cov.At(i, i))
		}
		jitter = 1e-10 * trace / float64(n)
		if jitter < 1e-12 {
			jitter = 1e-12
		}
	}

	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		jittered := mat.NewSymDense(n, nil)
		jittered.CopySym(cov)
		for i := 0; i < n; i++ {
			jittered.SetSym(i, i, jittered.At(i, i)+jitter)
		}

		var c mat.Cholesky
		if ok := c.Factorize(jittered); ok {
			errors.Warn(errors.NewCovarianceWarning(o.Op, jitter, attempt))
			return jittered, &c, nil
		}
		jitter *= 10
	}

	return nil, nil, errors.Wrapf(errors.ErrSingularMatrix,
		"%s: covariance not positive definite after %d jitter attempts", o.Op, o.MaxAttempts)
}

// RepairDense symmetrizes an arbitrary square matrix and repairs it to
// positive-definiteness. This is the entry point for covariances produced by
// J Σ Jᵀ propagation, which can lose symmetry to floating error.
func RepairDense(a mat.Matrix, opts *RepairOptions) (*mat.SymDense, *mat.Cholesky, error) {
	sym, err := Symmetrize(a)
	if err != nil {
		return nil, nil, err
	}
	return Repair(sym, opts)
}
