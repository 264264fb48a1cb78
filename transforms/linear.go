package transforms

import (
	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/distribution"
)

// propagateElementwiseLinear pushes a Gaussian through an inverse map whose
// Jacobian is diagonal, with per-sample per-column derivatives jac (samples ×
// targets). The covariance update is J Σ Jᵀ, which for a diagonal Jacobian is
// an elementwise rescale: diagonal variances become var·j², full covariances
// become j_a j_b Σ_ab. Exact when the derivatives are constants (affine
// transforms); a local linearization otherwise.
func propagateElementwiseLinear(g *distribution.Gaussian, invMean, jac *mat.Dense) (distribution.Prediction, error) {
	r, c := invMean.Dims()

	if g.Kind() == distribution.CovDiagonal {
		variances := mat.NewDense(r, c, nil)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				d := jac.At(i, j)
				variances.Set(i, j, g.Diag.At(i, j)*d*d)
			}
		}
		return distribution.NewGaussianDiag(invMean, variances)
	}

	covs := make([]*mat.SymDense, r)
	for i := 0; i < r; i++ {
		cov := mat.NewSymDense(c, nil)
		src := g.Full[i]
		for a := 0; a < c; a++ {
			for b := a; b < c; b++ {
				cov.SetSym(a, b, jac.At(i, a)*jac.At(i, b)*src.At(a, b))
			}
		}
		covs[i] = cov
	}
	return distribution.NewGaussianFull(invMean, covs, nil)
}
