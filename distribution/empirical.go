package distribution

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// Empirical reconstitutes a Gaussian from draws, each samples × targets.
// This is the reconstruction step of sampling-based uncertainty propagation:
// per query point, the mean and covariance are estimated across draws. kind
// selects whether the cross-target structure is kept (CovFull) or reduced to
// per-output variances (CovDiagonal).
func Empirical(draws []*mat.Dense, kind CovKind, opts *RepairOptions) (*Gaussian, error) {
	const op = "distribution.Empirical"

	if len(draws) < 2 {
		return nil, errors.NewValueError(op, "need at least 2 draws")
	}
	r, c := draws[0].Dims()
	for _, d := range draws {
		dr, dc := d.Dims()
		if dr != r || dc != c {
			return nil, errors.NewDimensionError(op, r, dr, 0)
		}
	}

	mean := mat.NewDense(r, c, nil)
	n := float64(len(draws))
	for _, d := range draws {
		mean.Add(mean, d)
	}
	mean.Scale(1/n, mean)

	if kind == CovDiagonal {
		variances := mat.NewDense(r, c, nil)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				var ss float64
				m := mean.At(i, j)
				for _, d := range draws {
					diff := d.At(i, j) - m
					ss += diff * diff
				}
				variances.Set(i, j, ss/(n-1))
			}
		}
		return NewGaussianDiag(mean, variances)
	}

	// Full covariance: per query point, stack the draws into a
	// len(draws) × targets matrix and take its sample covariance.
	covs := make([]*mat.SymDense, r)
	obs := mat.NewDense(len(draws), c, nil)
	for i := 0; i < r; i++ {
		for k, d := range draws {
			for j := 0; j < c; j++ {
				obs.Set(k, j, d.At(i, j))
			}
		}
		cov := mat.NewSymDense(c, nil)
		stat.CovarianceMatrix(cov, obs, nil)
		covs[i] = mat.NewSymDense(c, nil)
		covs[i].CopySym(cov)
	}

	return NewGaussianFull(mean, covs, opts)
}
