// Package distribution provides the predictive distribution types returned by
// emulator models: a plain point estimate, or a Gaussian carrying a mean and
// either a diagonal or a full per-sample covariance. Covariances that are not
// positive semi-definite are repaired by symmetrization and diagonal jitter;
// every repair is reported through the pkg/errors warning handler, never
// applied silently.
package distribution

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// CovKind describes the covariance structure of a Gaussian prediction.
type CovKind int

const (
	// CovNone means no uncertainty (point estimate).
	CovNone CovKind = iota
	// CovDiagonal means one independent variance per output dimension.
	CovDiagonal
	// CovFull means one full cross-target covariance matrix per sample.
	CovFull
)

// String returns the string representation of the covariance kind.
func (k CovKind) String() string {
	switch k {
	case CovNone:
		return "none"
	case CovDiagonal:
		return "diagonal"
	case CovFull:
		return "full"
	default:
		return "unknown"
	}
}

// Prediction is a model's belief about outputs given inputs. Mean is always
// samples × targets. Variance has the same shape and is zero for point
// estimates. Draw produces one joint sample of the same shape.
type Prediction interface {
	// Mean returns the predicted mean, samples × targets.
	Mean() *mat.Dense

	// Variance returns the per-output variance, samples × targets.
	Variance() *mat.Dense

	// Kind reports the covariance structure.
	Kind() CovKind

	// Dims returns (samples, targets).
	Dims() (int, int)

	// Draw produces one sample of shape samples × targets using rng.
	Draw(rng *rand.Rand) (*mat.Dense, error)
}

// PointEstimate wraps a plain prediction tensor with no uncertainty.
type PointEstimate struct {
	Values *mat.Dense
}

// NewPointEstimate wraps values (samples × targets) as a Prediction.
func NewPointEstimate(values *mat.Dense) *PointEstimate {
	return &PointEstimate{Values: values}
}

// Mean returns the wrapped values.
func (p *PointEstimate) Mean() *mat.Dense { return p.Values }

// Variance returns an all-zero matrix of the same shape.
func (p *PointEstimate) Variance() *mat.Dense {
	r, c := p.Values.Dims()
	return mat.NewDense(r, c, nil)
}

// Kind returns CovNone.
func (p *PointEstimate) Kind() CovKind { return CovNone }

// Dims returns (samples, targets).
func (p *PointEstimate) Dims() (int, int) { return p.Values.Dims() }

// Draw returns a copy of the values; a point estimate has no spread.
func (p *PointEstimate) Draw(_ *rand.Rand) (*mat.Dense, error) {
	return mat.DenseCopyOf(p.Values), nil
}

// Gaussian is a Gaussian predictive distribution over samples × targets
// outputs. Targets are either independent (diagonal covariance, one variance
// per output) or cross-correlated (one full covariance matrix per sample).
type Gaussian struct {
	MeanMat *mat.Dense      // samples × targets
	CovKind CovKind         // CovDiagonal or CovFull
	Diag    *mat.Dense      // samples × targets, set when CovKind == CovDiagonal
	Full    []*mat.SymDense // length samples, each targets × targets, set when CovKind == CovFull

	// cached Cholesky factors for Full, computed lazily on first Draw
	chol []*mat.Cholesky
}

// NewGaussianDiag builds a Gaussian with independent per-output variances.
// Negative variances (accumulated floating error) are clamped to zero and
// reported as a CovarianceWarning.
func NewGaussianDiag(mean, variances *mat.Dense) (*Gaussian, error) {
	const op = "distribution.NewGaussianDiag"

	mr, mc := mean.Dims()
	vr, vc := variances.Dims()
	if mr == 0 || mc == 0 {
		return nil, errors.NewValueError(op, "empty mean")
	}
	if mr != vr || mc != vc {
		return nil, errors.NewDimensionError(op, mr, vr, 0)
	}

	clamped := 0
	v := mat.DenseCopyOf(variances)
	for i := 0; i < vr; i++ {
		for j := 0; j < vc; j++ {
			if v.At(i, j) < 0 {
				v.Set(i, j, 0)
				clamped++
			}
		}
	}
	if clamped > 0 {
		errors.Warn(errors.NewCovarianceWarning(op, 0, clamped))
	}

	return &Gaussian{
		MeanMat: mat.DenseCopyOf(mean),
		CovKind: CovDiagonal,
		Diag:    v,
	}, nil
}

// NewGaussianFull builds a Gaussian with one full covariance per sample.
// Each covariance is repaired to positive-definiteness if necessary; opts may
// be nil to use DefaultRepairOptions.
func NewGaussianFull(mean *mat.Dense, covs []*mat.SymDense, opts *RepairOptions) (*Gaussian, error) {
	const op = "distribution.NewGaussianFull"

	mr, mc := mean.Dims()
	if mr == 0 || mc == 0 {
		return nil, errors.NewValueError(op, "empty mean")
	}
	if len(covs) != mr {
		return nil, errors.NewDimensionError(op, mr, len(covs), 0)
	}

	repaired := make([]*mat.SymDense, mr)
	chols := make([]*mat.Cholesky, mr)
	for i, cov := range covs {
		if n := cov.SymmetricDim(); n != mc {
			return nil, errors.NewDimensionError(op, mc, n, 1)
		}
		sym, chol, err := Repair(cov, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: sample %d", op, i)
		}
		repaired[i] = sym
		chols[i] = chol
	}

	return &Gaussian{
		MeanMat: mat.DenseCopyOf(mean),
		CovKind: CovFull,
		Full:    repaired,
		chol:    chols,
	}, nil
}

// Mean returns the predictive mean.
func (g *Gaussian) Mean() *mat.Dense { return g.MeanMat }

// Kind reports the covariance structure.
func (g *Gaussian) Kind() CovKind { return g.CovKind }

// Dims returns (samples, targets).
func (g *Gaussian) Dims() (int, int) { return g.MeanMat.Dims() }

// Variance returns the per-output variance, samples × targets. For a full
// covariance this is the diagonal of each per-sample matrix.
func (g *Gaussian) Variance() *mat.Dense {
	r, c := g.MeanMat.Dims()
	if g.CovKind == CovDiagonal {
		return mat.DenseCopyOf(g.Diag)
	}
	v := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v.Set(i, j, g.Full[i].At(j, j))
		}
	}
	return v
}

// CovarianceAt returns the full covariance matrix for sample i. For a
// diagonal Gaussian the matrix is constructed from the variances.
func (g *Gaussian) CovarianceAt(i int) *mat.SymDense {
	_, c := g.MeanMat.Dims()
	if g.CovKind == CovFull {
		return g.Full[i]
	}
	cov := mat.NewSymDense(c, nil)
	for j := 0; j < c; j++ {
		cov.SetSym(j, j, g.Diag.At(i, j))
	}
	return cov
}

// Draw produces one joint sample of shape samples × targets. Diagonal
// covariances use independent normal draws; full covariances use the cached
// Cholesky factor of each per-sample matrix.
func (g *Gaussian) Draw(rng *rand.Rand) (*mat.Dense, error) {
	const op = "Gaussian.Draw"

	r, c := g.MeanMat.Dims()
	out := mat.NewDense(r, c, nil)

	if g.CovKind == CovDiagonal {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				sd := math.Sqrt(g.Diag.At(i, j))
				out.Set(i, j, g.MeanMat.At(i, j)+sd*rng.NormFloat64())
			}
		}
		return out, nil
	}

	if err := g.factorize(); err != nil {
		return nil, errors.Wrap(err, op)
	}

	z := make([]float64, c)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := range z {
			z[j] = rng.NormFloat64()
		}
		var L mat.TriDense
		g.chol[i].LTo(&L)
		lv := mat.NewVecDense(c, row)
		lv.MulVec(&L, mat.NewVecDense(c, z))
		for j := 0; j < c; j++ {
			out.Set(i, j, g.MeanMat.At(i, j)+lv.AtVec(j))
		}
	}
	return out, nil
}

// DrawN produces n independent joint samples with a deterministic seed.
func (g *Gaussian) DrawN(n int, seed uint64) ([]*mat.Dense, error) {
	if n <= 0 {
		return nil, errors.NewValueError("Gaussian.DrawN", "sample count must be positive")
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	draws := make([]*mat.Dense, n)
	for k := range draws {
		d, err := g.Draw(rng)
		if err != nil {
			return nil, err
		}
		draws[k] = d
	}
	return draws, nil
}

// factorize fills the Cholesky cache for full covariances. Repair at
// construction guarantees factorization succeeds; a failure here means the
// Gaussian was built directly with a non-PD matrix.
func (g *Gaussian) factorize() error {
	if g.chol != nil {
		return nil
	}
	g.chol = make([]*mat.Cholesky, len(g.Full))
	for i, cov := range g.Full {
		var chol mat.Cholesky
		if ok := chol.Factorize(cov); !ok {
			g.chol = nil
			return errors.Wrapf(errors.ErrSingularMatrix, "covariance for sample %d is not positive definite", i)
		}
		g.chol[i] = &chol
	}
	return nil
}

var (
	_ Prediction = (*PointEstimate)(nil)
	_ Prediction = (*Gaussian)(nil)
)
