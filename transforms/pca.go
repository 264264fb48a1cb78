package transforms

import (
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/LevanBokeria/autoemulate/core/model"
	"github.com/LevanBokeria/autoemulate/distribution"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

func init() {
	Register("pca", func(params map[string]interface{}) (Transform, error) {
		k := paramInt(params, "n_components", 1)
		return NewPCA(k)
	})
	gob.Register(&PCA{})
}

// PCA projects data onto the top NComponents directions of variance. It is
// lossy: Inverse reconstructs an approximation of the original space, with
// round-trip error bounded by the variance left in the discarded components.
//
// The decode map ẑ ↦ W·ẑ + μ is linear, so ModeAnalytical propagation
// (W Σ Wᵀ) is exact for the reconstruction. The propagated covariance has
// rank ≤ NComponents and is repaired to positive-definiteness with jitter,
// which surfaces as a CovarianceWarning.
type PCA struct {
	model.BaseEstimator

	// NComponents is the number of retained directions.
	NComponents int

	// Components holds the retained directions, features × NComponents.
	Components model.GobDense

	// Mean holds each column's mean, subtracted before projection.
	Mean []float64

	// ExplainedVariance holds the variance of each retained component.
	ExplainedVariance []float64

	// NFeatures is the fitted original dimensionality.
	NFeatures int
}

// NewPCA creates a PCA transform retaining nComponents directions.
func NewPCA(nComponents int) (*PCA, error) {
	if nComponents < 1 {
		return nil, errors.NewValidationError("n_components", "must be at least 1", nComponents)
	}
	return &PCA{NComponents: nComponents}, nil
}

// Name implements Transform.
func (p *PCA) Name() string { return "pca" }

// Fit computes the principal directions of x.
func (p *PCA) Fit(x mat.Matrix) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "PCA.Fit")
	}
	if p.NComponents > c {
		return errors.NewValidationError("n_components", "exceeds feature count", p.NComponents)
	}
	if r < 2 {
		return errors.NewValueError("PCA.Fit", "need at least 2 samples")
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return errors.Wrap(errors.ErrSingularMatrix, "PCA.Fit: principal component decomposition failed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	components := mat.NewDense(c, p.NComponents, nil)
	for j := 0; j < p.NComponents; j++ {
		for i := 0; i < c; i++ {
			components.Set(i, j, vecs.At(i, j))
		}
	}

	p.Mean = make([]float64, c)
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += x.At(i, j)
		}
		p.Mean[j] = sum / float64(r)
	}

	p.Components = model.WrapDense(components)
	p.ExplainedVariance = vars[:p.NComponents]
	p.NFeatures = c
	p.SetFitted()
	return nil
}

// Forward projects x onto the retained components, returning samples ×
// NComponents scores.
func (p *PCA) Forward(x mat.Matrix) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "Forward")
	}
	r, c := x.Dims()
	if c != p.NFeatures {
		return nil, errors.NewDimensionError("PCA.Forward", p.NFeatures, c, 1)
	}

	centered := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			centered.Set(i, j, x.At(i, j)-p.Mean[j])
		}
	}

	scores := mat.NewDense(r, p.NComponents, nil)
	scores.Mul(centered, p.Components.Dense)
	return scores, nil
}

// Inverse reconstructs an approximation of the original space from scores.
// Exact recovery is not guaranteed; the error is bounded by the variance of
// the discarded components.
func (p *PCA) Inverse(x mat.Matrix) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "Inverse")
	}
	r, c := x.Dims()
	if c != p.NComponents {
		return nil, errors.NewDimensionError("PCA.Inverse", p.NComponents, c, 1)
	}

	reconstructed := mat.NewDense(r, p.NFeatures, nil)
	reconstructed.Mul(x, p.Components.Dense.T())
	for i := 0; i < r; i++ {
		for j := 0; j < p.NFeatures; j++ {
			reconstructed.Set(i, j, reconstructed.At(i, j)+p.Mean[j])
		}
	}
	return reconstructed, nil
}

// InverseDistribution reconstructs a predictive distribution in the original
// space. The output covariance W Σ Wᵀ couples all original dimensions, so
// the result always carries full covariance structure.
func (p *PCA) InverseDistribution(pred distribution.Prediction, mode Mode, cfg PropagateConfig) (distribution.Prediction, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "InverseDistribution")
	}

	if mode == ModeSampling {
		return inverseBySampling(p.Inverse, pred, distribution.CovFull, cfg)
	}

	invMean, err := p.Inverse(pred.Mean())
	if err != nil {
		return nil, err
	}
	g, ok := pred.(*distribution.Gaussian)
	if !ok {
		return distribution.NewPointEstimate(invMean), nil
	}

	r, _ := invMean.Dims()
	w := p.Components.Dense
	covs := make([]*mat.SymDense, r)
	repair := cfg.Repair
	if repair == nil {
		repair = &distribution.RepairOptions{Op: "PCA.InverseDistribution"}
	}
	for i := 0; i < r; i++ {
		src := g.CovarianceAt(i)

		var tmp, full mat.Dense
		tmp.Mul(w, src)
		full.Mul(&tmp, w.T())

		sym, _, err := distribution.RepairDense(&full, repair)
		if err != nil {
			return nil, errors.Wrapf(err, "PCA.InverseDistribution: sample %d", i)
		}
		covs[i] = sym
	}

	// Covariances are already repaired above; NewGaussianFull re-checks
	// cheaply via the cached factorization path.
	return distribution.NewGaussianFull(invMean, covs, repair)
}

// GetParams implements model.ParameterGetter.
func (p *PCA) GetParams() map[string]interface{} {
	return map[string]interface{}{"n_components": p.NComponents}
}

// String returns a printable description.
func (p *PCA) String() string {
	if !p.IsFitted() {
		return fmt.Sprintf("PCA(n_components=%d)", p.NComponents)
	}
	return fmt.Sprintf("PCA(n_components=%d, n_features=%d)", p.NComponents, p.NFeatures)
}
