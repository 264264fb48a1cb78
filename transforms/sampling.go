package transforms

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/core/parallel"
	"github.com/LevanBokeria/autoemulate/distribution"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// inverseBySampling is the shared ModeSampling implementation: draw from the
// input distribution, apply the transform's plain inverse to each draw, and
// reconstitute an empirical distribution of the requested covariance kind.
// Draws are inverted in parallel; each goroutine works on its own draws, so
// no mutable state is shared. Reproducible given cfg.Seed.
func inverseBySampling(inv func(mat.Matrix) (*mat.Dense, error), pred distribution.Prediction, kind distribution.CovKind, cfg PropagateConfig) (distribution.Prediction, error) {
	const op = "transforms.inverseBySampling"

	g, ok := pred.(*distribution.Gaussian)
	if !ok {
		// A point estimate has no spread to propagate.
		inverted, err := inv(pred.Mean())
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		return distribution.NewPointEstimate(inverted), nil
	}

	n := cfg.sampleCount()
	draws, err := g.DrawN(n, cfg.Seed)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	inverted := make([]*mat.Dense, n)
	var mu sync.Mutex
	var firstErr error
	parallel.Parallelize(n, func(start, end int) {
		for k := start; k < end; k++ {
			out, err := inv(draws[k])
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			inverted[k] = out
		}
	})
	if firstErr != nil {
		return nil, errors.Wrap(firstErr, op)
	}

	return distribution.Empirical(inverted, kind, cfg.Repair)
}

// elementwiseKind keeps the input covariance structure for transforms that
// act independently per output dimension.
func elementwiseKind(pred distribution.Prediction) distribution.CovKind {
	if pred.Kind() == distribution.CovFull {
		return distribution.CovFull
	}
	return distribution.CovDiagonal
}
