package compare

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// Fold is one cross-validation split as row indices into the training data.
type Fold struct {
	TrainIdx []int
	TestIdx  []int
}

// KFold splits sample indices into k folds. With Shuffle set the indices are
// permuted by a PCG generator seeded from Seed, so splits are reproducible.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a shuffled k-fold splitter.
func NewKFold(nSplits int, seed uint64) *KFold {
	return &KFold{NSplits: nSplits, Shuffle: true, Seed: seed}
}

// Split produces the folds for n samples. Every sample appears in exactly one
// test fold; fold sizes differ by at most one.
func (k *KFold) Split(n int) ([]Fold, error) {
	if k.NSplits < 2 {
		return nil, errors.NewValidationError("n_splits", "must be at least 2", k.NSplits)
	}
	if n < k.NSplits {
		return nil, errors.NewValidationError("n_splits", "more splits than samples", k.NSplits)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if k.Shuffle {
		rng := newRand(k.Seed)
		rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	foldSizes := make([]int, k.NSplits)
	for i := range foldSizes {
		foldSizes[i] = n / k.NSplits
	}
	for i := 0; i < n%k.NSplits; i++ {
		foldSizes[i]++
	}

	folds := make([]Fold, k.NSplits)
	start := 0
	for i, size := range foldSizes {
		test := indices[start : start+size]
		train := make([]int, 0, n-size)
		train = append(train, indices[:start]...)
		train = append(train, indices[start+size:]...)
		folds[i] = Fold{TrainIdx: train, TestIdx: test}
		start += size
	}
	return folds, nil
}

// TrainTestSplit partitions x and y row-wise into a training and a held-out
// split. testFraction is the held-out share in (0, 1); rows are shuffled with
// the given seed before splitting.
func TrainTestSplit(x, y mat.Matrix, testFraction float64, seed uint64) (xTrain, yTrain, xTest, yTest *mat.Dense, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("test_fraction", "must be in (0, 1)", testFraction)
	}
	n, _ := x.Dims()
	ny, _ := y.Dims()
	if n != ny {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", n, ny, 0)
	}
	nTest := int(float64(n) * testFraction)
	if nTest == 0 || nTest == n {
		return nil, nil, nil, nil, errors.NewValidationError("test_fraction", "split leaves an empty side", testFraction)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := newRand(seed)
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	xTrain = selectRows(x, indices[nTest:])
	yTrain = selectRows(y, indices[nTest:])
	xTest = selectRows(x, indices[:nTest])
	yTest = selectRows(y, indices[:nTest])
	return xTrain, yTrain, xTest, yTest, nil
}

// selectRows copies the given rows of m into a new matrix, preserving order.
func selectRows(m mat.Matrix, rows []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(r, j))
		}
	}
	return out
}

// newRand builds the package's deterministic generator for a seed.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
