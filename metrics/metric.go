package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// Direction declares whether larger or smaller metric values are better.
type Direction int

const (
	// Maximize means higher scores are better (e.g. R²).
	Maximize Direction = iota
	// Minimize means lower scores are better (e.g. RMSE).
	Minimize
)

// Metric is a named scoring function with a declared direction.
type Metric struct {
	Name      string
	Direction Direction
	fn        func(yTrue, yPred *mat.VecDense) (float64, error)
}

// Better reports whether score a beats score b under this metric's direction.
func (m Metric) Better(a, b float64) bool {
	if m.Direction == Maximize {
		return a > b
	}
	return a < b
}

// Worst returns the sentinel score no real evaluation can beat under this
// metric; used to initialize ranking comparisons.
func (m Metric) Worst() float64 {
	if m.Direction == Maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// Built-in metrics.
var (
	// R2 is the coefficient of determination (higher-better).
	R2 = Metric{Name: "r2", Direction: Maximize, fn: R2Score}

	// RMSEMetric is the root mean squared error (lower-better).
	RMSEMetric = Metric{Name: "rmse", Direction: Minimize, fn: RMSE}

	// MSEMetric is the mean squared error (lower-better).
	MSEMetric = Metric{Name: "mse", Direction: Minimize, fn: MSE}

	// MAEMetric is the mean absolute error (lower-better).
	MAEMetric = Metric{Name: "mae", Direction: Minimize, fn: MAE}
)

// ByName looks up a built-in metric.
func ByName(name string) (Metric, error) {
	switch name {
	case "r2":
		return R2, nil
	case "rmse":
		return RMSEMetric, nil
	case "mse":
		return MSEMetric, nil
	case "mae":
		return MAEMetric, nil
	default:
		return Metric{}, errors.NewValidationError("metric", "unknown metric name", name)
	}
}

// Evaluate scores predictions against ground truth. Both matrices are
// samples × targets; per-target scores are reduced by unweighted mean.
func Evaluate(m Metric, yTrue, yPred mat.Matrix) (float64, error) {
	rT, cT := yTrue.Dims()
	rP, cP := yPred.Dims()
	if rT == 0 || cT == 0 {
		return 0, errors.NewValueError("Evaluate", "empty matrix")
	}
	if rT != rP {
		return 0, errors.NewDimensionError("Evaluate", rT, rP, 0)
	}
	if cT != cP {
		return 0, errors.NewDimensionError("Evaluate", cT, cP, 1)
	}

	trueCol := mat.NewVecDense(rT, nil)
	predCol := mat.NewVecDense(rT, nil)
	var total float64
	for j := 0; j < cT; j++ {
		for i := 0; i < rT; i++ {
			trueCol.SetVec(i, yTrue.At(i, j))
			predCol.SetVec(i, yPred.At(i, j))
		}
		score, err := m.fn(trueCol, predCol)
		if err != nil {
			return 0, errors.Wrapf(err, "Evaluate: target %d", j)
		}
		total += score
	}
	return total / float64(cT), nil
}
