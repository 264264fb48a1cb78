package errors

import (
	"math"
)

// CheckNumericalStability returns an error if any value is NaN or Inf.
func CheckNumericalStability(operation string, values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Newf("autoemulate: %s: numerical instability detected (NaN or Inf)", operation)
		}
	}
	return nil
}

// CheckScalar checks a single value for NaN or Inf.
func CheckScalar(operation string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Newf("autoemulate: %s: numerical instability detected: %v", operation, value)
	}
	return nil
}

// CheckMatrix checks all entries of a matrix for NaN or Inf.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Newf("autoemulate: %s: numerical instability at (%d,%d): %v", operation, i, j, v)
			}
		}
	}
	return nil
}

