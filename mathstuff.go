package chisqtest

import (
	"math"
)

// Epsilon is the tolerance for a probability vector's sum: the double precision machine epsilon.
const Epsilon = 2.220446049250313e-16

// sequentialSum adds xs strictly left to right.
// The probability check works at the level of a single ulp, so the result must not depend
// on a vectorised summation order.
func sequentialSum(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum
}

// sumsToOne reports whether xs deviates from 1 by no more than Epsilon.
func sumsToOne(xs []float64) bool {
	return math.Abs(sequentialSum(xs)-1) <= Epsilon
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// roundN rounds x half-up to the given number of decimal places.
func roundN(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Floor(x*scale+0.5) / scale
}

// isIntegral reports whether every value is a whole number.
func isIntegral(xs []float64) bool {
	for _, x := range xs {
		if x != math.Trunc(x) {
			return false
		}
	}
	return true
}
