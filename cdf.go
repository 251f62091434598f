package chisqtest

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// CDFFunc evaluates the cumulative distribution function of the chi-square distribution
// with df degrees of freedom at x. It must return a value in [0,1].
type CDFFunc func(x float64, df int) float64

// ChiSquaredCDF is the default CDFFunc, backed by gonum's distuv.ChiSquared.
func ChiSquaredCDF(x float64, df int) float64 {
	return distuv.ChiSquared{K: float64(df)}.CDF(x)
}

// pValue returns the upper tail probability 1 - CDF(statistic, df), clamped into [0,1].
// A test without degrees of freedom cannot reject anything, so its p-value is 1.
func pValue(cdf CDFFunc, statistic float64, df int) float64 {
	if df <= 0 {
		return 1
	}
	if cdf == nil {
		cdf = ChiSquaredCDF
	}
	p := 1 - cdf(statistic, df)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
