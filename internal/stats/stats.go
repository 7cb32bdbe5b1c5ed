// Package stats holds the small numeric helpers shared by detectors,
// imputation and the anomaly model.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Quantile interpolates linearly between closest ranks (position
// q*(n-1)). sorted must be ascending.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Percentile sorts a copy of vals and returns the p-th percentile, p in [0,100].
func Percentile(vals []float64, p float64) float64 {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	return Quantile(cp, p/100)
}

// MeanStd returns the mean and the population (ddof=0) standard deviation.
func MeanStd(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	mean = stat.Mean(vals, nil)
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(vals)))
}

// Round rounds half away from zero to the given number of decimals.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

// Finite reports whether x is neither NaN nor infinite.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
