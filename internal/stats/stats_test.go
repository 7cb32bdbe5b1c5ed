package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantileMatchesLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, Quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 3.25, Quantile(sorted, 0.75), 1e-12)
	assert.Equal(t, 1.0, Quantile(sorted, 0))
	assert.Equal(t, 4.0, Quantile(sorted, 1))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestPercentileDoesNotMutate(t *testing.T) {
	vals := []float64{5, 1, 3}
	assert.InDelta(t, 3, Percentile(vals, 50), 1e-12)
	assert.Equal(t, []float64{5, 1, 3}, vals)
}

func TestMeanStdPopulation(t *testing.T) {
	m, s := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5, m, 1e-12)
	assert.InDelta(t, 2, s, 1e-12)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.5, Round(2.45, 1))
	assert.Equal(t, -1.235, Round(-1.2346, 3))
	assert.True(t, Finite(1))
	assert.False(t, Finite(math.Inf(1)))
}
