package pca

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/impute"
)

func matrixOf(rows [][]float64, names ...string) *impute.Matrix {
	d := mat.NewDense(len(rows), len(names), nil)
	idx := make([]int, len(rows))
	for i, r := range rows {
		d.SetRow(i, r)
		idx[i] = i * 2
	}
	return &impute.Matrix{Columns: names, Data: d, RowIndex: idx}
}

func TestFitCollinearColumnsConcentrateVariance(t *testing.T) {
	var rows [][]float64
	for i := 0; i < 20; i++ {
		x := float64(i)
		rows = append(rows, []float64{x, 3*x + 2, float64(i % 3)})
	}
	p, err := Fit(matrixOf(rows, "a", "b", "c"), DefaultComponents)
	require.NoError(t, err)

	require.Len(t, p.Explained, 3)
	assert.Greater(t, p.Explained[0], 0.6)
	for i := 1; i < len(p.Explained); i++ {
		assert.GreaterOrEqual(t, p.Explained[i-1], p.Explained[i])
	}
	assert.InDelta(t, 1.0, p.Cumulative[2], 1e-9)
	assert.InDelta(t, p.Explained[0]+p.Explained[1], p.VarianceExplained2D, 1e-12)
	assert.Len(t, p.Coordinates, 20)
	assert.Len(t, p.Coordinates[0], 3)
	assert.Equal(t, 38, p.RowIndex[19])
	require.Len(t, p.Loadings, 3)
	assert.Len(t, p.Loadings[0], 3)

	// a and b are identical after scaling, so they share the first component.
	assert.InDelta(t, p.Loadings[0][0], p.Loadings[0][1], 1e-9)
	assert.Greater(t, p.Loadings[0][0], 0.0)

	var norm float64
	for _, v := range p.Loadings[0] {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestFitCapsComponents(t *testing.T) {
	rows := [][]float64{{1, 5, 2}, {2, 3, 9}, {4, 1, 1}}
	p, err := Fit(matrixOf(rows, "a", "b", "c"), 2)
	require.NoError(t, err)
	assert.Len(t, p.Explained, 2)
	assert.Len(t, p.Coordinates[0], 2)
	assert.Equal(t, 1, p.ComponentsFor(0.5))
	assert.Equal(t, 2, p.ComponentsFor(1.5))
}

func TestFitSingleComponentHasNo2D(t *testing.T) {
	rows := [][]float64{{1}, {2}, {4}, {8}}
	p, err := Fit(matrixOf(rows, "a"), DefaultComponents)
	require.NoError(t, err)
	assert.Len(t, p.Explained, 1)
	assert.Zero(t, p.VarianceExplained2D)
}

func TestFitDegenerate(t *testing.T) {
	_, err := Fit(&impute.Matrix{}, DefaultComponents)
	assert.ErrorIs(t, err, ErrDegenerate)
	_, err = Fit(matrixOf([][]float64{{1, 2}}, "a", "b"), DefaultComponents)
	assert.ErrorIs(t, err, ErrDegenerate)
	_, err = Fit(matrixOf([][]float64{{1, 2}, {1, 2}, {1, 2}}, "a", "b"), DefaultComponents)
	assert.ErrorIs(t, err, ErrDegenerate)
}
