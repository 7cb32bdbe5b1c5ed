// Package pca projects the imputed numeric matrix onto its principal
// components after standardising each column.
package pca

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/impute"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/stats"
)

// DefaultComponents is the component cap used by the pipeline.
const DefaultComponents = 10

// ErrDegenerate is returned when the matrix cannot be decomposed.
var ErrDegenerate = errors.New("matrix has no variance to decompose")

// Projection is the result of Fit. Coordinates rows align with RowIndex;
// Loadings has one row per component and one column per feature.
type Projection struct {
	Features            []string    `json:"features"`
	Explained           []float64   `json:"explained"`
	Cumulative          []float64   `json:"cumulative"`
	Coordinates         [][]float64 `json:"coordinates"`
	RowIndex            []int       `json:"row_index"`
	Loadings            [][]float64 `json:"loadings"`
	VarianceExplained2D float64     `json:"variance_explained_2d"`
	AnomalyLabels       []int       `json:"anomaly_labels,omitempty"`
}

// Fit standardises m and keeps min(maxComponents, columns, rows) components.
func Fit(m *impute.Matrix, maxComponents int) (*Projection, error) {
	if m == nil || m.Data == nil {
		return nil, ErrDegenerate
	}
	if maxComponents <= 0 {
		maxComponents = DefaultComponents
	}
	r, c := m.Data.Dims()
	if r < 2 {
		return nil, ErrDegenerate
	}
	k := min(maxComponents, c, r)

	z := standardize(m.Data)
	var pc stat.PC
	if !pc.PrincipalComponents(z, nil) {
		return nil, ErrDegenerate
	}
	vars := pc.VarsTo(nil)
	var total float64
	for _, v := range vars {
		total += v
	}
	if total <= 0 || math.IsNaN(total) {
		return nil, ErrDegenerate
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	if _, vc := vecs.Dims(); vc < k {
		k = vc
	}
	basis := mat.DenseCopyOf(vecs.Slice(0, c, 0, k))
	flipSigns(basis)

	var proj mat.Dense
	proj.Mul(z, basis)

	p := &Projection{
		Features: append([]string(nil), m.Columns...),
		RowIndex: append([]int(nil), m.RowIndex...),
	}
	var cum float64
	for j := 0; j < k; j++ {
		ratio := vars[j] / total
		cum += ratio
		p.Explained = append(p.Explained, ratio)
		p.Cumulative = append(p.Cumulative, cum)
		p.Loadings = append(p.Loadings, mat.Col(nil, j, basis))
	}
	if k >= 2 {
		p.VarianceExplained2D = p.Explained[0] + p.Explained[1]
	}
	p.Coordinates = make([][]float64, r)
	for i := range p.Coordinates {
		p.Coordinates[i] = mat.Row(nil, i, &proj)
	}
	return p, nil
}

// ComponentsFor returns how many components reach the cumulative variance
// threshold, or the component count when none does.
func (p *Projection) ComponentsFor(threshold float64) int {
	for i, c := range p.Cumulative {
		if c >= threshold {
			return i + 1
		}
	}
	return len(p.Cumulative)
}

// standardize centres each column and divides by its population standard
// deviation. Zero-variance columns keep a scale of 1.
func standardize(a *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	z := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, a)
		mean, std := stats.MeanStd(col)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i, v := range col {
			z.Set(i, j, (v-mean)/std)
		}
	}
	return z
}

// flipSigns makes the largest-magnitude loading of every component positive.
func flipSigns(basis *mat.Dense) {
	r, c := basis.Dims()
	for j := 0; j < c; j++ {
		best, at := 0.0, 0
		for i := 0; i < r; i++ {
			if v := math.Abs(basis.At(i, j)); v > best {
				best, at = v, i
			}
		}
		if basis.At(at, j) < 0 {
			for i := 0; i < r; i++ {
				basis.Set(i, j, -basis.At(i, j))
			}
		}
	}
}
