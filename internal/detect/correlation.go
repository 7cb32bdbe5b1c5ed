package detect

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/score"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/stats"
)

const (
	correlationThreshold = 0.9
	correlationMinValues = 10
)

// CorrelationPair is one highly correlated pair.
type CorrelationPair struct {
	Feature1    string  `json:"feature_1"`
	Feature2    string  `json:"feature_2"`
	Correlation float64 `json:"correlation"`
}

// CorrelationReport holds the Pearson matrix over the eligible columns and
// the pairs above the threshold. Undefined coefficients are stored as 0.
type CorrelationReport struct {
	Columns []string          `json:"columns"`
	Matrix  [][]float64       `json:"matrix"`
	Pairs   []CorrelationPair `json:"pairs,omitempty"`
}

// Correlation flags numeric column pairs with |r| > 0.9.
type Correlation struct{}

func (Correlation) Name() string { return "correlation" }

func (Correlation) Run(ctx context.Context, in *Input) (*Contribution, error) {
	out := &Contribution{}
	var cols []*dataset.Column
	for _, name := range in.Classification.Numeric {
		col := in.Dataset.Column(name)
		if col != nil && col.Type == dataset.Numeric && col.Len()-col.NullCount() > correlationMinValues {
			cols = append(cols, col)
		}
	}
	if len(cols) < 2 {
		return out, nil
	}

	n := len(cols)
	rep := &CorrelationReport{Columns: make([]string, n), Matrix: make([][]float64, n)}
	for i, c := range cols {
		rep.Columns[i] = c.Name
		rep.Matrix[i] = make([]float64, n)
		rep.Matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < n; j++ {
			r := pairwisePearson(cols[i], cols[j])
			if !stats.Finite(r) {
				continue
			}
			rep.Matrix[i][j], rep.Matrix[j][i] = r, r
			if math.Abs(r) <= correlationThreshold {
				continue
			}
			a, b := cols[i].Name, cols[j].Name
			rep.Pairs = append(rep.Pairs, CorrelationPair{Feature1: a, Feature2: b, Correlation: stats.Round(r, 3)})
			out.Deduction.Dimension(score.Consistency, 5)
			out.Deduction.Health(2)
			out.issue(TypeCorrelation, score.Medium, "'%s' & '%s' highly correlated (%.2f) - consider removing one", a, b, r)
			out.recommend("Consider removing one of '%s' and '%s' (r=%.2f)", a, b, r)
		}
	}
	out.Stats = rep
	return out, nil
}

// pairwisePearson correlates the rows where both columns are present.
func pairwisePearson(a, b *dataset.Column) float64 {
	x := make([]float64, 0, a.Len())
	y := make([]float64, 0, a.Len())
	for i := range a.Num {
		if a.Valid[i] && b.Valid[i] {
			x = append(x, a.Num[i])
			y = append(y, b.Num[i])
		}
	}
	if len(x) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}
