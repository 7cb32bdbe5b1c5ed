package impute

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
)

// ridgeLambda scales the predictor penalty relative to the mean Gram
// diagonal. The intercept is not penalised.
const ridgeLambda = 1e-6

var errNotPositiveDefinite = errors.New("regression system is not positive definite")

// ChainedEquations starts from a mean fill and, for up to MaxIter rounds,
// regresses each incomplete column on every other column using the current
// estimates. Columns are visited in ascending order of missing count. Any
// failure falls back to MeanFill.
type ChainedEquations struct {
	opt Options
}

func (ChainedEquations) Mode() Mode { return Iterative }

func (s ChainedEquations) Impute(ds *dataset.Dataset, columns []string) (*Matrix, error) {
	cols, dropped, err := selected(ds, columns)
	if err != nil {
		return nil, err
	}
	values, rounds, err := s.run(cols)
	if err != nil {
		s.opt.Logger.WithFields(logrus.Fields{
			"stage": "imputation",
			"error": err.Error(),
		}).Warn("iterative imputation failed, falling back to mean")
		m := build(cols, dropped, allRows(ds.Rows()), meanFilled(cols), Mean)
		m.FellBack = true
		return m, nil
	}
	s.opt.Logger.WithField("rounds", rounds).Debug("iterative imputation converged")
	return build(cols, dropped, allRows(ds.Rows()), values, Iterative), nil
}

func (s ChainedEquations) run(cols []*dataset.Column) (values [][]float64, rounds int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("iterative imputation: %v", r)
		}
	}()
	values = meanFilled(cols)

	var order []int
	scale := 0.0
	for j, c := range cols {
		if c.NullCount() > 0 {
			order = append(order, j)
		}
		for _, v := range c.Values() {
			scale = math.Max(scale, math.Abs(v))
		}
	}
	if len(order) == 0 {
		return values, 0, nil
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cols[order[a]].NullCount() < cols[order[b]].NullCount()
	})

	prev := make([][]float64, len(cols))
	for rounds = 1; rounds <= s.opt.MaxIter; rounds++ {
		for j := range values {
			prev[j] = append(prev[j][:0], values[j]...)
		}
		for _, j := range order {
			if err := regressInto(cols, values, j); err != nil {
				return nil, rounds, fmt.Errorf("round %d column %q: %w", rounds, cols[j].Name, err)
			}
		}
		var change float64
		for _, j := range order {
			for i := range values[j] {
				change = math.Max(change, math.Abs(values[j][i]-prev[j][i]))
			}
		}
		if change < s.opt.Tol*scale {
			break
		}
	}
	if rounds > s.opt.MaxIter {
		rounds = s.opt.MaxIter
	}
	return values, rounds, nil
}

// regressInto fits column j on an intercept plus every other column over the
// rows where j is observed, then overwrites its missing cells with the fit.
func regressInto(cols []*dataset.Column, values [][]float64, j int) error {
	target := cols[j]
	var obs, miss []int
	for i := range target.Valid {
		if target.Valid[i] {
			obs = append(obs, i)
		} else {
			miss = append(miss, i)
		}
	}
	p := len(cols) // intercept + (len(cols)-1) predictors
	design := func(i int, row []float64) {
		row[0] = 1
		k := 1
		for c := range cols {
			if c == j {
				continue
			}
			row[k] = values[c][i]
			k++
		}
	}

	a := mat.NewDense(len(obs), p, nil)
	y := mat.NewVecDense(len(obs), nil)
	for r, i := range obs {
		design(i, a.RawRowView(r))
		y.SetVec(r, values[j][i])
	}

	var gram mat.SymDense
	gram.SymOuterK(1, a.T())
	var diag float64
	for k := 1; k < p; k++ {
		diag += gram.At(k, k)
	}
	lambda := ridgeLambda
	if p > 1 {
		lambda *= 1 + diag/float64(p-1)
	}
	for k := 1; k < p; k++ {
		gram.SetSym(k, k, gram.At(k, k)+lambda)
	}
	var rhs mat.VecDense
	rhs.MulVec(a.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return errNotPositiveDefinite
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return err
	}

	row := make([]float64, p)
	for _, i := range miss {
		design(i, row)
		var pred float64
		for k, x := range row {
			pred += w.AtVec(k) * x
		}
		if math.IsNaN(pred) || math.IsInf(pred, 0) {
			return fmt.Errorf("non-finite estimate for row %d", i)
		}
		values[j][i] = pred
	}
	return nil
}
