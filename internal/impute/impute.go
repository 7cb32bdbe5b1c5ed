// Package impute prepares the numeric matrix consumed by the anomaly model
// and the principal component projection. Three strategies are available:
// row drop, mean fill and iterative chained-equations regression.
package impute

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/logging"
)

// Mode selects an imputation strategy.
type Mode string

const (
	Drop      Mode = "drop"
	Mean      Mode = "mean"
	Iterative Mode = "iterative"
)

// ErrUnknownMode is returned for an unrecognised mode name.
var ErrUnknownMode = errors.New("unknown imputation mode")

// ParseMode accepts drop, mean, iterative and its alias mice.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop", "":
		return Drop, nil
	case "mean":
		return Mean, nil
	case "iterative", "mice":
		return Iterative, nil
	}
	return "", fmt.Errorf("%w: %q (use drop|mean|iterative)", ErrUnknownMode, s)
}

// Matrix is a null-free numeric view of selected dataset columns.
// RowIndex[i] is the original dataset row of matrix row i.
type Matrix struct {
	Columns  []string
	Data     *mat.Dense // nil when the matrix has no rows or no columns
	RowIndex []int
	// Strategy is the strategy that produced Data; it differs from the
	// requested one when iterative imputation fell back to mean.
	Strategy Mode
	FellBack bool
	// Dropped lists requested columns with no observed values.
	Dropped []string
}

// Rows returns the matrix row count.
func (m *Matrix) Rows() int { return len(m.RowIndex) }

// RawRows copies the matrix into row slices.
func (m *Matrix) RawRows() [][]float64 {
	out := make([][]float64, m.Rows())
	for i := range out {
		out[i] = make([]float64, len(m.Columns))
		if m.Data != nil {
			copy(out[i], m.Data.RawRowView(i))
		}
	}
	return out
}

// Strategy turns dataset columns into an imputed Matrix.
type Strategy interface {
	Mode() Mode
	Impute(ds *dataset.Dataset, columns []string) (*Matrix, error)
}

// Options tunes the iterative strategy.
type Options struct {
	MaxIter int     // rounds, default 10
	Tol     float64 // relative change to stop early, default 1e-3
	Logger  logrus.FieldLogger
}

// ForMode returns the strategy for mode.
func ForMode(mode Mode, opt Options) (Strategy, error) {
	switch mode {
	case Drop:
		return DropRows{}, nil
	case Mean:
		return MeanFill{}, nil
	case Iterative:
		if opt.MaxIter <= 0 {
			opt.MaxIter = 10
		}
		if opt.Tol <= 0 {
			opt.Tol = 1e-3
		}
		if opt.Logger == nil {
			opt.Logger = logging.Discard()
		}
		return ChainedEquations{opt: opt}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// selected returns the requested numeric columns that have at least one
// observed value, and the names of those that have none.
func selected(ds *dataset.Dataset, names []string) ([]*dataset.Column, []string, error) {
	var cols []*dataset.Column
	var dropped []string
	for _, n := range names {
		c := ds.Column(n)
		if c == nil {
			return nil, nil, fmt.Errorf("column %q not found", n)
		}
		if c.Type != dataset.Numeric {
			return nil, nil, fmt.Errorf("column %q is %s, not numeric", n, c.Type)
		}
		if c.NullCount() == c.Len() {
			dropped = append(dropped, n)
			continue
		}
		cols = append(cols, c)
	}
	return cols, dropped, nil
}

func build(cols []*dataset.Column, dropped []string, rows []int, values [][]float64, mode Mode) *Matrix {
	m := &Matrix{Columns: make([]string, len(cols)), RowIndex: rows, Strategy: mode, Dropped: dropped}
	for j, c := range cols {
		m.Columns[j] = c.Name
	}
	if len(rows) == 0 || len(cols) == 0 {
		return m
	}
	data := make([]float64, 0, len(rows)*len(cols))
	for i := range rows {
		for j := range cols {
			data = append(data, values[j][i])
		}
	}
	m.Data = mat.NewDense(len(rows), len(cols), data)
	return m
}

// DropRows keeps only rows with every selected column present.
type DropRows struct{}

func (DropRows) Mode() Mode { return Drop }

func (DropRows) Impute(ds *dataset.Dataset, columns []string) (*Matrix, error) {
	cols, dropped, err := selected(ds, columns)
	if err != nil {
		return nil, err
	}
	var rows []int
	for i := 0; i < ds.Rows(); i++ {
		complete := true
		for _, c := range cols {
			if c.IsNull(i) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}
	values := make([][]float64, len(cols))
	for j, c := range cols {
		values[j] = make([]float64, len(rows))
		for k, i := range rows {
			values[j][k] = c.Num[i]
		}
	}
	return build(cols, dropped, rows, values, Drop), nil
}

// MeanFill replaces nulls with the column mean and keeps every row.
type MeanFill struct{}

func (MeanFill) Mode() Mode { return Mean }

func (MeanFill) Impute(ds *dataset.Dataset, columns []string) (*Matrix, error) {
	cols, dropped, err := selected(ds, columns)
	if err != nil {
		return nil, err
	}
	values := meanFilled(cols)
	return build(cols, dropped, allRows(ds.Rows()), values, Mean), nil
}

func meanFilled(cols []*dataset.Column) [][]float64 {
	values := make([][]float64, len(cols))
	for j, c := range cols {
		mean := stat.Mean(c.Values(), nil)
		values[j] = make([]float64, c.Len())
		for i, v := range c.Num {
			if c.Valid[i] {
				values[j][i] = v
			} else {
				values[j][i] = mean
			}
		}
	}
	return values
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
