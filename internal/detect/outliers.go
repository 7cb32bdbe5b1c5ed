package detect

import (
	"context"
	"math"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/score"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/stats"
)

const (
	iqrMultiplier     = 1.5
	outlierMinValues  = 4
	outlierPenaltyPct = 5
)

// OutlierEntry summarises one column's IQR outliers.
type OutlierEntry struct {
	Column     string  `json:"column"`
	Outliers   int     `json:"outliers"`
	Percentage float64 `json:"percentage"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// OutlierReport lists columns with outliers and every flagged row index.
type OutlierReport struct {
	Columns []OutlierEntry `json:"columns"`
	Rows    []int          `json:"rows"`
}

// Outliers flags values outside [Q1-1.5·IQR, Q3+1.5·IQR] per numeric column.
type Outliers struct{}

func (Outliers) Name() string { return "outliers" }

func (Outliers) Run(ctx context.Context, in *Input) (*Contribution, error) {
	out := &Contribution{}
	total := in.Dataset.Rows()
	rep := &OutlierReport{}
	flagged := map[int]struct{}{}

	err := eachNumeric(ctx, in, Outliers{}.Name(), func(col *dataset.Column) {
		vals := col.Values()
		if len(vals) < outlierMinValues {
			return
		}
		sort.Float64s(vals)
		q1, q3 := stats.Quantile(vals, 0.25), stats.Quantile(vals, 0.75)
		iqr := q3 - q1
		if iqr == 0 {
			return
		}
		lo, hi := q1-iqrMultiplier*iqr, q3+iqrMultiplier*iqr
		n := 0
		for i, v := range col.Num {
			if col.Valid[i] && (v < lo || v > hi) {
				n++
				flagged[i] = struct{}{}
			}
		}
		if n == 0 {
			return
		}
		pct := percent(n, total)
		rep.Columns = append(rep.Columns, OutlierEntry{Column: col.Name, Outliers: n, Percentage: pct, LowerBound: lo, UpperBound: hi})
		out.issue(TypeOutliers, score.Medium, "'%s' has %s outliers (%.1f%%)", col.Name, humanize.Comma(int64(n)), pct)
		if pct > outlierPenaltyPct {
			out.Deduction.Dimension(score.Accuracy, math.Min(10, pct))
			out.Deduction.Health(math.Min(5, pct/5))
		}
	})
	if err != nil {
		return nil, err
	}
	if len(rep.Columns) == 0 {
		return out, nil
	}
	rep.Rows = make([]int, 0, len(flagged))
	for i := range flagged {
		rep.Rows = append(rep.Rows, i)
	}
	sort.Ints(rep.Rows)
	out.Stats = rep
	return out, nil
}
