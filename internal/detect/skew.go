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
	skewReportAbove  = 1.0
	skewPenaltyAbove = 2.0
)

// SkewEntry is one row of the skew report.
type SkewEntry struct {
	Column         string  `json:"column"`
	Skewness       float64 `json:"skewness"`
	Interpretation string  `json:"interpretation"`
}

// Skew reports numeric columns whose bias-adjusted sample skewness exceeds 1.
type Skew struct{}

func (Skew) Name() string { return "skewness" }

func (Skew) Run(ctx context.Context, in *Input) (*Contribution, error) {
	out := &Contribution{}
	var report []SkewEntry
	err := eachNumeric(ctx, in, Skew{}.Name(), func(col *dataset.Column) {
		vals := col.Values()
		if len(vals) < 3 {
			return
		}
		s := stat.Skew(vals, nil)
		if !stats.Finite(s) || math.Abs(s) <= skewReportAbove {
			return
		}
		interp := "Right-skewed"
		if s < 0 {
			interp = "Left-skewed"
		}
		report = append(report, SkewEntry{Column: col.Name, Skewness: stats.Round(s, 3), Interpretation: interp})
		if math.Abs(s) > skewPenaltyAbove {
			out.Deduction.Dimension(score.Validity, 5)
			out.Deduction.Health(2)
			out.issue(TypeSkew, score.Low, "'%s' is highly skewed (%.2f) - consider log transform", col.Name, s)
			out.recommend("Apply a log transform to '%s' (skewness %.2f)", col.Name, s)
		}
	})
	if err != nil {
		return nil, err
	}
	if len(report) > 0 {
		out.Stats = report
	}
	return out, nil
}
