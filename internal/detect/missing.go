package detect

import (
	"context"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/score"
)

const (
	missingHighPct   = 50
	missingMediumPct = 30
	missingLowPct    = 10
)

// MissingEntry is one row of the missing-value report.
type MissingEntry struct {
	Column     string  `json:"column"`
	Missing    int     `json:"missing"`
	Percentage float64 `json:"percentage"`
}

// Missing reports null cells per column and deducts completeness.
type Missing struct{}

func (Missing) Name() string { return "missing_values" }

func (Missing) Run(ctx context.Context, in *Input) (*Contribution, error) {
	out := &Contribution{}
	rows := in.Dataset.Rows()
	var report []MissingEntry
	for _, col := range in.Dataset.Columns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := col.NullCount()
		if n == 0 {
			continue
		}
		pct := percent(n, rows)
		report = append(report, MissingEntry{Column: col.Name, Missing: n, Percentage: pct})
		out.Deduction.Dimension(score.Completeness, math.Min(10, pct/10))

		var sev score.Severity
		switch {
		case pct > missingHighPct:
			sev = score.High
			out.Deduction.Health(math.Min(10, pct/10))
		case pct > missingMediumPct:
			sev = score.Medium
			out.Deduction.Health(math.Min(5, pct/20))
		default:
			sev = score.Low
			out.Deduction.Health(math.Min(2, pct/50))
		}
		out.issue(TypeMissing, sev, "'%s': %.1f%% missing (%s values)", col.Name, pct, humanize.Comma(int64(n)))

		switch {
		case pct > missingHighPct:
			out.recommend("Consider dropping '%s' (>%d%% missing)", col.Name, missingHighPct)
		case pct > missingLowPct:
			out.recommend("Impute missing values in '%s' using iterative imputation", col.Name)
		}
	}
	if len(report) > 0 {
		out.Stats = report
	}
	return out, nil
}
