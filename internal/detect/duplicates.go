package detect

import (
	"context"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/score"
)

// DuplicateReport counts rows identical to an earlier row.
type DuplicateReport struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	// Rows holds the indices of the repeated rows; the first occurrence is
	// not included.
	Rows []int `json:"rows,omitempty"`
}

// Duplicates finds fully duplicated rows. Null cells compare equal.
type Duplicates struct{}

func (Duplicates) Name() string { return "duplicates" }

func (Duplicates) Run(ctx context.Context, in *Input) (*Contribution, error) {
	out := &Contribution{}
	ds := in.Dataset
	rows := ds.Rows()
	seen := make(map[string]struct{}, rows)
	rep := &DuplicateReport{}
	for i := 0; i < rows; i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		key := ds.RowKey(i)
		if _, dup := seen[key]; dup {
			rep.Rows = append(rep.Rows, i)
			continue
		}
		seen[key] = struct{}{}
	}
	rep.Count = len(rep.Rows)
	rep.Percentage = percent(rep.Count, rows)
	out.Stats = rep
	if rep.Count == 0 {
		return out, nil
	}

	pct := rep.Percentage
	out.Deduction.Dimension(score.Uniqueness, math.Min(30, pct*2))
	out.Deduction.Health(math.Min(15, pct))
	sev := score.Medium
	if pct >= 10 {
		sev = score.High
	}
	count := humanize.Comma(int64(rep.Count))
	out.issue(TypeDuplicates, sev, "%s duplicate rows (%.1f%%)", count, pct)
	out.recommend("Remove %s duplicate rows", count)
	return out, nil
}
