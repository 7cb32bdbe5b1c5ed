package health

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/score"
)

// Deviation is one feature of a row that sits far from its column mean.
type Deviation struct {
	Column       string         `json:"column"`
	Value        float64        `json:"value"`
	TypicalRange string         `json:"typical_range"`
	Severity     score.Severity `json:"severity"`
	ZScore       float64        `json:"z_score"`
}

// Explain lists the features of ds row that are more than two sample
// standard deviations from the column mean, in feature-importance order.
// Features of a result without a model fall back to the numeric columns.
func Explain(ds *dataset.Dataset, res *Result, row int) ([]Deviation, error) {
	if row < 0 || row >= ds.Rows() {
		return nil, fmt.Errorf("row %d out of range [0,%d)", row, ds.Rows())
	}
	var features []string
	switch {
	case len(res.Stats.FeatureImportance) > 0:
		for _, fi := range res.Stats.FeatureImportance {
			features = append(features, fi.Feature)
		}
	case res.Classification != nil:
		features = res.Classification.Numeric
	}

	var out []Deviation
	for _, name := range features {
		col := ds.Column(name)
		if col == nil || col.Type != dataset.Numeric || col.IsNull(row) {
			continue
		}
		vals := col.Values()
		if len(vals) < 2 {
			continue
		}
		mean, std := stat.MeanStdDev(vals, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		v := col.Num[row]
		z := math.Abs(v-mean) / std
		if z <= 2 {
			continue
		}
		sev := score.Medium
		if z > 3 {
			sev = score.High
		}
		out = append(out, Deviation{
			Column:       name,
			Value:        v,
			TypicalRange: fmt.Sprintf("%.1f to %.1f", mean-2*std, mean+2*std),
			Severity:     sev,
			ZScore:       z,
		})
	}
	return out, nil
}
