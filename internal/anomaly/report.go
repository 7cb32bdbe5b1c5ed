package anomaly

import "github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/impute"

// Report describes the anomalies found in the training matrix. Indices
// and Scores refer to original dataset rows in ascending order.
type Report struct {
	Indices         []int     `json:"indices"`
	Scores          []float64 `json:"scores"`
	AllScores       []float64 `json:"all_scores"`
	Predictions     []Label   `json:"predictions"`
	AlsoStatistical int       `json:"also_statistical"`
	// Percentage is relative to the dataset row count, not the matrix.
	Percentage float64 `json:"percentage"`
}

// Detect scores m, maps anomalous matrix rows back to dataset rows and
// counts how many of them are also in the statistical outlier set.
func (f *Forest) Detect(m *impute.Matrix, outlierRows []int, totalRows int) (*Report, error) {
	scores, err := f.Score(m.RawRows())
	if err != nil {
		return nil, err
	}
	labels := f.labels(scores)

	outliers := make(map[int]struct{}, len(outlierRows))
	for _, r := range outlierRows {
		outliers[r] = struct{}{}
	}
	rep := &Report{AllScores: scores, Predictions: labels}
	for i, l := range labels {
		if l != Anomaly {
			continue
		}
		row := m.RowIndex[i]
		rep.Indices = append(rep.Indices, row)
		rep.Scores = append(rep.Scores, scores[i])
		if _, ok := outliers[row]; ok {
			rep.AlsoStatistical++
		}
	}
	if totalRows > 0 {
		rep.Percentage = float64(len(rep.Indices)) / float64(totalRows) * 100
	}
	return rep, nil
}
