package health

import (
	"time"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/anomaly"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/classify"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/detect"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/impute"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/pca"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/pii"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/score"
)

// Issue types raised by the pipeline itself.
const (
	TypeEmpty   = "Empty Dataset"
	TypeAnomaly = "AI Anomaly Detection"
)

// Stage statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// StageStatus records how one stage ended. Failed stages contribute
// nothing to the score.
type StageStatus struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Result is the outcome of one analysis.
type Result struct {
	ID                string                   `json:"id"`
	Dataset           string                   `json:"dataset"`
	Rows              int                      `json:"rows"`
	Columns           int                      `json:"columns"`
	HealthScore       float64                  `json:"health_score"`
	Grade             string                   `json:"grade"`
	QualityDimensions score.QualityDimensions  `json:"quality_dimensions"`
	Issues            []score.Issue            `json:"issues"`
	Recommendations   []string                 `json:"recommendations"`
	Stats             Stats                    `json:"stats"`
	Classification    *classify.Classification `json:"classification,omitempty"`
	Model             *anomaly.Forest          `json:"model,omitempty"`
	Stages            []StageStatus            `json:"stages"`
	Options           Options                  `json:"options"`
	Cached            bool                     `json:"cached,omitempty"`
}

// Stats holds per-stage reports. Every field is optional.
type Stats struct {
	Missing           []detect.MissingEntry       `json:"missing,omitempty"`
	Duplicates        *detect.DuplicateReport     `json:"duplicates,omitempty"`
	Outliers          *detect.OutlierReport       `json:"outliers,omitempty"`
	Skew              []detect.SkewEntry          `json:"skew,omitempty"`
	Correlation       *detect.CorrelationReport   `json:"correlation,omitempty"`
	Imputation        *ImputationInfo             `json:"imputation,omitempty"`
	Anomalies         *anomaly.Report             `json:"anomalies,omitempty"`
	FeatureImportance []anomaly.FeatureImportance `json:"feature_importance,omitempty"`
	PCA               *pca.Projection             `json:"pca,omitempty"`
	PII               *pii.Report                 `json:"pii,omitempty"`
}

// ImputationInfo describes the matrix shared by the model stages.
type ImputationInfo struct {
	Requested impute.Mode `json:"requested"`
	Used      impute.Mode `json:"used"`
	FellBack  bool        `json:"fell_back,omitempty"`
	Rows      int         `json:"rows"`
	Columns   []string    `json:"columns"`
	Dropped   []string    `json:"dropped,omitempty"`
}

// Stage returns the named stage status.
func (r *Result) Stage(name string) (StageStatus, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageStatus{}, false
}

// HasIssue reports whether an issue of the given type was raised.
func (r *Result) HasIssue(typ string) bool {
	for _, i := range r.Issues {
		if i.Type == typ {
			return true
		}
	}
	return false
}
