// Package detect implements the fixed battery of statistical data-quality
// checks. Each detector reads the dataset and its classification and returns
// its findings and deductions without touching shared state.
package detect

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/classify"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/logging"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/score"
)

// Issue type tags.
const (
	TypeMissing     = "Missing Data"
	TypeDuplicates  = "Duplicates"
	TypeOutliers    = "Statistical Outliers"
	TypeSkew        = "High Skewness"
	TypeCorrelation = "High Correlation"
)

// Input is what every detector reads.
type Input struct {
	Dataset        *dataset.Dataset
	Classification *classify.Classification
	// Logger receives per-column failures; nil discards them.
	Logger logrus.FieldLogger
}

// Contribution is a detector's output: issues, recommendations, the
// deductions to fold into the score, and a detector-specific report.
type Contribution struct {
	Issues          []score.Issue
	Recommendations []string
	Deduction       score.Deduction
	Stats           any
}

func (c *Contribution) issue(typ string, sev score.Severity, format string, args ...any) {
	c.Issues = append(c.Issues, score.Issue{Type: typ, Severity: sev, Message: fmt.Sprintf(format, args...)})
}

func (c *Contribution) recommend(format string, args ...any) {
	c.Recommendations = append(c.Recommendations, fmt.Sprintf(format, args...))
}

// Detector is one independent check.
type Detector interface {
	Name() string
	Run(ctx context.Context, in *Input) (*Contribution, error)
}

// Battery returns the detectors in execution order.
func Battery() []Detector {
	return []Detector{Missing{}, Duplicates{}, Outliers{}, Skew{}, Correlation{}}
}

// eachNumeric calls fn for every numeric column, isolating panics per column
// so that one bad column does not discard the others.
func eachNumeric(ctx context.Context, in *Input, detector string, fn func(col *dataset.Column)) error {
	for _, name := range in.Classification.Numeric {
		if err := ctx.Err(); err != nil {
			return err
		}
		col := in.Dataset.Column(name)
		if col == nil || col.Type != dataset.Numeric {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger(in).WithFields(logrus.Fields{
						"stage":  detector,
						"column": name,
						"error":  fmt.Sprint(r),
					}).Error("column analysis failed")
				}
			}()
			fn(col)
		}()
	}
	return nil
}

func logger(in *Input) logrus.FieldLogger {
	if in.Logger != nil {
		return in.Logger
	}
	return logging.Discard()
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
