package health

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/anomaly"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/classify"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/detect"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/impute"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/pca"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/pii"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/score"
)

// Stage names outside the detector battery.
const (
	StageImputation = "imputation"
	StageAnomaly    = "anomaly"
	StagePCA        = "pca"
	StagePII        = "pii"
)

// errSkip marks a stage whose preconditions were not met.
var errSkip = errors.New("skipped")

// run carries the state of one analysis between stages.
type run struct {
	ds     *dataset.Dataset
	cls    *classify.Classification
	opts   Options
	res    *Result
	acc    *score.Accumulator
	matrix *impute.Matrix
	anom   *anomaly.Report
}

// Analyze scores ds. cls must describe ds; use classify.Classify to build
// one. Stage failures are logged and recorded in Result.Stages; the only
// errors returned are an invalid classification, invalid options and
// context cancellation.
func (a *Analyzer) Analyze(ctx context.Context, ds *dataset.Dataset, cls *classify.Classification, opts Options) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: dataset is nil", ErrInvalidClassification)
	}
	if err := cls.Validate(ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClassification, err)
	}
	opts, err := opts.validate()
	if err != nil {
		return nil, err
	}

	start := a.now()
	log := a.log.WithFields(logrus.Fields{"dataset": ds.Name, "rows": ds.Rows(), "columns": len(ds.Columns)})
	log.Info("analysis started")

	key := ""
	if a.cache != nil {
		key = cacheKey(ds, cls, opts)
		if cached := a.lookup(ctx, key); cached != nil {
			cached.ID = uuid.NewString()
			cached.Cached = true
			a.finish(log, cached, start)
			return cached, nil
		}
	}

	res := &Result{
		ID:                uuid.NewString(),
		Dataset:           ds.Name,
		Rows:              ds.Rows(),
		Columns:           len(ds.Columns),
		QualityDimensions: score.Perfect(),
		Classification:    cls,
		Options:           opts,
	}
	switch {
	case len(ds.Columns) == 0:
		empty(res, "Dataset contains no columns")
	case ds.Rows() == 0:
		empty(res, "Dataset contains no rows")
	default:
		r := &run{ds: ds, cls: cls, opts: opts, res: res, acc: score.NewAccumulator()}
		if err := a.pipeline(ctx, r); err != nil {
			return nil, err
		}
		res.HealthScore, res.QualityDimensions = r.acc.Final()
		res.Grade = score.Grade(res.HealthScore)
	}

	if key != "" {
		a.store(ctx, key, res)
	}
	a.finish(log, res, start)
	return res, nil
}

func empty(res *Result, msg string) {
	res.HealthScore = 0
	res.Grade = score.Grade(0)
	res.Issues = []score.Issue{{Type: TypeEmpty, Severity: score.High, Message: msg}}
}

func (a *Analyzer) finish(log logrus.FieldLogger, res *Result, start time.Time) {
	sev := make([]string, len(res.Issues))
	for i, is := range res.Issues {
		sev[i] = string(is.Severity)
	}
	a.metrics.Analysis(res.HealthScore, sev)
	log.WithFields(logrus.Fields{
		"health_score": res.HealthScore,
		"issues":       len(res.Issues),
		"cached":       res.Cached,
		"elapsed":      a.now().Sub(start).String(),
	}).Info("analysis complete")
}

func (a *Analyzer) pipeline(ctx context.Context, r *run) error {
	in := &detect.Input{Dataset: r.ds, Classification: r.cls, Logger: a.log}
	for _, d := range detect.Battery() {
		if err := a.stage(ctx, r, d.Name(), func() error {
			c, err := d.Run(ctx, in)
			if err != nil {
				return err
			}
			r.apply(c)
			return nil
		}); err != nil {
			return err
		}
	}

	stages := []struct {
		name string
		fn   func(context.Context, *run) error
	}{
		{StageImputation, a.imputeStage},
		{StageAnomaly, a.anomalyStage},
		{StagePCA, pcaStage},
		{StagePII, piiStage},
	}
	for _, s := range stages {
		if err := a.stage(ctx, r, s.name, func() error { return s.fn(ctx, r) }); err != nil {
			return err
		}
	}
	return nil
}

// stage runs fn, turning errors and panics into a recorded failure.
// Only context cancellation is returned to the caller.
func (a *Analyzer) stage(ctx context.Context, r *run, name string, fn func() error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := a.now()
	st := StageStatus{Name: name, Status: StatusOK}
	defer func() {
		if p := recover(); p != nil {
			err = nil
			st.Status, st.Error = StatusFailed, fmt.Sprint(p)
			a.log.WithFields(logrus.Fields{"stage": name, "error": st.Error}).Error("stage panicked")
		}
		st.Duration = a.now().Sub(start)
		r.res.Stages = append(r.res.Stages, st)
		a.metrics.Stage(name, st.Status, st.Duration)
	}()

	switch ferr := fn(); {
	case ferr == nil:
	case errors.Is(ferr, errSkip):
		st.Status = StatusSkipped
	case errors.Is(ferr, context.Canceled) || errors.Is(ferr, context.DeadlineExceeded):
		st.Status, st.Error = StatusFailed, ferr.Error()
		return ferr
	default:
		st.Status, st.Error = StatusFailed, ferr.Error()
		a.log.WithFields(logrus.Fields{"stage": name, "error": ferr.Error()}).Error("stage failed")
	}
	return nil
}

// apply folds a detector contribution into the result.
func (r *run) apply(c *detect.Contribution) {
	r.res.Issues = append(r.res.Issues, c.Issues...)
	r.res.Recommendations = append(r.res.Recommendations, c.Recommendations...)
	r.acc.Apply(&c.Deduction)
	switch s := c.Stats.(type) {
	case []detect.MissingEntry:
		r.res.Stats.Missing = s
	case *detect.DuplicateReport:
		r.res.Stats.Duplicates = s
	case *detect.OutlierReport:
		r.res.Stats.Outliers = s
	case []detect.SkewEntry:
		r.res.Stats.Skew = s
	case *detect.CorrelationReport:
		r.res.Stats.Correlation = s
	}
}

func (a *Analyzer) imputeStage(_ context.Context, r *run) error {
	if len(r.cls.Numeric) < MinNumericColsForModel || r.ds.Rows() < MinRowsForModel {
		return errSkip
	}
	s, err := impute.ForMode(r.opts.Imputation, impute.Options{
		MaxIter: r.opts.ImputeMaxIter,
		Tol:     r.opts.ImputeTol,
		Logger:  a.log.WithField("stage", StageImputation),
	})
	if err != nil {
		return err
	}
	m, err := s.Impute(r.ds, r.cls.Numeric)
	if err != nil {
		return err
	}
	r.res.Stats.Imputation = &ImputationInfo{
		Requested: r.opts.Imputation,
		Used:      m.Strategy,
		FellBack:  m.FellBack,
		Rows:      m.Rows(),
		Columns:   m.Columns,
		Dropped:   m.Dropped,
	}
	if m.Rows() < MinRowsForModel || len(m.Columns) < MinNumericColsForModel {
		a.log.WithFields(logrus.Fields{"stage": StageImputation, "rows": m.Rows(), "columns": len(m.Columns)}).
			Debug("imputed matrix too small for the anomaly model")
		return nil
	}
	r.matrix = m
	return nil
}

func (a *Analyzer) anomalyStage(ctx context.Context, r *run) error {
	if r.matrix == nil {
		return errSkip
	}
	f, err := anomaly.Fit(ctx, r.matrix, anomaly.Config{
		Contamination: r.opts.Contamination,
		Trees:         r.opts.Trees,
		MaxSamples:    r.opts.MaxSamples,
		Seed:          r.opts.Seed,
	})
	if err != nil {
		return err
	}
	var outlierRows []int
	if r.res.Stats.Outliers != nil {
		outlierRows = r.res.Stats.Outliers.Rows
	}
	rep, err := f.Detect(r.matrix, outlierRows, r.ds.Rows())
	if err != nil {
		return err
	}
	r.res.Model = f
	r.res.Stats.FeatureImportance = f.FeatureImportance()
	r.anom = rep
	if len(rep.Indices) == 0 {
		return nil
	}
	r.res.Stats.Anomalies = rep

	var d score.Deduction
	d.Dimension(score.Accuracy, math.Min(15, rep.Percentage))
	d.Health(math.Min(10, rep.Percentage))
	r.acc.Apply(&d)
	r.res.Issues = append(r.res.Issues, score.Issue{
		Type:     TypeAnomaly,
		Severity: score.High,
		Message: fmt.Sprintf("AI detected %s anomalies (%s also statistical outliers)",
			humanize.Comma(int64(len(rep.Indices))), humanize.Comma(int64(rep.AlsoStatistical))),
	})
	return nil
}

func pcaStage(_ context.Context, r *run) error {
	if r.matrix == nil {
		return errSkip
	}
	p, err := pca.Fit(r.matrix, pca.DefaultComponents)
	if err != nil {
		return err
	}
	if r.anom != nil {
		p.AnomalyLabels = make([]int, len(r.anom.Predictions))
		for i, l := range r.anom.Predictions {
			p.AnomalyLabels[i] = int(l)
		}
	}
	r.res.Stats.PCA = p
	return nil
}

func piiStage(_ context.Context, r *run) error {
	r.res.Stats.PII = pii.Scan(r.ds)
	return nil
}
