// Package health runs the full data-health analysis: classification
// checks, the detector battery, imputation, the anomaly model, the
// principal component projection and the final score blend.
package health

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/anomaly"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/cache"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/impute"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/logging"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/metrics"
)

var (
	// ErrInvalidClassification reports a classification that does not fit the dataset.
	ErrInvalidClassification = errors.New("invalid column classification")
	// ErrInvalidOptions reports out-of-range analysis options.
	ErrInvalidOptions = errors.New("invalid analysis options")
)

// Thresholds for the model stages.
const (
	MinRowsForModel        = 10
	MinNumericColsForModel = 2
)

// Options tunes one analysis.
type Options struct {
	Contamination float64     `json:"contamination"`
	Imputation    impute.Mode `json:"imputation"`
	Seed          int64       `json:"seed"`
	Trees         int         `json:"trees"`
	MaxSamples    int         `json:"max_samples"`
	ImputeMaxIter int         `json:"impute_max_iter"`
	ImputeTol     float64     `json:"impute_tol"`
}

// DefaultOptions is medium sensitivity with row-drop imputation.
func DefaultOptions() Options {
	d := anomaly.DefaultConfig()
	return Options{
		Contamination: d.Contamination,
		Imputation:    impute.Drop,
		Seed:          d.Seed,
		Trees:         d.Trees,
		MaxSamples:    d.MaxSamples,
		ImputeMaxIter: 10,
		ImputeTol:     1e-3,
	}
}

func (o Options) validate() (Options, error) {
	if !(o.Contamination > 0 && o.Contamination <= 0.5) {
		return o, fmt.Errorf("%w: contamination %v not in (0, 0.5]", ErrInvalidOptions, o.Contamination)
	}
	mode, err := impute.ParseMode(string(o.Imputation))
	if err != nil {
		return o, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	o.Imputation = mode
	d := DefaultOptions()
	if o.Trees <= 0 {
		o.Trees = d.Trees
	}
	if o.MaxSamples <= 0 {
		o.MaxSamples = d.MaxSamples
	}
	if o.ImputeMaxIter <= 0 {
		o.ImputeMaxIter = d.ImputeMaxIter
	}
	if o.ImputeTol <= 0 {
		o.ImputeTol = d.ImputeTol
	}
	return o, nil
}

// Analyzer runs analyses. It holds no per-analysis state and is safe for
// concurrent use when its cache is.
type Analyzer struct {
	log      logrus.FieldLogger
	cache    cache.Store
	cacheTTL time.Duration
	metrics  *metrics.Recorder
	now      func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache memoizes results in store for ttl (zero keeps them forever).
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(a *Analyzer) {
		a.cache = store
		a.cacheTTL = ttl
	}
}

// WithMetrics records stage and result telemetry.
func WithMetrics(r *metrics.Recorder) Option {
	return func(a *Analyzer) { a.metrics = r }
}

// New returns an Analyzer. A nil logger discards output.
func New(logger logrus.FieldLogger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &Analyzer{log: logger, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}
