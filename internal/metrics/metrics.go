// Package metrics records pipeline telemetry on a private prometheus
// registry. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "csvhealth"

// Recorder owns the registry and its collectors.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	stageSkipped  *prometheus.CounterVec
	analyses      prometheus.Counter
	healthScore   prometheus.Gauge
	issues        *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

// New builds a Recorder with all collectors registered.
func New() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each analysis stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Stages that failed and contributed nothing.",
		}, []string{"stage"}),
		stageSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_skipped_total",
			Help:      "Stages skipped because their preconditions were not met.",
		}, []string{"stage"}),
		analyses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analyses, cached or not.",
		}),
		healthScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_score",
			Help:      "Health score of the most recent analysis.",
		}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_total",
			Help:      "Issues emitted by severity.",
		}, []string{"severity"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{
		r.stageDuration, r.stageFailures, r.stageSkipped,
		r.analyses, r.healthScore, r.issues, r.cacheLookups,
	} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Stage records the outcome of one stage. status is ok, skipped or failed.
func (r *Recorder) Stage(stage, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	switch status {
	case "failed":
		r.stageFailures.WithLabelValues(stage).Inc()
	case "skipped":
		r.stageSkipped.WithLabelValues(stage).Inc()
	}
}

// Analysis records a finished analysis.
func (r *Recorder) Analysis(score float64, severities []string) {
	if r == nil {
		return
	}
	r.analyses.Inc()
	r.healthScore.Set(score)
	for _, s := range severities {
		r.issues.WithLabelValues(s).Inc()
	}
}

// CacheLookup records a lookup: hit, miss or error.
func (r *Recorder) CacheLookup(result string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// WriteTextfile writes the registry in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
