// Package score folds detector deductions into the raw health score and the
// five quality dimensions, and blends them into the final health score.
package score

import (
	"math"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/stats"
)

// Dimension names one quality sub-score.
type Dimension string

const (
	Completeness Dimension = "completeness"
	Consistency  Dimension = "consistency"
	Accuracy     Dimension = "accuracy"
	Validity     Dimension = "validity"
	Uniqueness   Dimension = "uniqueness"
)

// Dimensions lists every dimension in reporting order.
var Dimensions = []Dimension{Completeness, Consistency, Accuracy, Validity, Uniqueness}

// Weights are the fixed dimension weights of the blended score; they sum to 1.
var Weights = map[Dimension]float64{
	Completeness: 0.25,
	Consistency:  0.20,
	Accuracy:     0.25,
	Validity:     0.15,
	Uniqueness:   0.15,
}

const (
	dimensionShare = 0.6
	healthShare    = 0.4
)

// Severity of an Issue.
type Severity string

const (
	Low    Severity = "Low"
	Medium Severity = "Medium"
	High   Severity = "High"
)

// Issue is one discrete finding.
type Issue struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Deduction is a stage's requested reduction of the raw health score and of
// individual dimensions. Each queued step is applied and clamped on its own.
type Deduction struct {
	steps []step
}

type step struct {
	dim    Dimension // empty for the raw health score
	amount float64
}

// Health queues a deduction from the raw health score.
func (d *Deduction) Health(amount float64) {
	d.steps = append(d.steps, step{amount: amount})
}

// Dimension queues a deduction from one quality dimension.
func (d *Deduction) Dimension(dim Dimension, amount float64) {
	d.steps = append(d.steps, step{dim: dim, amount: amount})
}

// Empty reports whether no deductions were queued.
func (d *Deduction) Empty() bool { return d == nil || len(d.steps) == 0 }

// Total returns the summed queued amount for the raw health score (dim "")
// or for one dimension, ignoring clamping.
func (d *Deduction) Total(dim Dimension) float64 {
	if d == nil {
		return 0
	}
	var sum float64
	for _, s := range d.steps {
		if s.dim == dim {
			sum += s.amount
		}
	}
	return sum
}

// QualityDimensions are the five sub-scores, each in [0,100].
type QualityDimensions struct {
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Accuracy     float64 `json:"accuracy"`
	Validity     float64 `json:"validity"`
	Uniqueness   float64 `json:"uniqueness"`
}

// Get returns the value of one dimension.
func (q QualityDimensions) Get(d Dimension) float64 {
	switch d {
	case Completeness:
		return q.Completeness
	case Consistency:
		return q.Consistency
	case Accuracy:
		return q.Accuracy
	case Validity:
		return q.Validity
	case Uniqueness:
		return q.Uniqueness
	}
	return 0
}

func (q *QualityDimensions) set(d Dimension, v float64) {
	switch d {
	case Completeness:
		q.Completeness = v
	case Consistency:
		q.Consistency = v
	case Accuracy:
		q.Accuracy = v
	case Validity:
		q.Validity = v
	case Uniqueness:
		q.Uniqueness = v
	}
}

// Perfect returns all dimensions at 100.
func Perfect() QualityDimensions {
	return QualityDimensions{100, 100, 100, 100, 100}
}

// Accumulator carries the raw health score and the dimensions through a run.
// Values start at 100, never increase and never drop below 0.
type Accumulator struct {
	health float64
	dims   QualityDimensions
}

// NewAccumulator starts every track at 100.
func NewAccumulator() *Accumulator {
	return &Accumulator{health: 100, dims: Perfect()}
}

// Apply folds a deduction in. Negative amounts are ignored.
func (a *Accumulator) Apply(d *Deduction) {
	if d == nil {
		return
	}
	for _, s := range d.steps {
		if !(s.amount > 0) {
			continue
		}
		if s.dim == "" {
			a.health = math.Max(0, a.health-s.amount)
			continue
		}
		a.dims.set(s.dim, math.Max(0, a.dims.Get(s.dim)-s.amount))
	}
}

// Health returns the current raw health score.
func (a *Accumulator) Health() float64 { return a.health }

// Dimensions returns the current, unrounded dimensions.
func (a *Accumulator) Dimensions() QualityDimensions { return a.dims }

// Final blends 60% of the weighted dimension average with 40% of the raw
// health score, clamps to [0,100] and rounds to one decimal. Dimensions are
// rounded independently.
func (a *Accumulator) Final() (float64, QualityDimensions) {
	var weighted float64
	for _, d := range Dimensions {
		weighted += a.dims.Get(d) * Weights[d]
	}
	total := stats.Round(dimensionShare*weighted+healthShare*a.health, 1)
	total = math.Max(0, math.Min(100, total))
	var out QualityDimensions
	for _, d := range Dimensions {
		out.set(d, stats.Round(a.dims.Get(d), 1))
	}
	return total, out
}

// Grade maps a health score to a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}
