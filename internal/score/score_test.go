package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalOnUntouchedAccumulator(t *testing.T) {
	total, dims := NewAccumulator().Final()
	assert.Equal(t, 100.0, total)
	assert.Equal(t, Perfect(), dims)
}

func TestWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, d := range Dimensions {
		sum += Weights[d]
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestApplyClampsAtZero(t *testing.T) {
	acc := NewAccumulator()
	var d Deduction
	d.Health(70)
	d.Health(70)
	d.Dimension(Uniqueness, 30)
	d.Dimension(Uniqueness, 90)
	d.Dimension(Accuracy, -5)
	acc.Apply(&d)

	assert.Equal(t, 0.0, acc.Health())
	assert.Equal(t, 0.0, acc.Dimensions().Uniqueness)
	assert.Equal(t, 100.0, acc.Dimensions().Accuracy)
	assert.Equal(t, 140.0, d.Total(""))
	assert.False(t, d.Empty())
}

func TestFinalBlend(t *testing.T) {
	acc := NewAccumulator()
	var d Deduction
	d.Dimension(Completeness, 6)
	d.Health(10)
	acc.Apply(&d)

	total, dims := acc.Final()
	// weighted = 100 - 0.25*6 = 98.5; 0.6*98.5 + 0.4*90 = 95.1
	assert.Equal(t, 95.1, total)
	assert.Equal(t, 94.0, dims.Completeness)
}

func TestFinalRoundsDimensions(t *testing.T) {
	acc := NewAccumulator()
	var d Deduction
	d.Dimension(Validity, 1.26)
	acc.Apply(&d)
	_, dims := acc.Final()
	assert.Equal(t, 98.7, dims.Validity)
}

func TestGrade(t *testing.T) {
	cases := map[float64]string{100: "A+", 90: "A+", 89.9: "A", 80: "A", 70: "B", 60: "C", 50: "D", 49.9: "F", 0: "F"}
	for s, want := range cases {
		assert.Equal(t, want, Grade(s), "score %v", s)
	}
}
