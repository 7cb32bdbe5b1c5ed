package classify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
)

func seq(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestClassifyAssignsEveryColumnOnce(t *testing.T) {
	n := 60
	dates := make([]string, n)
	cities := make([]string, n)
	for i := range dates {
		dates[i] = fmt.Sprintf("2024-01-%02d", i%28+1)
		cities[i] = []string{"Paris", "Lyon", "Nice"}[i%3]
	}
	dates[5] = "not a date"
	flags := make([]bool, n)
	ds := dataset.MustNew("t",
		dataset.NewNumeric("id", seq(n, func(i int) float64 { return float64(i) })),
		dataset.NewNumeric("amount", seq(n, func(i int) float64 { return float64(i % 7) })),
		dataset.NewText("created", dates),
		dataset.NewText("city", cities),
		dataset.NewBool("flag", flags),
	)

	cls, out := Classify(ds)
	assert.Equal(t, []string{"amount"}, cls.Numeric)
	assert.Equal(t, []string{"id"}, cls.Identifier)
	assert.Equal(t, []string{"created"}, cls.Datetime)
	assert.Equal(t, []string{"city", "flag"}, cls.Categorical)
	require.NoError(t, cls.Validate(out))

	created := out.Column("created")
	require.Equal(t, dataset.Datetime, created.Type)
	assert.True(t, created.IsNull(5), "unparseable date becomes null")
	assert.Equal(t, 2024, created.Time[0].Year())
	assert.Equal(t, dataset.Text, ds.Column("created").Type, "input must not be modified")

	k, ok := cls.KindOf("id")
	assert.True(t, ok)
	assert.Equal(t, Identifier, k)
}

func TestClassifyBoolColumnsAreCategorical(t *testing.T) {
	ds := dataset.MustNew("b",
		dataset.NewBool("active", []bool{true, false, true, true}),
		dataset.NewNumeric("n", []float64{1, 2, 3, 4}),
	)
	cls, _ := Classify(ds)
	assert.Equal(t, []string{"active"}, cls.Categorical)
	assert.Equal(t, []string{"n"}, cls.Numeric)
	k, ok := cls.KindOf("active")
	require.True(t, ok)
	assert.Equal(t, Categorical, k)
}

func TestClassifyIdentifierNeedsMoreThanFiftyRows(t *testing.T) {
	ds := dataset.MustNew("small", dataset.NewNumeric("id", seq(50, func(i int) float64 { return float64(i) })))
	cls, _ := Classify(ds)
	assert.Equal(t, []string{"id"}, cls.Numeric)
	assert.Empty(t, cls.Identifier)
}

func TestClassifyUSDatesNeedEightyPercent(t *testing.T) {
	vals := []string{"01/02/2024", "03/04/2024", "05/06/2024", "x", "y", "z", "07/08/2024", "09/10/2024", "11/12/2024", "01/01/2025"}
	cls, _ := Classify(dataset.MustNew("d", dataset.NewText("d", vals)))
	assert.Equal(t, []string{"d"}, cls.Categorical, "7/10 matches stays categorical")

	vals[3], vals[4] = "02/02/2024", "03/03/2024"
	cls, out := Classify(dataset.MustNew("d", dataset.NewText("d", vals)))
	assert.Equal(t, []string{"d"}, cls.Datetime)
	assert.Equal(t, 1, out.Column("d").NullCount())
}

func TestValidateRejectsMalformedClassification(t *testing.T) {
	ds := dataset.MustNew("v", dataset.NewText("s", []string{"a"}), dataset.NewNumeric("n", []float64{1}))
	assert.Error(t, (&Classification{Numeric: []string{"missing"}}).Validate(ds))
	assert.Error(t, (&Classification{Numeric: []string{"s"}}).Validate(ds))
	assert.Error(t, (&Classification{Numeric: []string{"n"}, Identifier: []string{"n"}}).Validate(ds))
	assert.NoError(t, (&Classification{Numeric: []string{"n"}, Categorical: []string{"s"}}).Validate(ds))
}
