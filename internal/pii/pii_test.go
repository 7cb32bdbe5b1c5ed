package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
)

func find(r *Report, col string) *Finding {
	for i := range r.Columns {
		if r.Columns[i].Column == col {
			return &r.Columns[i]
		}
	}
	return nil
}

func TestScanValuePatterns(t *testing.T) {
	ds := dataset.MustNew("people",
		dataset.NewText("contact_addr", []string{"a@x.io", "b@y.org", "c@z.com", ""}),
		dataset.NewText("ident", []string{"123-45-6789", "987-65-4321", "111-22-3333", "n/a"}),
		dataset.NewText("host", []string{"10.0.0.1", "192.168.1.20", "8.8.8.8", "localhost"}),
		dataset.NewNumeric("amount", []float64{1, 2, 3, 4}),
	)
	r := Scan(ds)
	assert.Equal(t, 4, r.TotalColumns)

	email := find(r, "contact_addr")
	require.NotNil(t, email)
	assert.Equal(t, "email", email.Type)
	assert.Equal(t, ByData, email.Method)
	assert.InDelta(t, 0.95, email.Confidence, 1e-12)

	ssn := find(r, "ident")
	require.NotNil(t, ssn)
	assert.Equal(t, "ssn", ssn.Type)
	assert.Equal(t, Critical, ssn.Risk)

	ip := find(r, "host")
	require.NotNil(t, ip)
	assert.Equal(t, "ip_address", ip.Type)
	assert.InDelta(t, 0.75, ip.Confidence, 1e-12)

	assert.Nil(t, find(r, "amount"))
	assert.Equal(t, Critical, r.OverallRisk)
	assert.Equal(t, 1, r.RiskSummary[Critical])
	assert.Len(t, r.Recommendations, 3)
}

func TestScanColumnNames(t *testing.T) {
	ds := dataset.MustNew("hr",
		dataset.NewText("First Name", []string{"Ann", "Bo"}),
		dataset.NewNumeric("annual-salary", []float64{1, 2}),
		dataset.NewText("notes", []string{"ok", "fine"}),
	)
	r := Scan(ds)

	name := find(r, "First Name")
	require.NotNil(t, name)
	assert.Equal(t, "name", name.Type)
	assert.Equal(t, ByName, name.Method)
	assert.Equal(t, 0.7, name.Confidence)

	salary := find(r, "annual-salary")
	require.NotNil(t, salary)
	assert.Equal(t, "salary", salary.Type)
	assert.Nil(t, find(r, "notes"))
	assert.Equal(t, High, r.OverallRisk)
}

func TestScanNameAndWeakDataBoostsConfidence(t *testing.T) {
	ds := dataset.MustNew("z",
		dataset.NewText("city_zip", []string{"12345", "54321", "99999-1234", "nope", "00501", "x"}),
	)
	f := find(Scan(ds), "city_zip")
	require.NotNil(t, f)
	assert.Equal(t, "address", f.Type)
	assert.Equal(t, ByNameAndData, f.Method)
	assert.InDelta(t, 0.9, f.Confidence, 1e-12)
}

func TestScanNothingFound(t *testing.T) {
	r := Scan(dataset.MustNew("plain", dataset.NewNumeric("v", []float64{1, 2})))
	assert.Empty(t, r.Columns)
	assert.Equal(t, None, r.OverallRisk)
	require.Len(t, r.Recommendations, 1)
}
