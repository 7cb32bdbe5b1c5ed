package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/classify"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/health"
)

func sampleResult(t *testing.T) (*dataset.Dataset, *health.Result) {
	t.Helper()
	n := 40
	x, y := make([]float64, n), make([]float64, n)
	email := make([]string, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i%8) + float64(i)/100
		y[i] = float64((i*3)%8) - float64(i)/200
		email[i] = "user" + string(rune('a'+i%26)) + "@example.com"
	}
	x[n-1], y[n-1] = 100, -100
	x[5] = 0
	ds := dataset.MustNew("sensors.csv",
		dataset.NewNumeric("x", x),
		dataset.NewNumeric("y", y),
		dataset.NewText("email", email),
	)
	cls := &classify.Classification{Numeric: []string{"x", "y"}, Categorical: []string{"email"}}
	res, err := health.New(nil).Analyze(context.Background(), ds, cls, health.DefaultOptions())
	require.NoError(t, err)
	return ds, res
}

func TestMarkdownSections(t *testing.T) {
	ds, res := sampleResult(t)
	md := Markdown(res, Options{Dataset: ds, Explain: 1})

	for _, section := range []string{
		"[DATASET SUMMARY]", "[QUALITY DIMENSIONS]", "[ISSUES]", "[OUTLIERS]",
		"[SKEWNESS]", "[IMPUTATION]", "[AI ANOMALIES]", "[FEATURE IMPORTANCE]", "[PCA]", "[PII]",
	} {
		assert.Contains(t, md, section)
	}
	assert.Contains(t, md, "File: sensors.csv")
	assert.Contains(t, md, "Rows: 40")
	assert.Contains(t, md, "- row 39: score ")
	assert.Contains(t, md, "  • x = 100")
	assert.Contains(t, md, "- email: Email Address [High")
	assert.NotContains(t, md, "[FAILED STAGES]")
	assert.NotContains(t, md, "[MISSING VALUES]")
}

func TestMarkdownWithoutExplanations(t *testing.T) {
	_, res := sampleResult(t)
	md := Markdown(res, Options{})
	assert.NotContains(t, md, "  • ")
}

func TestMarkdownShowsFailedStages(t *testing.T) {
	res := &health.Result{
		Dataset: "broken.csv",
		Stages:  []health.StageStatus{{Name: "pca", Status: health.StatusFailed, Error: "matrix has no variance"}},
	}
	md := Markdown(res, Options{})
	assert.Contains(t, md, "[FAILED STAGES]\n- pca: matrix has no variance")
}

func TestJSONOmitsModelByDefault(t *testing.T) {
	_, res := sampleResult(t)
	require.NotNil(t, res.Model)

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, res, false))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.NotContains(t, decoded, "model")
	assert.Contains(t, decoded, "health_score")
	assert.NotNil(t, res.Model, "caller's result must keep its model")

	buf.Reset()
	require.NoError(t, JSON(&buf, res, true))
	assert.True(t, strings.Contains(buf.String(), `"model"`))
}

func TestSummary(t *testing.T) {
	_, res := sampleResult(t)
	s := Summary(res)
	assert.True(t, strings.HasPrefix(s, "sensors.csv: score "))
	assert.Contains(t, s, "40 rows")
}
