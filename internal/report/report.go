// Package report renders analysis results as a compact markdown document
// or as JSON.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/anomaly"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/health"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/score"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/utils"
)

// Options controls the markdown output.
type Options struct {
	// Dataset enables per-row anomaly explanations.
	Dataset *dataset.Dataset
	// Explain is how many of the strongest anomalies to explain.
	Explain int
	// MaxItems caps long lists; 0 means 20.
	MaxItems int
}

// Markdown renders res with one [SECTION] per populated stats field.
func Markdown(res *health.Result, opt Options) string {
	if opt.MaxItems <= 0 {
		opt.MaxItems = 20
	}
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if res.Dataset != "" {
		fmt.Fprintf(&b, "File: %s\n", res.Dataset)
	}
	fmt.Fprintf(&b, "Rows: %s\n", humanize.Comma(int64(res.Rows)))
	fmt.Fprintf(&b, "Columns: %d\n", res.Columns)
	fmt.Fprintf(&b, "Health Score: %.1f/100 (%s)\n", res.HealthScore, res.Grade)
	if res.Cached {
		b.WriteString("Cached: yes\n")
	}

	b.WriteString("\n[QUALITY DIMENSIONS]\n")
	for _, d := range score.Dimensions {
		fmt.Fprintf(&b, "- %s: %.1f (weight %.2f)\n", d, res.QualityDimensions.Get(d), score.Weights[d])
	}

	if len(res.Issues) > 0 {
		b.WriteString("\n[ISSUES]\n")
		for _, is := range res.Issues {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", is.Severity, is.Type, is.Message)
		}
	}
	if len(res.Recommendations) > 0 {
		b.WriteString("\n[RECOMMENDATIONS]\n")
		for _, r := range res.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	st := res.Stats
	if len(st.Missing) > 0 {
		b.WriteString("\n[MISSING VALUES]\n")
		for _, m := range st.Missing {
			fmt.Fprintf(&b, "- %s: %s missing (%.1f%%)\n", m.Column, humanize.Comma(int64(m.Missing)), m.Percentage)
		}
	}
	if st.Duplicates != nil && st.Duplicates.Count > 0 {
		b.WriteString("\n[DUPLICATES]\n")
		fmt.Fprintf(&b, "- %s duplicate rows (%.1f%%)\n", humanize.Comma(int64(st.Duplicates.Count)), st.Duplicates.Percentage)
	}
	if st.Outliers != nil && len(st.Outliers.Columns) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		for _, o := range st.Outliers.Columns {
			fmt.Fprintf(&b, "- %s: %s outside [%.4g, %.4g] (%.1f%%)\n", o.Column, humanize.Comma(int64(o.Outliers)), o.LowerBound, o.UpperBound, o.Percentage)
		}
	}
	if len(st.Skew) > 0 {
		b.WriteString("\n[SKEWNESS]\n")
		for _, s := range st.Skew {
			fmt.Fprintf(&b, "- %s: %.3f (%s)\n", s.Column, s.Skewness, s.Interpretation)
		}
	}
	if st.Correlation != nil && len(st.Correlation.Pairs) > 0 {
		b.WriteString("\n[HIGH CORRELATION]\n")
		for _, p := range st.Correlation.Pairs {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.Feature1, p.Feature2, p.Correlation)
		}
	}
	if st.Imputation != nil {
		b.WriteString("\n[IMPUTATION]\n")
		fmt.Fprintf(&b, "Strategy: %s", st.Imputation.Used)
		if st.Imputation.FellBack {
			fmt.Fprintf(&b, " (fallback from %s)", st.Imputation.Requested)
		}
		fmt.Fprintf(&b, "\nRows used: %s\n", humanize.Comma(int64(st.Imputation.Rows)))
		if len(st.Imputation.Dropped) > 0 {
			fmt.Fprintf(&b, "Excluded columns: %s\n", strings.Join(st.Imputation.Dropped, ", "))
		}
	}
	if st.Anomalies != nil {
		writeAnomalies(&b, res, opt)
	}
	if len(st.FeatureImportance) > 0 {
		b.WriteString("\n[FEATURE IMPORTANCE]\n")
		for i, fi := range st.FeatureImportance {
			if i == opt.MaxItems {
				break
			}
			fmt.Fprintf(&b, "- %s: %.3f\n", fi.Feature, fi.Importance)
		}
	}
	if p := st.PCA; p != nil {
		b.WriteString("\n[PCA]\n")
		for i, e := range p.Explained {
			fmt.Fprintf(&b, "- PC%d: %.1f%% (cumulative %.1f%%)\n", i+1, e*100, p.Cumulative[i]*100)
		}
		fmt.Fprintf(&b, "2D variance: %.1f%%\n", p.VarianceExplained2D*100)
		fmt.Fprintf(&b, "Components for 90%%: %d, for 95%%: %d\n", p.ComponentsFor(0.9), p.ComponentsFor(0.95))
	}
	if p := st.PII; p != nil && len(p.Columns) > 0 {
		b.WriteString("\n[PII]\n")
		fmt.Fprintf(&b, "Overall risk: %s\n", p.OverallRisk)
		for _, f := range p.Columns {
			fmt.Fprintf(&b, "- %s: %s [%s, %.0f%% via %s] %s\n", f.Column, f.Description, f.Risk, f.Confidence*100, f.Method, f.Recommendation)
		}
	}

	var degraded []health.StageStatus
	for _, s := range res.Stages {
		if s.Status == health.StatusFailed {
			degraded = append(degraded, s)
		}
	}
	if len(degraded) > 0 {
		b.WriteString("\n[FAILED STAGES]\n")
		for _, s := range degraded {
			fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Error)
		}
	}
	return b.String()
}

func writeAnomalies(b *strings.Builder, res *health.Result, opt Options) {
	a := res.Stats.Anomalies
	b.WriteString("\n[AI ANOMALIES]\n")
	fmt.Fprintf(b, "Anomalies: %s (%.1f%% of rows), %d also statistical outliers\n",
		humanize.Comma(int64(len(a.Indices))), a.Percentage, a.AlsoStatistical)

	levels := map[anomaly.Level]int{}
	for _, s := range a.Scores {
		levels[anomaly.Severity(s)]++
	}
	fmt.Fprintf(b, "Severity: %d severe, %d medium, %d low\n", levels[anomaly.Severe], levels[anomaly.Medium], levels[anomaly.Low])

	order := make([]int, len(a.Indices))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool { return a.Scores[order[x]] < a.Scores[order[y]] })
	for n, i := range order {
		if n == opt.MaxItems {
			break
		}
		fmt.Fprintf(b, "- row %d: score %.3f (%s)\n", a.Indices[i], a.Scores[i], anomaly.Severity(a.Scores[i]))
		if opt.Dataset == nil || n >= opt.Explain {
			continue
		}
		devs, err := health.Explain(opt.Dataset, res, a.Indices[i])
		if err != nil {
			continue
		}
		for _, d := range devs {
			fmt.Fprintf(b, "  • %s = %.4g, typical %s, z=%.2f (%s)\n", d.Column, d.Value, d.TypicalRange, d.ZScore, d.Severity)
		}
	}
}

// Summary is the one-line form used by batch runs.
func Summary(res *health.Result) string {
	anomalies := 0
	if res.Stats.Anomalies != nil {
		anomalies = len(res.Stats.Anomalies.Indices)
	}
	return fmt.Sprintf("%s: score %.1f (%s), %s rows, %d issues, %d anomalies",
		res.Dataset, res.HealthScore, res.Grade, humanize.Comma(int64(res.Rows)), len(res.Issues), anomalies)
}

// JSON writes res as indented JSON. The model is omitted unless withModel.
func JSON(w io.Writer, res *health.Result, withModel bool) error {
	out := *res
	if !withModel {
		out.Model = nil
	}
	b, err := utils.PrettyJSON(&out)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
