package anomaly

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/impute"
)

func matrixOf(rows [][]float64, names ...string) *impute.Matrix {
	d := mat.NewDense(len(rows), len(names), nil)
	idx := make([]int, len(rows))
	for i, r := range rows {
		d.SetRow(i, r)
		idx[i] = i
	}
	return &impute.Matrix{Columns: names, Data: d, RowIndex: idx, Strategy: impute.Drop}
}

// clusterWithOutliers returns 200 points around the origin followed by two
// far points at rows 200 and 201.
func clusterWithOutliers() [][]float64 {
	rng := rand.New(rand.NewSource(7))
	rows := make([][]float64, 0, 202)
	for i := 0; i < 200; i++ {
		rows = append(rows, []float64{rng.NormFloat64(), rng.NormFloat64()})
	}
	return append(rows, []float64{40, 40}, []float64{-35, 45})
}

func TestFitFlagsIsolatedPoints(t *testing.T) {
	m := matrixOf(clusterWithOutliers(), "x", "y")
	cfg := DefaultConfig()
	cfg.Contamination = 0.02
	f, err := Fit(context.Background(), m, cfg)
	require.NoError(t, err)

	rep, err := f.Detect(m, []int{200}, 202)
	require.NoError(t, err)
	assert.Contains(t, rep.Indices, 200)
	assert.Contains(t, rep.Indices, 201)
	assert.Equal(t, 1, rep.AlsoStatistical)
	assert.Len(t, rep.AllScores, 202)
	assert.Len(t, rep.Scores, len(rep.Indices))
	assert.InDelta(t, float64(len(rep.Indices))/202*100, rep.Percentage, 1e-9)

	sorted := append([]float64(nil), rep.AllScores...)
	sort.Float64s(sorted)
	lowest := map[float64]bool{sorted[0]: true, sorted[1]: true}
	assert.True(t, lowest[rep.AllScores[200]])
	assert.True(t, lowest[rep.AllScores[201]])
	for _, s := range rep.AllScores {
		assert.True(t, s < 0 && s >= -1, "score %v out of range", s)
	}
}

func TestFitIsDeterministicAcrossWorkerCounts(t *testing.T) {
	m := matrixOf(clusterWithOutliers(), "x", "y")
	cfg := DefaultConfig()
	cfg.Workers = 1
	a, err := Fit(context.Background(), m, cfg)
	require.NoError(t, err)
	cfg.Workers = 8
	b, err := Fit(context.Background(), m, cfg)
	require.NoError(t, err)

	sa, err := a.Score(m.RawRows())
	require.NoError(t, err)
	sb, err := b.Score(m.RawRows())
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
	assert.Equal(t, a.Offset, b.Offset)

	cfg.Seed = 43
	c, err := Fit(context.Background(), m, cfg)
	require.NoError(t, err)
	sc, _ := c.Score(m.RawRows())
	assert.NotEqual(t, sa, sc)
}

func TestSampleSizeAndHeightLimit(t *testing.T) {
	m := matrixOf(clusterWithOutliers(), "x", "y")
	cfg := DefaultConfig()
	cfg.MaxSamples = 16
	cfg.Trees = 10
	f, err := Fit(context.Background(), m, cfg)
	require.NoError(t, err)
	assert.Equal(t, 16, f.SampleSize)

	small := matrixOf(clusterWithOutliers()[:12], "x", "y")
	g, err := Fit(context.Background(), small, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 12, g.SampleSize)
	for _, tr := range g.Trees {
		assert.Equal(t, 12, tr.Nodes[0].Size)
		assert.LessOrEqual(t, depth(tr, 0), 4)
	}
}

func depth(t Tree, id int) int {
	n := t.Nodes[id]
	if n.Feature < 0 {
		return 0
	}
	l, r := depth(t, n.Left), depth(t, n.Right)
	if l > r {
		return l + 1
	}
	return r + 1
}

func TestConstantFeatureNeverSplit(t *testing.T) {
	rows := clusterWithOutliers()
	for _, r := range rows {
		r[1] = 3
	}
	m := matrixOf(rows, "x", "flat")
	f, err := Fit(context.Background(), m, DefaultConfig())
	require.NoError(t, err)

	imp := f.FeatureImportance()
	require.Len(t, imp, 2)
	assert.Equal(t, "x", imp[0].Feature)
	assert.InDelta(t, 1.0, imp[0].Importance, 1e-12)
	assert.Equal(t, "flat", imp[1].Feature)
	assert.Zero(t, imp[1].Importance)
}

func TestFeatureImportanceSumsToOne(t *testing.T) {
	f, err := Fit(context.Background(), matrixOf(clusterWithOutliers(), "x", "y"), DefaultConfig())
	require.NoError(t, err)
	imp := f.FeatureImportance()
	var sum float64
	for _, fi := range imp {
		sum += fi.Importance
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.GreaterOrEqual(t, imp[0].Importance, imp[1].Importance)
}

func TestSaveLoadPreservesPredictions(t *testing.T) {
	m := matrixOf(clusterWithOutliers(), "x", "y")
	f, err := Fit(context.Background(), m, DefaultConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Save(&buf))
	g, err := Load(&buf)
	require.NoError(t, err)

	want, _ := f.Predict(m.RawRows())
	got, err := g.Predict(m.RawRows())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, f.Features, g.Features)

	_, err = Load(bytes.NewBufferString(`{"features":["a"],"trees":[{"nodes":[{"f":3,"n":2}]}]}`))
	assert.Error(t, err)
	_, err = Load(bytes.NewBufferString(`{}`))
	assert.Error(t, err)
}

func TestLoadRejectsBackwardChildLinks(t *testing.T) {
	for name, body := range map[string]string{
		"self":     `{"features":["a"],"trees":[{"nodes":[{"f":0,"l":1,"r":2},{"f":0,"l":1,"r":2},{"f":-1,"n":1}]}]}`,
		"backward": `{"features":["a"],"trees":[{"nodes":[{"f":0,"l":1,"r":3},{"f":0,"l":2,"r":3},{"f":0,"l":1,"r":3},{"f":-1,"n":1}]}]}`,
	} {
		_, err := Load(bytes.NewBufferString(body))
		assert.Error(t, err, name)
	}

	ok := `{"features":["a"],"trees":[{"nodes":[{"f":0,"t":0.5,"l":1,"r":2,"n":2},{"f":-1,"n":1},{"f":-1,"n":1}]}]}`
	f, err := Load(bytes.NewBufferString(ok))
	require.NoError(t, err)
	scores, err := f.Score([][]float64{{0}, {1}})
	require.NoError(t, err)
	assert.Len(t, scores, 2)
}

func TestFitErrors(t *testing.T) {
	ctx := context.Background()
	_, err := Fit(ctx, matrixOf([][]float64{{1, 2}}, "a", "b"), DefaultConfig())
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = Fit(ctx, &impute.Matrix{}, DefaultConfig())
	assert.ErrorIs(t, err, ErrInsufficientData)

	cfg := DefaultConfig()
	cfg.Contamination = 0
	_, err = Fit(ctx, matrixOf(clusterWithOutliers(), "x", "y"), cfg)
	assert.ErrorIs(t, err, ErrContamination)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Fit(cancelled, matrixOf(clusterWithOutliers(), "x", "y"), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)

	f, err := Fit(ctx, matrixOf(clusterWithOutliers(), "x", "y"), DefaultConfig())
	require.NoError(t, err)
	_, err = f.Score([][]float64{{1}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestAveragePathLength(t *testing.T) {
	assert.Zero(t, averagePathLength(0))
	assert.Zero(t, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	assert.InDelta(t, 1.2073924, averagePathLength(3), 1e-6)
	assert.InDelta(t, 10.2447709, averagePathLength(256), 1e-6)
	assert.False(t, math.IsNaN(averagePathLength(10)))
}

func TestSensitivityAndSeverity(t *testing.T) {
	for level, want := range map[string]float64{"low": 0.02, "Medium": 0.05, "high": 0.10} {
		got, err := Sensitivity(level)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := Sensitivity("extreme")
	assert.Error(t, err)

	assert.Equal(t, Severe, Severity(-0.62))
	assert.Equal(t, Medium, Severity(-0.41))
	assert.Equal(t, Low, Severity(-0.3))
}
