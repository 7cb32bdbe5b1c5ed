package anomaly

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/impute"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/stats"
)

const eulerGamma = 0.5772156649015329

// Node is one tree node. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Size      int     `json:"n"`
}

// Tree is a flattened isolation tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is a trained isolation forest. It is safe for concurrent scoring.
type Forest struct {
	Features      []string `json:"features"`
	Trees         []Tree   `json:"trees"`
	SampleSize    int      `json:"sample_size"`
	Offset        float64  `json:"offset"`
	Contamination float64  `json:"contamination"`
	Seed          int64    `json:"seed"`
}

// Fit trains a forest on m. Trees are built in parallel; each tree owns an
// RNG seeded with cfg.Seed plus its index so the result does not depend on
// scheduling.
func Fit(ctx context.Context, m *impute.Matrix, cfg Config) (*Forest, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if m == nil || m.Data == nil || m.Rows() < 2 || len(m.Columns) == 0 {
		return nil, ErrInsufficientData
	}
	rows := m.RawRows()
	psi := cfg.MaxSamples
	if psi > len(rows) {
		psi = len(rows)
	}
	limit := int(math.Ceil(math.Log2(float64(psi))))

	trees := make([]Tree, cfg.Trees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			b := &builder{rows: rows, width: len(m.Columns), rng: rng, limit: limit}
			b.grow(rng.Perm(len(rows))[:psi], 0)
			trees[i] = Tree{Nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f := &Forest{
		Features:      append([]string(nil), m.Columns...),
		Trees:         trees,
		SampleSize:    psi,
		Contamination: cfg.Contamination,
		Seed:          cfg.Seed,
	}
	scores, err := f.Score(rows)
	if err != nil {
		return nil, err
	}
	f.Offset = stats.Percentile(scores, 100*cfg.Contamination)
	return f, nil
}

type builder struct {
	rows  [][]float64
	width int
	rng   *rand.Rand
	limit int
	nodes []Node
}

// grow appends the subtree for idx and returns its node id. idx is
// partitioned in place.
func (b *builder) grow(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Size: len(idx)})
	if depth >= b.limit || len(idx) <= 1 {
		return id
	}

	type span struct {
		feature int
		lo, hi  float64
	}
	var candidates []span
	for f := 0; f < b.width; f++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, r := range idx {
			v := b.rows[r][f]
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi > lo {
			candidates = append(candidates, span{f, lo, hi})
		}
	}
	if len(candidates) == 0 {
		return id
	}
	s := candidates[b.rng.Intn(len(candidates))]
	t := s.lo + b.rng.Float64()*(s.hi-s.lo)
	if t >= s.hi {
		t = s.lo
	}

	p := 0
	for i, r := range idx {
		if b.rows[r][s.feature] <= t {
			idx[i], idx[p] = idx[p], idx[i]
			p++
		}
	}
	left := b.grow(idx[:p], depth+1)
	right := b.grow(idx[p:], depth+1)
	b.nodes[id] = Node{Feature: s.feature, Threshold: t, Left: left, Right: right, Size: len(idx)}
	return id
}

// averagePathLength is the expected path length of an unsuccessful search
// in a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	x := float64(n)
	return 2*(math.Log(x-1)+eulerGamma) - 2*(x-1)/x
}

func (t Tree) pathLength(row []float64) float64 {
	id, depth := 0, 0
	for {
		n := t.Nodes[id]
		if n.Feature < 0 {
			return float64(depth) + averagePathLength(n.Size)
		}
		if row[n.Feature] <= n.Threshold {
			id = n.Left
		} else {
			id = n.Right
		}
		depth++
	}
}

// Score returns -2^(-E[h(x)]/c(ψ)) per row. Lower is more anomalous.
func (f *Forest) Score(rows [][]float64) ([]float64, error) {
	norm := averagePathLength(f.SampleSize)
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(f.Features) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(row), len(f.Features))
		}
		var sum float64
		for _, t := range f.Trees {
			sum += t.pathLength(row)
		}
		mean := sum / float64(len(f.Trees))
		if norm == 0 {
			out[i] = -1
			continue
		}
		out[i] = -math.Pow(2, -mean/norm)
	}
	return out, nil
}

// Predict labels rows scoring below the training offset as anomalous.
func (f *Forest) Predict(rows [][]float64) ([]Label, error) {
	scores, err := f.Score(rows)
	if err != nil {
		return nil, err
	}
	return f.labels(scores), nil
}

func (f *Forest) labels(scores []float64) []Label {
	out := make([]Label, len(scores))
	for i, s := range scores {
		out[i] = Normal
		if s < f.Offset {
			out[i] = Anomaly
		}
	}
	return out
}

// FeatureImportance is one feature's share of split usage.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// FeatureImportance averages each tree's normalised split counts and
// returns them sorted descending, ties in feature order.
func (f *Forest) FeatureImportance() []FeatureImportance {
	acc := make([]float64, len(f.Features))
	for _, t := range f.Trees {
		counts := make([]float64, len(f.Features))
		var total float64
		for _, n := range t.Nodes {
			if n.Feature >= 0 {
				counts[n.Feature]++
				total++
			}
		}
		if total == 0 {
			continue
		}
		for j, c := range counts {
			acc[j] += c / total
		}
	}
	out := make([]FeatureImportance, len(f.Features))
	for j, name := range f.Features {
		v := 0.0
		if len(f.Trees) > 0 {
			v = acc[j] / float64(len(f.Trees))
		}
		out[j] = FeatureImportance{Feature: name, Importance: v}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out
}

// Save writes the model as JSON.
func (f *Forest) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(f)
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Forest, error) {
	var f Forest
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(f.Features) == 0 || len(f.Trees) == 0 {
		return nil, fmt.Errorf("decode model: no features or trees")
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return nil, fmt.Errorf("decode model: tree %d is empty", ti)
		}
		// Children always follow their parent, so paths terminate.
		for id, n := range t.Nodes {
			if n.Feature >= len(f.Features) || (n.Feature >= 0 && (n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) || n.Left <= id || n.Right <= id)) {
				return nil, fmt.Errorf("decode model: tree %d is malformed", ti)
			}
		}
	}
	return &f, nil
}
