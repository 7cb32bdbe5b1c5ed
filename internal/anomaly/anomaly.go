// Package anomaly implements an isolation forest over the imputed numeric
// matrix: seeded randomized partitioning trees, per-row anomaly scores,
// binary labels at a contamination-derived threshold and split-usage
// feature importance.
package anomaly

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	// ErrInsufficientData is returned when the matrix is too small to train on.
	ErrInsufficientData = errors.New("not enough rows or columns to train an isolation forest")
	// ErrContamination is returned for a contamination outside (0, 0.5].
	ErrContamination = errors.New("contamination must be in (0, 0.5]")
	// ErrShape is returned when scored rows do not match the trained feature count.
	ErrShape = errors.New("row width does not match model features")
)

// Label is the binary prediction for a row.
type Label int

const (
	Anomaly Label = -1
	Normal  Label = 1
)

// Config controls forest training.
type Config struct {
	Contamination float64
	Trees         int
	MaxSamples    int
	Seed          int64
	// Workers bounds parallel tree construction; 0 means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the medium-sensitivity configuration.
func DefaultConfig() Config {
	return Config{
		Contamination: 0.05,
		Trees:         100,
		MaxSamples:    256,
		Seed:          42,
	}
}

func (c Config) withDefaults() (Config, error) {
	if !(c.Contamination > 0 && c.Contamination <= 0.5) {
		return c, fmt.Errorf("%w: got %v", ErrContamination, c.Contamination)
	}
	d := DefaultConfig()
	if c.Trees <= 0 {
		c.Trees = d.Trees
	}
	if c.MaxSamples <= 0 {
		c.MaxSamples = d.MaxSamples
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c, nil
}

var sensitivities = map[string]float64{
	"low":    0.02,
	"medium": 0.05,
	"high":   0.10,
}

// Sensitivity maps low, medium or high to a contamination fraction.
func Sensitivity(level string) (float64, error) {
	v, ok := sensitivities[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return 0, fmt.Errorf("unknown sensitivity %q (use low|medium|high)", level)
	}
	return v, nil
}

// Level buckets an anomaly score for display.
type Level string

const (
	Severe Level = "Severe"
	Medium Level = "Medium"
	Low    Level = "Low"
)

// Severity classifies a score from Forest.Score.
func Severity(score float64) Level {
	switch {
	case score < -0.5:
		return Severe
	case score < -0.3:
		return Medium
	default:
		return Low
	}
}
