package abc

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotComputed reports a threshold lookup for a generation whose value has
// not been frozen yet (use-before-initialize).
var ErrNotComputed = errors.New("generation value not computed")

// Runs that do not declare max_nr_populations get this capacity.
const defaultMaxGenerations = 64

// generationValues is the append-only per-generation store of frozen
// threshold/temperature values. The backing array is allocated once and never
// reallocated, and NaN marks "not yet computed", so concurrent readers of
// already-frozen generations never race the single writer extending the
// schedule.
type generationValues struct {
	vals []float64
}

func newGenerationValues(maxPopulations int) *generationValues {
	n := maxPopulations
	if n <= 0 {
		n = defaultMaxGenerations
	}
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return &generationValues{vals: vals}
}

// freeze records the value for generation t and returns the frozen value.
// The first write wins: freezing an already-frozen generation keeps the
// original value, so repeated lookups are idempotent.
func (g *generationValues) freeze(t int, v float64) (float64, error) {
	if t < 0 || t >= len(g.vals) {
		return 0, fmt.Errorf("generation %d out of range (schedule capacity %d)", t, len(g.vals))
	}
	if !math.IsNaN(g.vals[t]) {
		return g.vals[t], nil
	}
	g.vals[t] = v
	return v, nil
}

func (g *generationValues) at(t int) (float64, error) {
	if t < 0 || t >= len(g.vals) || math.IsNaN(g.vals[t]) {
		return 0, fmt.Errorf("generation %d: %w", t, ErrNotComputed)
	}
	return g.vals[t], nil
}
