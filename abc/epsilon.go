package abc

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Epsilon computes, once per generation, the closeness threshold particles
// must satisfy. Initialize freezes the value for the starting generation;
// Update freezes the value for each subsequent generation before it is first
// read; Eps looks up a frozen value. Implementations must never recompute a
// value once frozen.
//
// The distance and record getters are deferred: a variant that does not need
// them must not invoke them.
type Epsilon interface {
	Initialize(t int, distances DistanceGetter, records RecordGetter, maxPopulations int, cfg AcceptorConfig) error
	Update(t int, distances DistanceGetter, records RecordGetter, acceptanceRate float64, cfg AcceptorConfig) error
	Eps(t int) (float64, error)
}

// NoEpsilon disables ABC filtering: the threshold is +Inf for every
// generation, so nothing is ever rejected on distance.
type NoEpsilon struct{}

func (NoEpsilon) Initialize(int, DistanceGetter, RecordGetter, int, AcceptorConfig) error {
	return nil
}

func (NoEpsilon) Update(int, DistanceGetter, RecordGetter, float64, AcceptorConfig) error {
	return nil
}

func (NoEpsilon) Eps(int) (float64, error) {
	return math.Inf(1), nil
}

// ConstantEpsilon applies the same fixed threshold at every generation.
type ConstantEpsilon struct {
	Value float64
}

func (ConstantEpsilon) Initialize(int, DistanceGetter, RecordGetter, int, AcceptorConfig) error {
	return nil
}

func (ConstantEpsilon) Update(int, DistanceGetter, RecordGetter, float64, AcceptorConfig) error {
	return nil
}

func (c ConstantEpsilon) Eps(int) (float64, error) {
	return c.Value, nil
}

// ListEpsilon applies a precomputed threshold sequence. A lookup past the end
// of the list is a hard error: it signals a run configured for more
// generations than the list covers, and is never silently defaulted.
type ListEpsilon struct {
	Values []float64
}

func (ListEpsilon) Initialize(int, DistanceGetter, RecordGetter, int, AcceptorConfig) error {
	return nil
}

func (ListEpsilon) Update(int, DistanceGetter, RecordGetter, float64, AcceptorConfig) error {
	return nil
}

func (l ListEpsilon) Eps(t int) (float64, error) {
	if t < 0 || t >= len(l.Values) {
		return 0, fmt.Errorf("list epsilon: generation %d out of range for %d configured values", t, len(l.Values))
	}
	return l.Values[t], nil
}

// QuantileEpsilon shrinks the threshold between generations to a weighted
// empirical quantile of the previous generation's accepted distances, scaled
// by QuantileMultiplier. With Weighted false the particle weights are ignored
// and the quantile is taken over the distances alone.
type QuantileEpsilon struct {
	InitialEpsilon     float64 // NaN: calibrate generation 0 from the initial sample
	Alpha              float64
	QuantileMultiplier float64
	Weighted           bool

	vals *generationValues
}

// NewQuantileEpsilon builds a quantile schedule with a fixed starting
// threshold. Alpha must lie in (0, 1).
func NewQuantileEpsilon(initialEpsilon, alpha, quantileMultiplier float64, weighted bool) *QuantileEpsilon {
	if !(alpha > 0 && alpha < 1) {
		panic(fmt.Sprintf("quantile epsilon: alpha must be in (0, 1), got %g", alpha))
	}
	return &QuantileEpsilon{
		InitialEpsilon:     initialEpsilon,
		Alpha:              alpha,
		QuantileMultiplier: quantileMultiplier,
		Weighted:           weighted,
	}
}

// NewCalibratedQuantileEpsilon builds a quantile schedule that computes the
// starting threshold from the initial distance sample instead of a fixed
// value.
func NewCalibratedQuantileEpsilon(alpha, quantileMultiplier float64, weighted bool) *QuantileEpsilon {
	return NewQuantileEpsilon(math.NaN(), alpha, quantileMultiplier, weighted)
}

// NewMedianEpsilon is a quantile schedule fixed at alpha 0.5.
func NewMedianEpsilon(initialEpsilon, quantileMultiplier float64, weighted bool) *QuantileEpsilon {
	return NewQuantileEpsilon(initialEpsilon, 0.5, quantileMultiplier, weighted)
}

func (q *QuantileEpsilon) Initialize(t int, distances DistanceGetter, _ RecordGetter, maxPopulations int, _ AcceptorConfig) error {
	q.vals = newGenerationValues(maxPopulations)
	v := q.InitialEpsilon
	if math.IsNaN(v) {
		v = q.quantile(distances)
	}
	frozen, err := q.vals.freeze(t, v)
	if err != nil {
		return err
	}
	logrus.Infof("epsilon: generation %d frozen at %.6g", t, frozen)
	return nil
}

func (q *QuantileEpsilon) Update(t int, distances DistanceGetter, _ RecordGetter, _ float64, _ AcceptorConfig) error {
	if q.vals == nil {
		return fmt.Errorf("quantile epsilon: update before initialize")
	}
	frozen, err := q.vals.freeze(t, q.quantile(distances))
	if err != nil {
		return err
	}
	logrus.Infof("epsilon: generation %d frozen at %.6g", t, frozen)
	return nil
}

func (q *QuantileEpsilon) Eps(t int) (float64, error) {
	if q.vals == nil {
		return 0, fmt.Errorf("quantile epsilon: %w", ErrNotComputed)
	}
	return q.vals.at(t)
}

func (q *QuantileEpsilon) quantile(distances DistanceGetter) float64 {
	sample := distances()
	points := make([]float64, len(sample))
	var weights []float64
	if q.Weighted {
		weights = make([]float64, len(sample))
	}
	for i, wd := range sample {
		points[i] = wd.Distance
		if q.Weighted {
			weights[i] = wd.Weight
		}
	}
	return q.QuantileMultiplier * weightedQuantile(points, weights, q.Alpha)
}
