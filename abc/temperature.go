package abc

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Temperature generalizes the epsilon threshold to an annealing temperature
// for stochastic acceptance. Candidate temperatures come from the configured
// Schemes; the frozen value is the minimum finite candidate, never below 1
// and never above the previous generation's temperature. The last generation
// of a run is always frozen at exactly 1 — the final population must sample
// the un-annealed target — bypassing scheme evaluation entirely.
//
// Temperature implements Epsilon, so it plugs into the same schedule slot;
// the stochastic acceptor reads it through Eps.
type Temperature struct {
	InitialTemperature float64 // NaN: calibrate generation 0 from the schemes
	Schemes            []Scheme

	maxPopulations int
	vals           *generationValues
}

// NewTemperature builds a temperature schedule starting at the given value.
// With no schemes given, acceptance-rate matching combined with exponential
// decay is used.
func NewTemperature(initialTemperature float64, schemes ...Scheme) *Temperature {
	if len(schemes) == 0 {
		schemes = []Scheme{AcceptanceRateScheme{}, ExponentialDecayScheme{}}
	}
	return &Temperature{InitialTemperature: initialTemperature, Schemes: schemes}
}

// NewCalibratedTemperature derives the starting temperature from the schemes
// themselves (cold start: decay schemes abstain, acceptance-rate matching
// calibrates from the initial sample).
func NewCalibratedTemperature(schemes ...Scheme) *Temperature {
	return NewTemperature(math.NaN(), schemes...)
}

func (tm *Temperature) Initialize(t int, distances DistanceGetter, records RecordGetter, maxPopulations int, cfg AcceptorConfig) error {
	if cfg.PDFNorm <= 0 {
		return fmt.Errorf("temperature schedule: acceptor config pdf_norm must be positive, got %g", cfg.PDFNorm)
	}
	tm.maxPopulations = maxPopulations
	tm.vals = newGenerationValues(maxPopulations)

	v := tm.InitialTemperature
	if math.IsNaN(v) {
		// cold-start calibration: no previous temperature, full acceptance
		v = tm.propose(t, distances, records, cfg, math.NaN(), 1.0)
	}
	frozen, err := tm.vals.freeze(t, v)
	if err != nil {
		return err
	}
	logrus.Infof("temperature: generation %d frozen at %.6g", t, frozen)
	return nil
}

func (tm *Temperature) Update(t int, distances DistanceGetter, records RecordGetter, acceptanceRate float64, cfg AcceptorConfig) error {
	if tm.vals == nil {
		return fmt.Errorf("temperature schedule: update before initialize")
	}

	// Deterministic override for the last generation: exactly 1, schemes
	// never consulted, so scheme failures cannot reach this path.
	if tm.maxPopulations > 0 && t >= tm.maxPopulations-1 {
		frozen, err := tm.vals.freeze(t, 1.0)
		if err != nil {
			return err
		}
		logrus.Infof("temperature: final generation %d forced to %.6g", t, frozen)
		return nil
	}

	prev := math.NaN()
	if p, err := tm.vals.at(t - 1); err == nil {
		prev = p
	}
	frozen, err := tm.vals.freeze(t, tm.propose(t, distances, records, cfg, prev, acceptanceRate))
	if err != nil {
		return err
	}
	logrus.Infof("temperature: generation %d frozen at %.6g", t, frozen)
	return nil
}

func (tm *Temperature) Eps(t int) (float64, error) {
	if tm.vals == nil {
		return 0, fmt.Errorf("temperature schedule: %w", ErrNotComputed)
	}
	return tm.vals.at(t)
}

// propose combines the schemes' candidates for generation t. The getters are
// memoized here so each provider runs at most once per evaluation, however
// many schemes consult it.
func (tm *Temperature) propose(t int, distances DistanceGetter, records RecordGetter, cfg AcceptorConfig, prev, acceptanceRate float64) float64 {
	in := SchemeInput{
		T:                    t,
		GetWeightedDistances: MemoizedDistances(distances),
		GetAllRecords:        MemoizedRecords(records),
		MaxPopulations:       tm.maxPopulations,
		PDFNorm:              cfg.PDFNorm,
		KernelScale:          cfg.KernelScale,
		PrevTemperature:      prev,
		AcceptanceRate:       acceptanceRate,
	}
	candidate := math.Inf(1)
	for _, s := range tm.Schemes {
		if c := s.Propose(in); c < candidate {
			candidate = c
		}
	}
	if !math.IsNaN(prev) && candidate > prev {
		candidate = prev
	}
	return math.Max(candidate, 1)
}
