package abc

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ErrGenerationUnavailable signals that a distance function or threshold
// provider has no data for the requested generation. Typical when resuming a
// previously stopped run whose early generations were not recorded; the
// complete-history acceptor treats it as "skip this generation".
var ErrGenerationUnavailable = errors.New("no data for generation")

// SumStats holds a particle's summary statistics, keyed by statistic name.
type SumStats map[string]float64

// DistanceFunc is the external distance (or, for stochastic runs, kernel
// density) contract: generation index, simulated statistics, observed
// statistics. Implementations wrap ErrGenerationUnavailable for generations
// they cannot serve.
type DistanceFunc func(t int, x, x0 SumStats) (float64, error)

// ThresholdFunc looks up the frozen threshold or temperature for a
// generation. Epsilon.Eps satisfies it as a method value.
type ThresholdFunc func(t int) (float64, error)

// Acceptor decides, once per simulated particle, whether the particle enters
// the population. The returned distance is always the current generation's,
// even when historical generations affect the decision. Only current
// generation failures surface as errors.
type Acceptor interface {
	Accept(t int, dist DistanceFunc, eps ThresholdFunc, x, x0 SumStats) (distance float64, accept bool, err error)
}

// CurrentTimeAcceptor accepts a particle when its distance at the current
// generation is within the current generation's threshold. The default
// policy; no history is consulted.
type CurrentTimeAcceptor struct{}

func (CurrentTimeAcceptor) Accept(t int, dist DistanceFunc, eps ThresholdFunc, x, x0 SumStats) (float64, bool, error) {
	d, err := dist(t, x, x0)
	if err != nil {
		return 0, false, err
	}
	threshold, err := eps(t)
	if err != nil {
		return d, false, err
	}
	return d, d <= threshold, nil
}

// historyOutcome is the three-valued result of re-checking one prior
// generation's criterion.
type historyOutcome int

const (
	historyAccept historyOutcome = iota
	historyReject
	historySkip
)

// CompleteHistoryAcceptor additionally requires an accepted particle to pass
// every prior generation's criterion. The current generation is checked first
// (most likely to fail); on acceptance, generations 0..t-1 are re-checked in
// ascending order, short-circuiting on the first genuine rejection. A prior
// generation whose distance or threshold is unavailable is skipped, not
// counted as rejecting — resumed runs routinely miss early-generation data.
type CompleteHistoryAcceptor struct{}

func (a CompleteHistoryAcceptor) Accept(t int, dist DistanceFunc, eps ThresholdFunc, x, x0 SumStats) (float64, bool, error) {
	d, accept, err := CurrentTimeAcceptor{}.Accept(t, dist, eps, x, x0)
	if err != nil || !accept {
		return d, accept, err
	}
	for tPrev := 0; tPrev < t; tPrev++ {
		switch a.check(tPrev, dist, eps, x, x0) {
		case historyReject:
			return d, false, nil
		case historySkip:
			continue
		}
	}
	return d, true, nil
}

func (CompleteHistoryAcceptor) check(t int, dist DistanceFunc, eps ThresholdFunc, x, x0 SumStats) historyOutcome {
	d, err := dist(t, x, x0)
	if err != nil {
		logSkippedGeneration(t, err)
		return historySkip
	}
	threshold, err := eps(t)
	if err != nil {
		logSkippedGeneration(t, err)
		return historySkip
	}
	if d <= threshold {
		return historyAccept
	}
	return historyReject
}

// logSkippedGeneration distinguishes the expected missing-data case from
// unexpected failures, which are still skipped but surfaced at warn level so
// a buggy distance function is not silently masked.
func logSkippedGeneration(t int, err error) {
	if errors.Is(err, ErrGenerationUnavailable) {
		logrus.Debugf("history check: generation %d unavailable, skipped", t)
		return
	}
	logrus.Warnf("history check: generation %d failed (%v), skipped", t, err)
}

// StochasticAcceptor accepts a particle with probability given by its kernel
// density, normalized by pdf_norm and annealed by the current temperature
// (read through the threshold provider). At temperature 1 this samples
// exactly from the target acceptance kernel; higher temperatures flatten the
// probability toward uniform. The distance function is interpreted as a
// density on linear scale, or a log-density on log scale for numerical
// stability with very small densities.
type StochasticAcceptor struct {
	cfg AcceptorConfig
	rng *rand.Rand
}

// NewStochasticAcceptor builds a stochastic acceptor. The configuration must
// carry a positive pdf_norm; the rng is supplied by the caller so runs stay
// reproducible under a fixed seed.
func NewStochasticAcceptor(cfg AcceptorConfig, rng *rand.Rand) (*StochasticAcceptor, error) {
	if cfg.PDFNorm <= 0 {
		return nil, fmt.Errorf("stochastic acceptor: pdf_norm must be positive, got %g", cfg.PDFNorm)
	}
	if rng == nil {
		return nil, fmt.Errorf("stochastic acceptor: rng is required")
	}
	return &StochasticAcceptor{cfg: cfg, rng: rng}, nil
}

func (a *StochasticAcceptor) Accept(t int, dist DistanceFunc, eps ThresholdFunc, x, x0 SumStats) (float64, bool, error) {
	density, err := dist(t, x, x0)
	if err != nil {
		return 0, false, err
	}
	temperature, err := eps(t)
	if err != nil {
		return density, false, err
	}
	p := a.acceptProbability(density, temperature)
	return density, a.rng.Float64() <= p, nil
}

func (a *StochasticAcceptor) acceptProbability(density, temperature float64) float64 {
	if math.IsInf(temperature, 1) {
		return 1
	}
	return annealedProbability(density, a.cfg.PDFNorm, a.cfg.KernelScale, 1/temperature)
}
