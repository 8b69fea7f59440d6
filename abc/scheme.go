package abc

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SchemeInput carries everything an annealing scheme may consult when
// proposing a temperature for generation T. PrevTemperature is NaN on cold
// start (no prior generation). The getters are deferred and shared across all
// schemes of one schedule evaluation, so a provider runs at most once.
type SchemeInput struct {
	T                    int
	GetWeightedDistances DistanceGetter
	GetAllRecords        RecordGetter
	MaxPopulations       int
	PDFNorm              float64
	KernelScale          KernelScale
	PrevTemperature      float64
	AcceptanceRate       float64
}

// coldStart reports whether no previous temperature is available.
func (in SchemeInput) coldStart() bool {
	return math.IsNaN(in.PrevTemperature)
}

// generationsToGo is the number of generations still to run, including T.
// Zero or negative MaxPopulations means the run length is open-ended.
func (in SchemeInput) generationsToGo() int {
	return in.MaxPopulations - in.T
}

// Scheme proposes an annealing temperature for one generation. Schemes are
// pure functions of their input: they keep no state between calls.
type Scheme interface {
	Propose(in SchemeInput) float64
}

// AcceptanceRateScheme picks the temperature at which the importance-weighted
// predicted acceptance rate over the historical records matches TargetRate.
// The inverse temperature is found by bisection on [1e-10, 1]; when even
// temperature 1 over-accepts (for instance when PDFNorm equals the minimum
// observed density, so essentially the whole sample is accepted un-annealed)
// the proposal is exactly 1.
type AcceptanceRateScheme struct {
	TargetRate float64 // predicted acceptance rate to aim for, defaults to 0.3
}

func (s AcceptanceRateScheme) Propose(in SchemeInput) float64 {
	target := s.TargetRate
	if target <= 0 {
		target = 0.3
	}
	records := in.GetAllRecords()
	if len(records) == 0 {
		return math.Inf(1)
	}
	weights := make([]float64, len(records))
	densities := make([]float64, len(records))
	for i, r := range records {
		// importance weight of the proposal under the current kernel
		w := 1.0
		if r.TransitionPDPrev != 0 {
			w = r.TransitionPD / r.TransitionPDPrev
		}
		weights[i] = w
		densities[i] = r.Distance
	}
	total := floats.Sum(weights)
	if total != 0 {
		floats.Scale(1/total, weights)
	}

	obj := func(beta float64) float64 {
		sum := 0.0
		for i, pd := range densities {
			p := annealedProbability(pd, in.PDFNorm, in.KernelScale, beta)
			sum += weights[i] * p
		}
		return sum - target
	}
	const minBeta = 1e-10
	var beta float64
	switch {
	case obj(1) > 0:
		// temperature 1 already accepts more than the target rate
		beta = 1
	case obj(minBeta) < 0:
		// target rate unreachable even at near-infinite temperature
		beta = minBeta
	default:
		beta = bisect(obj, minBeta, 1)
	}
	return 1 / beta
}

// annealedProbability is the acceptance probability of one density at inverse
// temperature beta, capped at 1.
func annealedProbability(density, pdfNorm float64, scale KernelScale, beta float64) float64 {
	var p float64
	if scale == ScaleLog {
		p = math.Exp((density - pdfNorm) * beta)
	} else {
		p = math.Pow(density/pdfNorm, beta)
	}
	if p > 1 {
		p = 1
	}
	return p
}

// ExponentialDecayScheme anneals the previous temperature toward 1 on a fixed
// exponential trajectory over the remaining generations: with g generations
// to go it proposes prev^((g-1)/g), reaching exactly 1 at the last
// generation. Open-ended runs halve the temperature each generation.
type ExponentialDecayScheme struct{}

func (ExponentialDecayScheme) Propose(in SchemeInput) float64 {
	if in.coldStart() {
		return math.Inf(1)
	}
	if in.MaxPopulations <= 0 {
		return in.PrevTemperature / 2
	}
	toGo := in.generationsToGo()
	if toGo <= 1 {
		return 1
	}
	return math.Pow(in.PrevTemperature, float64(toGo-1)/float64(toGo))
}

// PolynomialDecayScheme anneals the gap above 1 along a polynomial of the
// remaining generation fraction: with g generations to go it proposes
// (prev-1)*((g-1)/g)^Exponent + 1. Higher exponents spend more of the run at
// low temperatures.
type PolynomialDecayScheme struct {
	Exponent float64 // defaults to 3
}

func (s PolynomialDecayScheme) Propose(in SchemeInput) float64 {
	if in.coldStart() {
		return math.Inf(1)
	}
	exponent := s.Exponent
	if exponent <= 0 {
		exponent = 3
	}
	if in.MaxPopulations <= 0 {
		return (in.PrevTemperature-1)/2 + 1
	}
	toGo := in.generationsToGo()
	if toGo <= 1 {
		return 1
	}
	frac := float64(toGo-1) / float64(toGo)
	return (in.PrevTemperature-1)*math.Pow(frac, exponent) + 1
}

// DalyScheme steps the square root of the temperature down by an
// Alpha-proportional amount each generation, damping the step by another
// factor of Alpha when the realized acceptance rate collapses below MinRate
// (Daly et al. 2017). The step is re-derived from the previous temperature on
// every call, keeping the scheme stateless.
type DalyScheme struct {
	Alpha   float64 // step multiplier in (0, 1), defaults to 0.5
	MinRate float64 // acceptance rate under which the step is damped, defaults to 1e-4
}

func (s DalyScheme) Propose(in SchemeInput) float64 {
	if in.coldStart() {
		return math.Inf(1)
	}
	alpha := s.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.5
	}
	minRate := s.MinRate
	if minRate <= 0 {
		minRate = 1e-4
	}
	epsBase := math.Sqrt(in.PrevTemperature)
	step := alpha * epsBase
	if in.AcceptanceRate < minRate {
		step *= alpha
	}
	eps := epsBase - step
	return math.Max(eps*eps, 1)
}

// FrielPettittScheme takes linear steps in the square root of the inverse
// temperature, the power-posterior schedule of Friel & Pettitt (2008) /
// Vyshemirsky & Girolami (2008). Requires a declared run length; open-ended
// runs get no proposal.
type FrielPettittScheme struct{}

func (FrielPettittScheme) Propose(in SchemeInput) float64 {
	if in.coldStart() {
		return math.Inf(1)
	}
	if in.MaxPopulations <= 0 {
		return math.Inf(1)
	}
	toGo := in.generationsToGo()
	if toGo <= 1 {
		return 1
	}
	sqrtBeta := math.Sqrt(1 / in.PrevTemperature)
	sqrtBeta += (1 - sqrtBeta) / float64(toGo)
	return 1 / (sqrtBeta * sqrtBeta)
}

// EssScheme picks the inverse temperature in [1/prev, 1] whose tempered
// weights retain a target relative effective sample size, by golden-section
// search on the squared ESS mismatch.
type EssScheme struct {
	TargetRelativeESS float64 // defaults to 0.8
}

func (s EssScheme) Propose(in SchemeInput) float64 {
	target := s.TargetRelativeESS
	if target <= 0 || target >= 1 {
		target = 0.8
	}
	sample := in.GetWeightedDistances()
	if len(sample) == 0 {
		return math.Inf(1)
	}
	values := make([]float64, len(sample))
	weights := make([]float64, len(sample))
	for i, wd := range sample {
		if in.KernelScale == ScaleLog {
			values[i] = math.Exp(wd.Distance - in.PDFNorm)
		} else {
			values[i] = wd.Distance / in.PDFNorm
		}
		weights[i] = wd.Weight
	}
	total := floats.Sum(weights)
	if total != 0 {
		floats.Scale(1/total, weights)
	}
	targetESS := target * float64(len(weights))

	betaBase := 0.0
	if !in.coldStart() {
		betaBase = 1 / in.PrevTemperature
	}
	obj := func(beta float64) float64 {
		d := temperedESS(values, weights, beta) - targetESS
		return d * d
	}
	beta := goldenMin(obj, betaBase, 1)
	if beta < 1e-12 {
		return math.Inf(1)
	}
	return 1 / beta
}
