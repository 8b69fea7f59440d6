package abc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KernelScale selects the representation of kernel densities: plain values
// or log-space values (for stability with very small or large densities).
type KernelScale string

const (
	ScaleLin KernelScale = "lin"
	ScaleLog KernelScale = "log"
)

// AcceptorConfig is the immutable record of recognized acceptor options,
// required whenever a stochastic or temperature-based policy is in use.
type AcceptorConfig struct {
	PDFNorm     float64
	KernelScale KernelScale
}

// ParseAcceptorConfig reads the recognized keys from a loose options map:
// pdf_norm (numeric, required, positive) and kernel_scale ("lin" or "log",
// defaults to "lin"). Unrecognized keys are ignored.
func ParseAcceptorConfig(opts map[string]any) (AcceptorConfig, error) {
	cfg := AcceptorConfig{KernelScale: ScaleLin}

	raw, ok := opts["pdf_norm"]
	if !ok {
		return cfg, fmt.Errorf("acceptor config: missing required key pdf_norm")
	}
	switch v := raw.(type) {
	case float64:
		cfg.PDFNorm = v
	case int:
		cfg.PDFNorm = float64(v)
	default:
		return cfg, fmt.Errorf("acceptor config: pdf_norm must be numeric, got %T", raw)
	}
	if cfg.PDFNorm <= 0 {
		return cfg, fmt.Errorf("acceptor config: pdf_norm must be positive, got %g", cfg.PDFNorm)
	}

	if raw, ok := opts["kernel_scale"]; ok {
		s, isString := raw.(string)
		if !isString || (KernelScale(s) != ScaleLin && KernelScale(s) != ScaleLog) {
			return cfg, fmt.Errorf("acceptor config: kernel_scale must be %q or %q, got %v", ScaleLin, ScaleLog, raw)
		}
		cfg.KernelScale = KernelScale(s)
	}

	return cfg, nil
}

// ScheduleBundle holds unified schedule configuration, loadable from a YAML
// file. Nil pointer fields mean "not set in YAML" — the factories substitute
// their defaults.
type ScheduleBundle struct {
	Epsilon     EpsilonConfig     `yaml:"epsilon"`
	Temperature TemperatureConfig `yaml:"temperature"`
	Acceptor    map[string]any    `yaml:"acceptor"`
}

// EpsilonConfig holds epsilon schedule configuration.
type EpsilonConfig struct {
	Policy             string    `yaml:"policy"`
	Value              *float64  `yaml:"value"`  // constant
	Values             []float64 `yaml:"values"` // list
	InitialEpsilon     *float64  `yaml:"initial_epsilon"`
	Alpha              *float64  `yaml:"alpha"`
	QuantileMultiplier *float64  `yaml:"quantile_multiplier"`
	Weighted           *bool     `yaml:"weighted"`
}

// TemperatureConfig holds temperature schedule configuration.
type TemperatureConfig struct {
	InitialTemperature *float64 `yaml:"initial_temperature"`
	Schemes            []string `yaml:"schemes"`
}

// LoadScheduleBundle reads and parses a YAML schedule configuration file.
func LoadScheduleBundle(path string) (*ScheduleBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schedule config: %w", err)
	}
	var bundle ScheduleBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing schedule config: %w", err)
	}
	return &bundle, nil
}

// ValidEpsilons is the set of recognized epsilon policy names. Shared by
// Validate() and NewEpsilon() to avoid duplication. Empty selects the median
// default.
var ValidEpsilons = map[string]bool{
	"": true, "no-epsilon": true, "constant": true, "list": true,
	"quantile": true, "median": true, "temperature": true,
}

// ValidSchemes is the set of recognized temperature scheme names.
var ValidSchemes = map[string]bool{
	"acceptance-rate": true, "exp-decay": true, "poly-decay": true,
	"daly": true, "friel-pettitt": true, "ess": true,
}

// Validate checks that all policy names and parameter ranges in the bundle
// are valid.
func (b *ScheduleBundle) Validate() error {
	if !ValidEpsilons[b.Epsilon.Policy] {
		return fmt.Errorf("unknown epsilon policy %q", b.Epsilon.Policy)
	}
	for _, name := range b.Temperature.Schemes {
		if !ValidSchemes[name] {
			return fmt.Errorf("unknown temperature scheme %q", name)
		}
	}
	if b.Epsilon.Policy == "constant" && b.Epsilon.Value == nil {
		return fmt.Errorf("constant epsilon requires value")
	}
	if b.Epsilon.Policy == "list" && len(b.Epsilon.Values) == 0 {
		return fmt.Errorf("list epsilon requires a non-empty values list")
	}
	if b.Epsilon.Alpha != nil && !(*b.Epsilon.Alpha > 0 && *b.Epsilon.Alpha < 1) {
		return fmt.Errorf("alpha must be in (0, 1), got %f", *b.Epsilon.Alpha)
	}
	if b.Epsilon.QuantileMultiplier != nil && *b.Epsilon.QuantileMultiplier <= 0 {
		return fmt.Errorf("quantile_multiplier must be positive, got %f", *b.Epsilon.QuantileMultiplier)
	}
	if b.Temperature.InitialTemperature != nil && *b.Temperature.InitialTemperature < 1 {
		return fmt.Errorf("initial_temperature must be at least 1, got %f", *b.Temperature.InitialTemperature)
	}
	if b.Epsilon.Policy == "temperature" {
		if _, err := ParseAcceptorConfig(b.Acceptor); err != nil {
			return err
		}
	}
	return nil
}

// NewEpsilon creates an epsilon schedule from its configuration.
// Valid names are defined in ValidEpsilons; empty string defaults to the
// weighted median schedule. Panics on unrecognized names.
func NewEpsilon(cfg EpsilonConfig) Epsilon {
	if !ValidEpsilons[cfg.Policy] {
		panic(fmt.Sprintf("unknown epsilon policy %q", cfg.Policy))
	}
	alpha := 0.5
	if cfg.Alpha != nil {
		alpha = *cfg.Alpha
	}
	multiplier := 1.0
	if cfg.QuantileMultiplier != nil {
		multiplier = *cfg.QuantileMultiplier
	}
	weighted := true
	if cfg.Weighted != nil {
		weighted = *cfg.Weighted
	}
	switch cfg.Policy {
	case "no-epsilon":
		return NoEpsilon{}
	case "constant":
		return ConstantEpsilon{Value: *cfg.Value}
	case "list":
		return ListEpsilon{Values: cfg.Values}
	case "quantile":
		if cfg.InitialEpsilon != nil {
			return NewQuantileEpsilon(*cfg.InitialEpsilon, alpha, multiplier, weighted)
		}
		return NewCalibratedQuantileEpsilon(alpha, multiplier, weighted)
	case "", "median":
		if cfg.InitialEpsilon != nil {
			return NewMedianEpsilon(*cfg.InitialEpsilon, multiplier, weighted)
		}
		return NewCalibratedQuantileEpsilon(0.5, multiplier, weighted)
	case "temperature":
		panic("epsilon policy \"temperature\" is built with NewTemperatureFromConfig")
	default:
		panic(fmt.Sprintf("unhandled epsilon policy %q", cfg.Policy))
	}
}

// NewTemperatureFromConfig creates a temperature schedule from its
// configuration. An absent initial temperature selects cold-start
// calibration; an empty scheme list selects the NewTemperature defaults.
func NewTemperatureFromConfig(cfg TemperatureConfig) *Temperature {
	schemes := make([]Scheme, 0, len(cfg.Schemes))
	for _, name := range cfg.Schemes {
		schemes = append(schemes, NewScheme(name))
	}
	if cfg.InitialTemperature != nil {
		return NewTemperature(*cfg.InitialTemperature, schemes...)
	}
	return NewCalibratedTemperature(schemes...)
}

// NewScheme creates an annealing scheme by name with default parameters.
// Valid names are defined in ValidSchemes. Panics on unrecognized names.
func NewScheme(name string) Scheme {
	switch name {
	case "acceptance-rate":
		return AcceptanceRateScheme{}
	case "exp-decay":
		return ExponentialDecayScheme{}
	case "poly-decay":
		return PolynomialDecayScheme{}
	case "daly":
		return DalyScheme{}
	case "friel-pettitt":
		return FrielPettittScheme{}
	case "ess":
		return EssScheme{}
	default:
		panic(fmt.Sprintf("unknown temperature scheme %q; valid schemes: [acceptance-rate, exp-decay, poly-decay, daly, friel-pettitt, ess]", name))
	}
}
