package abc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func float64Ptr(v float64) *float64 { return &v }

func TestParseAcceptorConfig(t *testing.T) {
	t.Run("recognized keys", func(t *testing.T) {
		cfg, err := ParseAcceptorConfig(map[string]any{
			"pdf_norm":     5.0,
			"kernel_scale": "log",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assert.Equal(t, AcceptorConfig{PDFNorm: 5, KernelScale: ScaleLog}, cfg)
	})

	t.Run("integer pdf_norm", func(t *testing.T) {
		cfg, err := ParseAcceptorConfig(map[string]any{"pdf_norm": 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assert.Equal(t, 5.0, cfg.PDFNorm)
	})

	t.Run("kernel scale defaults to linear", func(t *testing.T) {
		cfg, err := ParseAcceptorConfig(map[string]any{"pdf_norm": 1.0})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assert.Equal(t, ScaleLin, cfg.KernelScale)
	})

	t.Run("unrecognized keys are ignored", func(t *testing.T) {
		_, err := ParseAcceptorConfig(map[string]any{
			"pdf_norm":      1.0,
			"future_option": "whatever",
			"other":         3,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing pdf_norm fails fast", func(t *testing.T) {
		if _, err := ParseAcceptorConfig(map[string]any{"kernel_scale": "log"}); err == nil {
			t.Error("expected error for missing pdf_norm")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		tests := []struct {
			name string
			opts map[string]any
		}{
			{"non-numeric pdf_norm", map[string]any{"pdf_norm": "five"}},
			{"zero pdf_norm", map[string]any{"pdf_norm": 0.0}},
			{"negative pdf_norm", map[string]any{"pdf_norm": -1.0}},
			{"unknown kernel scale", map[string]any{"pdf_norm": 1.0, "kernel_scale": "exp"}},
			{"non-string kernel scale", map[string]any{"pdf_norm": 1.0, "kernel_scale": 2}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := ParseAcceptorConfig(tt.opts); err == nil {
					t.Error("expected error")
				}
			})
		}
	})
}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp yaml: %v", err)
	}
	return path
}

func TestLoadScheduleBundle_ValidYAML(t *testing.T) {
	yaml := `
epsilon:
  policy: quantile
  initial_epsilon: 5.1
  alpha: 0.5
  quantile_multiplier: 1.1
  weighted: false
temperature:
  initial_temperature: 42
  schemes: [acceptance-rate, exp-decay]
acceptor:
  pdf_norm: 5
  kernel_scale: log
`
	bundle, err := LoadScheduleBundle(writeTempYAML(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bundle.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	assert.Equal(t, "quantile", bundle.Epsilon.Policy)
	assert.Equal(t, float64Ptr(5.1), bundle.Epsilon.InitialEpsilon)
	assert.Equal(t, float64Ptr(42), bundle.Temperature.InitialTemperature)
	assert.Equal(t, []string{"acceptance-rate", "exp-decay"}, bundle.Temperature.Schemes)
	if bundle.Epsilon.Weighted == nil || *bundle.Epsilon.Weighted {
		t.Error("expected weighted=false to be set")
	}
}

func TestScheduleBundle_Validate(t *testing.T) {
	tests := []struct {
		name   string
		bundle ScheduleBundle
	}{
		{"unknown epsilon policy", ScheduleBundle{Epsilon: EpsilonConfig{Policy: "adaptive"}}},
		{"unknown scheme", ScheduleBundle{Temperature: TemperatureConfig{Schemes: []string{"boltzmann"}}}},
		{"constant without value", ScheduleBundle{Epsilon: EpsilonConfig{Policy: "constant"}}},
		{"list without values", ScheduleBundle{Epsilon: EpsilonConfig{Policy: "list"}}},
		{"alpha out of range", ScheduleBundle{Epsilon: EpsilonConfig{Policy: "quantile", Alpha: float64Ptr(1.5)}}},
		{"non-positive multiplier", ScheduleBundle{Epsilon: EpsilonConfig{Policy: "quantile", QuantileMultiplier: float64Ptr(0)}}},
		{"initial temperature below 1", ScheduleBundle{Temperature: TemperatureConfig{InitialTemperature: float64Ptr(0.5)}}},
		{"temperature without acceptor config", ScheduleBundle{Epsilon: EpsilonConfig{Policy: "temperature"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.bundle.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	t.Run("empty bundle is valid", func(t *testing.T) {
		b := ScheduleBundle{}
		if err := b.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestNewEpsilon(t *testing.T) {
	t.Run("no-epsilon", func(t *testing.T) {
		eps := NewEpsilon(EpsilonConfig{Policy: "no-epsilon"})
		if _, ok := eps.(NoEpsilon); !ok {
			t.Errorf("expected NoEpsilon, got %T", eps)
		}
	})

	t.Run("constant", func(t *testing.T) {
		eps := NewEpsilon(EpsilonConfig{Policy: "constant", Value: float64Ptr(3)})
		assert.Equal(t, ConstantEpsilon{Value: 3}, eps)
	})

	t.Run("list", func(t *testing.T) {
		eps := NewEpsilon(EpsilonConfig{Policy: "list", Values: []float64{3, 2, 1}})
		v, err := eps.Eps(2)
		if err != nil {
			t.Fatalf("eps(2): %v", err)
		}
		assert.Equal(t, 1.0, v)
	})

	t.Run("quantile with initial value", func(t *testing.T) {
		eps := NewEpsilon(EpsilonConfig{
			Policy:             "quantile",
			InitialEpsilon:     float64Ptr(5.1),
			Alpha:              float64Ptr(0.3),
			QuantileMultiplier: float64Ptr(1.1),
		})
		q, ok := eps.(*QuantileEpsilon)
		if !ok {
			t.Fatalf("expected *QuantileEpsilon, got %T", eps)
		}
		assert.Equal(t, 5.1, q.InitialEpsilon)
		assert.Equal(t, 0.3, q.Alpha)
		assert.Equal(t, 1.1, q.QuantileMultiplier)
		assert.True(t, q.Weighted, "weighted defaults to true")
	})

	t.Run("empty policy defaults to calibrated median", func(t *testing.T) {
		eps := NewEpsilon(EpsilonConfig{})
		q, ok := eps.(*QuantileEpsilon)
		if !ok {
			t.Fatalf("expected *QuantileEpsilon, got %T", eps)
		}
		assert.Equal(t, 0.5, q.Alpha)
	})

	t.Run("unknown policy panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewEpsilon(EpsilonConfig{Policy: "adaptive"})
	})
}

func TestNewScheme(t *testing.T) {
	for name := range ValidSchemes {
		t.Run(name, func(t *testing.T) {
			if NewScheme(name) == nil {
				t.Error("expected a scheme")
			}
		})
	}

	t.Run("unknown scheme panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewScheme("boltzmann")
	})
}

func TestNewTemperatureFromConfig(t *testing.T) {
	t.Run("explicit initial temperature", func(t *testing.T) {
		tm := NewTemperatureFromConfig(TemperatureConfig{
			InitialTemperature: float64Ptr(42),
			Schemes:            []string{"exp-decay"},
		})
		assert.Equal(t, 42.0, tm.InitialTemperature)
		assert.Len(t, tm.Schemes, 1)
	})

	t.Run("defaults", func(t *testing.T) {
		tm := NewTemperatureFromConfig(TemperatureConfig{})
		assert.Len(t, tm.Schemes, 2, "acceptance-rate matching plus exponential decay")
	})
}
