package fold

import (
	"math"

	"github.com/matzehuels/stochfold/pkg/errors"
)

// Default model settings.
const (
	DefaultTemperature = 37.0
	DefaultMinLoop     = 3
	DefaultMaxLoop     = 30
)

// Model collects the settings that shape an ensemble.
type Model struct {
	// Temperature in °C.
	Temperature float64 `json:"temperature" toml:"temperature"`

	// MinLoop is the minimum hairpin size.
	MinLoop int `json:"min_loop" toml:"min_loop"`

	// MaxLoop is the maximum number of unpaired bases in an interior loop.
	MaxLoop int `json:"max_loop" toml:"max_loop"`

	// Circular treats the molecule as circular.
	Circular bool `json:"circular,omitempty" toml:"circular"`

	// UniqueML keeps the QM1 table that makes multiloop decomposition
	// unique. Stochastic backtracking requires it.
	UniqueML bool `json:"unique_ml" toml:"unique_ml"`

	// MaxNonCompatible is the number of alignment rows allowed to be unable
	// to form a consensus pair.
	MaxNonCompatible int `json:"max_non_compatible,omitempty" toml:"max_non_compatible"`

	// Params overrides the energy parameters. Nil selects DefaultParams.
	Params *Params `json:"-" toml:"-"`
}

// DefaultModel returns the default model with unique multiloop
// decomposition enabled.
func DefaultModel() Model {
	return Model{
		Temperature: DefaultTemperature,
		MinLoop:     DefaultMinLoop,
		MaxLoop:     DefaultMaxLoop,
		UniqueML:    true,
	}
}

// KT returns the thermal energy R·T in kcal/mol.
func (m Model) KT() float64 {
	return GasConstant * (m.Temperature + ZeroCelsius)
}

// Validate checks the model settings.
func (m Model) Validate() error {
	if m.Temperature <= -ZeroCelsius || math.IsNaN(m.Temperature) || math.IsInf(m.Temperature, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "temperature %.2f°C is below absolute zero", m.Temperature)
	}
	if m.MinLoop < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "min loop must be non-negative, got %d", m.MinLoop)
	}
	if m.MaxLoop < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max loop must be non-negative, got %d", m.MaxLoop)
	}
	if m.MaxNonCompatible < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max non-compatible rows must be non-negative, got %d", m.MaxNonCompatible)
	}
	return nil
}

func (m Model) params() *Params {
	if m.Params != nil {
		return m.Params
	}
	return DefaultParams()
}
