// Package volume maps pinch distance to a smoothed device volume level.
package volume

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Mapping defaults.
const (
	// DefaultDistanceMin is the pinch distance in pixels mapped to the minimum volume.
	DefaultDistanceMin = 50.0
	// DefaultDistanceMax is the pinch distance in pixels mapped to the maximum volume.
	DefaultDistanceMax = 300.0
	// DefaultSmoothing is the weight given to the previous level.
	DefaultSmoothing = 0.5
)

var (
	// ErrInvalidRange is returned for an empty or inverted volume range.
	ErrInvalidRange = errors.New("invalid volume range")

	// ErrInvalidConfig is returned for a mapping configuration that cannot be used.
	ErrInvalidConfig = errors.New("invalid mapping config")
)

// Range is the device's native volume range. It is queried once at startup.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Validate checks that the range is non-empty.
func (r Range) Validate() error {
	if !(r.Max > r.Min) {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

// Config holds the mapping parameters.
type Config struct {
	DistanceMin float64 // Pinch distance mapped to Range.Min
	DistanceMax float64 // Pinch distance mapped to Range.Max
	Smoothing   float64 // Exponential smoothing factor in [0, 1)
}

// DefaultConfig returns the default mapping parameters.
func DefaultConfig() Config {
	return Config{
		DistanceMin: DefaultDistanceMin,
		DistanceMax: DefaultDistanceMax,
		Smoothing:   DefaultSmoothing,
	}
}

// Validate checks the mapping parameters.
func (c Config) Validate() error {
	if !(c.DistanceMax > c.DistanceMin) {
		return fmt.Errorf("%w: distance range [%g, %g] is empty", ErrInvalidConfig, c.DistanceMin, c.DistanceMax)
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("%w: smoothing %g outside [0, 1)", ErrInvalidConfig, c.Smoothing)
	}
	return nil
}

// Level is the result of mapping one pinch measurement.
type Level struct {
	Raw     float64 // Interpolated level before smoothing
	Value   float64 // Smoothed level in native units
	Percent float64 // Value as 0-100 for display
}

// Mapper converts pinch distance to volume levels for one device range.
// It holds no per-frame state.
type Mapper struct {
	config    Config
	rng       Range
	toVolume  interp.PiecewiseLinear
	toPercent interp.PiecewiseLinear
}

// NewMapper builds a Mapper for the given parameters and device range.
func NewMapper(config Config, rng Range) (*Mapper, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	m := &Mapper{config: config, rng: rng}

	if err := m.toVolume.Fit(
		[]float64{config.DistanceMin, config.DistanceMax},
		[]float64{rng.Min, rng.Max},
	); err != nil {
		return nil, fmt.Errorf("fit distance mapping: %w", err)
	}
	if err := m.toPercent.Fit(
		[]float64{rng.Min, rng.Max},
		[]float64{0, 100},
	); err != nil {
		return nil, fmt.Errorf("fit percent mapping: %w", err)
	}

	return m, nil
}

// Config returns the mapping parameters.
func (m *Mapper) Config() Config {
	return m.config
}

// Range returns the device range.
func (m *Mapper) Range() Range {
	return m.rng
}

// Raw interpolates a pinch length into the device range. Lengths outside
// the distance range are clamped to the range bounds.
func (m *Mapper) Raw(length float64) float64 {
	return m.toVolume.Predict(length)
}

// Percent converts a native level to a 0-100 display value.
func (m *Mapper) Percent(level float64) float64 {
	return m.toPercent.Predict(level)
}

// Map computes the level for a pinch length given the current state.
func (m *Mapper) Map(length float64, state State) Level {
	raw := m.Raw(length)
	value := Smooth(state.Previous, raw, m.config.Smoothing)
	return Level{
		Raw:     raw,
		Value:   value,
		Percent: m.Percent(value),
	}
}

// Smooth applies one step of exponential smoothing. A higher alpha keeps
// more of the previous value.
func Smooth(previous, raw, alpha float64) float64 {
	return previous*alpha + raw*(1-alpha)
}
