// Package config holds the pinchvol runtime configuration and the layers
// that populate it: defaults, a TOML file, PINCHVOL_* environment variables
// and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ayusman/pinchvol/internal/capture"
	"github.com/ayusman/pinchvol/internal/detector"
	"github.com/ayusman/pinchvol/internal/logging"
	"github.com/ayusman/pinchvol/internal/volume"
)

// Mixer backends.
const (
	MixerSystem = "system"
	MixerPlugin = "plugin"
)

// Defaults not owned by another package.
const (
	DefaultWindowTitle  = "Hand Gesture Volume Control"
	DefaultQuitKey      = "q"
	DefaultBarTop       = 150
	DefaultBarBottom    = 400
	DefaultMixerTimeout = 2 * time.Second
	DefaultMixerPlugin  = "system-control"
	DefaultLogLevel     = "info"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds CLI configuration for pinchvol.
type Config struct {
	CameraID    int
	FrameWidth  int
	FrameHeight int
	FPS         int

	MaxHands            int
	DetectionConfidence float64
	TrackingConfidence  float64
	StaticImageMode     bool
	DetectorScript      string
	PythonPath          string

	DistanceMin float64
	DistanceMax float64
	Smoothing   float64

	BarTop    int
	BarBottom int

	QuitKey     string
	WindowTitle string
	Headless    bool

	MixerBackend string
	MixerTimeout time.Duration
	PluginDir    string
	MixerPlugin  string

	LogLevel string
	Watch    bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	vol := volume.DefaultConfig()

	return Config{
		CameraID:            0,
		FrameWidth:          1280,
		FrameHeight:         720,
		FPS:                 capture.DefaultFPS,
		MaxHands:            det.MaxHands,
		DetectionConfidence: det.MinDetectionConfidence,
		TrackingConfidence:  det.MinTrackingConfidence,
		StaticImageMode:     det.StaticImageMode,
		DistanceMin:         vol.DistanceMin,
		DistanceMax:         vol.DistanceMax,
		Smoothing:           vol.Smoothing,
		BarTop:              DefaultBarTop,
		BarBottom:           DefaultBarBottom,
		QuitKey:             DefaultQuitKey,
		WindowTitle:         DefaultWindowTitle,
		MixerBackend:        MixerSystem,
		MixerTimeout:        DefaultMixerTimeout,
		PluginDir:           DefaultPluginDir(),
		MixerPlugin:         DefaultMixerPlugin,
		LogLevel:            DefaultLogLevel,
	}
}

// DefaultPluginDir returns ~/.pinchvol/plugins, or "plugins" when the home
// directory is unknown.
func DefaultPluginDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".pinchvol", "plugins")
	}
	return "plugins"
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.CameraID < 0 {
		return fmt.Errorf("%w: camera id %d is negative", ErrInvalid, c.CameraID)
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalid, c.FrameWidth, c.FrameHeight)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps %d must be positive", ErrInvalid, c.FPS)
	}
	if c.MaxHands < 1 {
		return fmt.Errorf("%w: max hands must be at least 1", ErrInvalid)
	}
	if c.DetectionConfidence <= 0 || c.DetectionConfidence > 1 {
		return fmt.Errorf("%w: detection confidence %g outside (0, 1]", ErrInvalid, c.DetectionConfidence)
	}
	if c.TrackingConfidence <= 0 || c.TrackingConfidence > 1 {
		return fmt.Errorf("%w: tracking confidence %g outside (0, 1]", ErrInvalid, c.TrackingConfidence)
	}
	if err := c.VolumeConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.BarTop < 0 || c.BarTop >= c.BarBottom {
		return fmt.Errorf("%w: bar band [%d, %d]", ErrInvalid, c.BarTop, c.BarBottom)
	}
	if len([]rune(c.QuitKey)) != 1 {
		return fmt.Errorf("%w: quit key must be a single character, got %q", ErrInvalid, c.QuitKey)
	}
	switch c.MixerBackend {
	case MixerSystem:
	case MixerPlugin:
		if c.MixerPlugin == "" {
			return fmt.Errorf("%w: mixer plugin name is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown mixer backend %q", ErrInvalid, c.MixerBackend)
	}
	if c.MixerTimeout <= 0 {
		return fmt.Errorf("%w: mixer timeout must be positive", ErrInvalid)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// VolumeConfig returns the mapping parameters.
func (c *Config) VolumeConfig() volume.Config {
	return volume.Config{
		DistanceMin: c.DistanceMin,
		DistanceMax: c.DistanceMax,
		Smoothing:   c.Smoothing,
	}
}

// DetectorConfig returns the landmark detector parameters.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:               c.MaxHands,
		MinDetectionConfidence: c.DetectionConfidence,
		MinTrackingConfidence:  c.TrackingConfidence,
		StaticImageMode:        c.StaticImageMode,
		ScriptPath:             c.DetectorScript,
		PythonPath:             c.PythonPath,
	}
}

// QuitKeyCode returns the key code the display reports for the quit key.
func (c *Config) QuitKeyCode() int {
	for _, r := range c.QuitKey {
		return int(r)
	}
	return 0
}

// configSetter applies configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value from a pointer. Zero is a valid value.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloatPtr sets a float64 value from a pointer. Zero is a valid value.
func (s *configSetter) setFloatPtr(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination.
// Negative values are ignored.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination.
// Negative values are ignored.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f < 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
