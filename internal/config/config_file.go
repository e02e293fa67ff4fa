package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileName is the base name of the config file.
const FileName = "config.toml"

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// Pointers mark values where zero is meaningful.
type FileConfig struct {
	CameraID    *int `toml:"camera"`
	FrameWidth  int  `toml:"width"`
	FrameHeight int  `toml:"height"`
	FPS         int  `toml:"fps"`

	MaxHands            int     `toml:"max_hands"`
	DetectionConfidence float64 `toml:"detection_confidence"`
	TrackingConfidence  float64 `toml:"tracking_confidence"`
	StaticImageMode     *bool   `toml:"static_image_mode"`
	DetectorScript      string  `toml:"detector_script"`
	PythonPath          string  `toml:"python"`

	DistanceMin *float64 `toml:"distance_min"`
	DistanceMax float64  `toml:"distance_max"`
	Smoothing   *float64 `toml:"smoothing"`

	BarTop    *int `toml:"bar_top"`
	BarBottom int  `toml:"bar_bottom"`

	QuitKey     string `toml:"quit_key"`
	WindowTitle string `toml:"window_title"`
	Headless    *bool  `toml:"headless"`

	MixerBackend string `toml:"mixer"`
	MixerTimeout string `toml:"mixer_timeout"`
	PluginDir    string `toml:"plugin_dir"`
	MixerPlugin  string `toml:"mixer_plugin"`

	LogLevel string `toml:"log_level"`
	Watch    *bool  `toml:"watch"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.pinchvol/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".pinchvol", FileName)
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setIntPtr("camera", fc.CameraID, &cfg.CameraID)
	s.setInt("width", fc.FrameWidth, &cfg.FrameWidth)
	s.setInt("height", fc.FrameHeight, &cfg.FrameHeight)
	s.setInt("fps", fc.FPS, &cfg.FPS)

	s.setInt("max-hands", fc.MaxHands, &cfg.MaxHands)
	s.setFloat("detection-confidence", fc.DetectionConfidence, &cfg.DetectionConfidence)
	s.setFloat("tracking-confidence", fc.TrackingConfidence, &cfg.TrackingConfidence)
	s.setBool("static-image-mode", fc.StaticImageMode, &cfg.StaticImageMode)
	s.setString("detector-script", fc.DetectorScript, &cfg.DetectorScript)
	s.setString("python", fc.PythonPath, &cfg.PythonPath)

	s.setFloatPtr("distance-min", fc.DistanceMin, &cfg.DistanceMin)
	s.setFloat("distance-max", fc.DistanceMax, &cfg.DistanceMax)
	s.setFloatPtr("smoothing", fc.Smoothing, &cfg.Smoothing)

	s.setIntPtr("bar-top", fc.BarTop, &cfg.BarTop)
	s.setInt("bar-bottom", fc.BarBottom, &cfg.BarBottom)

	s.setString("quit-key", fc.QuitKey, &cfg.QuitKey)
	s.setString("window-title", fc.WindowTitle, &cfg.WindowTitle)
	s.setBool("headless", fc.Headless, &cfg.Headless)

	s.setString("mixer", fc.MixerBackend, &cfg.MixerBackend)
	if err := s.setDuration("mixer-timeout", fc.MixerTimeout, &cfg.MixerTimeout); err != nil {
		return err
	}
	s.setString("plugin-dir", fc.PluginDir, &cfg.PluginDir)
	s.setString("mixer-plugin", fc.MixerPlugin, &cfg.MixerPlugin)

	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
