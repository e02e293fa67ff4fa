package config

import "os"

// envVars maps flag names to their PINCHVOL_* environment variables.
var envVars = map[string]string{
	"camera":               "PINCHVOL_CAMERA",
	"width":                "PINCHVOL_WIDTH",
	"height":               "PINCHVOL_HEIGHT",
	"fps":                  "PINCHVOL_FPS",
	"max-hands":            "PINCHVOL_MAX_HANDS",
	"detection-confidence": "PINCHVOL_DETECTION_CONFIDENCE",
	"tracking-confidence":  "PINCHVOL_TRACKING_CONFIDENCE",
	"static-image-mode":    "PINCHVOL_STATIC_IMAGE_MODE",
	"detector-script":      "PINCHVOL_DETECTOR_SCRIPT",
	"python":               "PINCHVOL_PYTHON",
	"distance-min":         "PINCHVOL_DISTANCE_MIN",
	"distance-max":         "PINCHVOL_DISTANCE_MAX",
	"smoothing":            "PINCHVOL_SMOOTHING",
	"bar-top":              "PINCHVOL_BAR_TOP",
	"bar-bottom":           "PINCHVOL_BAR_BOTTOM",
	"quit-key":             "PINCHVOL_QUIT_KEY",
	"window-title":         "PINCHVOL_WINDOW_TITLE",
	"headless":             "PINCHVOL_HEADLESS",
	"mixer":                "PINCHVOL_MIXER",
	"mixer-timeout":        "PINCHVOL_MIXER_TIMEOUT",
	"plugin-dir":           "PINCHVOL_PLUGIN_DIR",
	"mixer-plugin":         "PINCHVOL_MIXER_PLUGIN",
	"log-level":            "PINCHVOL_LOG_LEVEL",
	"watch":                "PINCHVOL_WATCH",
}

func env(flag string) string {
	return os.Getenv(envVars[flag])
}

// ApplyEnvConfig applies configuration from environment variables (PINCHVOL_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	ints := []struct {
		flag string
		dst  *int
	}{
		{"camera", &cfg.CameraID},
		{"width", &cfg.FrameWidth},
		{"height", &cfg.FrameHeight},
		{"fps", &cfg.FPS},
		{"max-hands", &cfg.MaxHands},
		{"bar-top", &cfg.BarTop},
		{"bar-bottom", &cfg.BarBottom},
	}
	for _, f := range ints {
		if err := s.setIntFromString(f.flag, env(f.flag), f.dst); err != nil {
			return err
		}
	}

	floats := []struct {
		flag string
		dst  *float64
	}{
		{"detection-confidence", &cfg.DetectionConfidence},
		{"tracking-confidence", &cfg.TrackingConfidence},
		{"distance-min", &cfg.DistanceMin},
		{"distance-max", &cfg.DistanceMax},
		{"smoothing", &cfg.Smoothing},
	}
	for _, f := range floats {
		if err := s.setFloatFromString(f.flag, env(f.flag), f.dst); err != nil {
			return err
		}
	}

	s.setString("detector-script", env("detector-script"), &cfg.DetectorScript)
	s.setString("python", env("python"), &cfg.PythonPath)
	s.setString("quit-key", env("quit-key"), &cfg.QuitKey)
	s.setString("window-title", env("window-title"), &cfg.WindowTitle)
	s.setString("mixer", env("mixer"), &cfg.MixerBackend)
	s.setString("plugin-dir", env("plugin-dir"), &cfg.PluginDir)
	s.setString("mixer-plugin", env("mixer-plugin"), &cfg.MixerPlugin)
	s.setString("log-level", env("log-level"), &cfg.LogLevel)

	if err := s.setDuration("mixer-timeout", env("mixer-timeout"), &cfg.MixerTimeout); err != nil {
		return err
	}

	s.setBoolFromString("static-image-mode", env("static-image-mode"), &cfg.StaticImageMode)
	s.setBoolFromString("headless", env("headless"), &cfg.Headless)
	s.setBoolFromString("watch", env("watch"), &cfg.Watch)

	return nil
}
