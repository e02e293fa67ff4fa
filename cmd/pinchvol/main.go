package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/ayusman/pinchvol/internal/app"
	"github.com/ayusman/pinchvol/internal/audio"
	"github.com/ayusman/pinchvol/internal/capture"
	"github.com/ayusman/pinchvol/internal/config"
	"github.com/ayusman/pinchvol/internal/detector"
	"github.com/ayusman/pinchvol/internal/logging"
	"github.com/ayusman/pinchvol/internal/plugin"
	"github.com/ayusman/pinchvol/internal/render"
)

var longHelp = strings.TrimSpace(`
Control the master volume by pinching thumb and index finger in front of
the camera. A wide pinch raises the volume, a closed pinch lowers it.

Configuration is read from ~/.pinchvol/config.toml, then PINCHVOL_*
environment variables, then flags. Press the quit key in the preview
window to exit.
`)

var exampleUsage = strings.TrimSpace(`
  pinchvol
  pinchvol --camera 1 --smoothing 0.7
  pinchvol --mixer plugin --mixer-plugin system-control --headless
  pinchvol --config ./pinchvol.toml --watch
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := config.DefaultConfig()
	var cfgPath string

	log := logging.Must(logging.New(config.DefaultLogLevel))

	root := &cobra.Command{
		Use:           "pinchvol",
		Short:         "Hand gesture volume control",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = config.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && config.FileExists(cfgFile) {
				fc, err := config.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := config.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides the file; flags override both.
			if err := config.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			log = logger
			log.Debug().Interface("config", cfg).Msg("configuration")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cfgFile, changed, log)
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.pinchvol/config.toml)")

	f.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "camera device index")
	f.IntVar(&cfg.FrameWidth, "width", cfg.FrameWidth, "requested frame width")
	f.IntVar(&cfg.FrameHeight, "height", cfg.FrameHeight, "requested frame height")
	f.IntVar(&cfg.FPS, "fps", cfg.FPS, "requested capture frame rate")

	f.IntVar(&cfg.MaxHands, "max-hands", cfg.MaxHands, "maximum hands to detect")
	f.Float64Var(&cfg.DetectionConfidence, "detection-confidence", cfg.DetectionConfidence, "minimum hand detection confidence")
	f.Float64Var(&cfg.TrackingConfidence, "tracking-confidence", cfg.TrackingConfidence, "minimum hand tracking confidence")
	f.BoolVar(&cfg.StaticImageMode, "static-image-mode", cfg.StaticImageMode, "detect on every frame without tracking")
	f.StringVar(&cfg.DetectorScript, "detector-script", cfg.DetectorScript, "path to the hand landmark service script")
	f.StringVar(&cfg.PythonPath, "python", cfg.PythonPath, "python interpreter for the landmark service")

	f.Float64Var(&cfg.DistanceMin, "distance-min", cfg.DistanceMin, "pinch length in pixels mapped to minimum volume")
	f.Float64Var(&cfg.DistanceMax, "distance-max", cfg.DistanceMax, "pinch length in pixels mapped to maximum volume")
	f.Float64Var(&cfg.Smoothing, "smoothing", cfg.Smoothing, "weight of the previous level, in [0, 1)")

	f.IntVar(&cfg.BarTop, "bar-top", cfg.BarTop, "row of the volume bar at 100%")
	f.IntVar(&cfg.BarBottom, "bar-bottom", cfg.BarBottom, "row of the volume bar at 0%")

	f.StringVar(&cfg.QuitKey, "quit-key", cfg.QuitKey, "key that stops the program")
	f.StringVar(&cfg.WindowTitle, "window-title", cfg.WindowTitle, "preview window title")
	f.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run without a preview window")

	f.StringVar(&cfg.MixerBackend, "mixer", cfg.MixerBackend, "mixer backend: system or plugin")
	f.DurationVar(&cfg.MixerTimeout, "mixer-timeout", cfg.MixerTimeout, "timeout for one mixer call")
	f.StringVar(&cfg.PluginDir, "plugin-dir", cfg.PluginDir, "directory containing mixer plugins")
	f.StringVar(&cfg.MixerPlugin, "mixer-plugin", cfg.MixerPlugin, "plugin name for the plugin backend")

	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	f.BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload the volume mapping when the config file changes")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("pinchvol")
		os.Exit(1)
	}
}

// run wires the components and drives the app until it stops.
func run(ctx context.Context, cfg config.Config, cfgFile string, changed map[string]bool, log zerolog.Logger) (err error) {
	mixer, err := newMixer(cfg, log)
	if err != nil {
		return fmt.Errorf("init mixer: %w", err)
	}

	det, err := detector.NewMediaPipeDetector(cfg.DetectorConfig())
	if err != nil {
		mixer.Close()
		return fmt.Errorf("init detector: %w", err)
	}

	var display render.Display = render.Headless{}
	if !cfg.Headless {
		display = render.NewWindow(cfg.WindowTitle)
	}

	deps := app.Deps{
		Camera:   capture.NewCamera(cfg.CameraID, cfg.FrameWidth, cfg.FrameHeight),
		Detector: det,
		Mixer:    mixer,
		Display:  display,
		Logger:   log,
	}

	if cfg.Watch && cfgFile != "" {
		w, werr := config.NewWatcher(cfgFile, cfg, changed, log)
		if werr != nil {
			log.Warn().Err(werr).Msg("config watcher disabled")
		} else {
			wctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go w.Run(wctx)
			deps.Tuning = w.Updates()
		}
	}

	a, err := app.New(cfg, deps)
	if err != nil {
		deps.Camera.Close()
		det.Close()
		mixer.Close()
		display.Close()
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}
	return a.Run(ctx)
}

// newMixer builds the configured mixer backend.
func newMixer(cfg config.Config, log zerolog.Logger) (audio.Mixer, error) {
	switch cfg.MixerBackend {
	case config.MixerPlugin:
		mgr := plugin.NewManager(cfg.PluginDir)
		if err := mgr.Discover(); err != nil {
			return nil, err
		}
		m, err := audio.NewPluginMixer(mgr, cfg.MixerPlugin, plugin.NewExecutor(cfg.MixerTimeout))
		if err != nil {
			return nil, err
		}
		log.Info().Str("plugin", m.Name()).Msg("using plugin mixer")
		return m, nil

	default:
		m, err := audio.NewSystemMixer(cfg.MixerTimeout)
		if errors.Is(err, audio.ErrUnsupportedPlatform) {
			return nil, fmt.Errorf("%w: use --mixer plugin", err)
		}
		if err != nil {
			return nil, err
		}
		log.Info().Str("backend", m.Name()).Dur("timeout", cfg.MixerTimeout).Msg("using system mixer")
		return m, nil
	}
}
